package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/hackgods/booking-backend/internal/appointment"
)

const maxBodyBytes = 1 << 20

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type AppointmentRequest struct {
	Date   fieldValue `json:"date"`
	Time   fieldValue `json:"time"`
	User   fieldValue `json:"user"`
	Status fieldValue `json:"status"`
}

func (r AppointmentRequest) toModel() appointment.Appointment {
	return appointment.Appointment{
		Date:   string(r.Date),
		Time:   string(r.Time),
		User:   string(r.User),
		Status: string(r.Status),
	}
}

// fieldValue accepts any JSON value for an appointment field. Strings are
// kept as is, other truthy values as their compact JSON text. null, false,
// 0 and "" decode to the empty string and so count as missing.
type fieldValue string

func (v *fieldValue) UnmarshalJSON(b []byte) error {
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}

	switch t := x.(type) {
	case nil:
		*v = ""
	case string:
		*v = fieldValue(t)
	case bool:
		*v = ""
		if t {
			*v = "true"
		}
	case float64:
		*v = ""
		if t != 0 {
			*v = fieldValue(bytes.TrimSpace(b))
		}
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return err
		}
		*v = fieldValue(buf.String())
	}
	return nil
}

type AppointmentResponse struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	User   string `json:"user"`
	Status string `json:"status"`
}

func toResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		Date:   a.Date,
		Time:   a.Time,
		User:   a.User,
		Status: a.Status,
	}
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
