package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/booking-backend/internal/appointment"
)

func listAppointmentsHandler(svc AppointmentService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := svc.ListAppointments(r.Context())
		if err != nil {
			handleAppointmentError(w, r, logger, "get appointments", err)
			return
		}

		// an empty collection is reported as null
		var resp map[string]AppointmentResponse
		if len(all) > 0 {
			resp = make(map[string]AppointmentResponse, len(all))
			for id, a := range all {
				resp[id] = toResponse(a)
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createAppointmentHandler(svc AppointmentService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppointmentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		id, err := svc.CreateAppointment(r.Context(), req.toModel())
		if err != nil {
			handleAppointmentError(w, r, logger, "create appointment", err)
			return
		}

		writeJSON(w, http.StatusOK, CreatedResponse{ID: id})
	}
}

func getAppointmentHandler(svc AppointmentService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, r, logger, "get appointment", err)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(*appt))
	}
}

func updateAppointmentHandler(svc AppointmentService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req AppointmentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := svc.UpdateAppointment(r.Context(), id, req.toModel()); err != nil {
			handleAppointmentError(w, r, logger, "update appointment", err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment updated successfully."})
	}
}

func deleteAppointmentHandler(svc AppointmentService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			handleAppointmentError(w, r, logger, "delete appointment", err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment deleted successfully."})
	}
}

// handleAppointmentError logs the cause and answers with a fixed message.
func handleAppointmentError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	reqID := GetRequestID(r.Context())

	switch {
	case errors.Is(err, appointment.ErrMissingField):
		logger.Info(op+" rejected", "request_id", reqID, "err", err)
		writeError(w, http.StatusBadRequest, "invalid_appointment", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", "Appointment not found.")
	default:
		logger.Error(op+" failed", "request_id", reqID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to "+op+".")
	}
}
