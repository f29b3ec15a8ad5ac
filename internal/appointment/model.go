package appointment

import (
	"errors"
	"fmt"
	"strings"
)

// Well-known status labels. Status is free text; these are not enforced.
const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

var ErrMissingField = errors.New("missing appointment data")

// Appointment is the stored record. ID is the store key and is not part of
// the record body.
type Appointment struct {
	ID     string `json:"-"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	User   string `json:"user"`
	Status string `json:"status"`
}

// Validate reports every required field that is empty.
func (a Appointment) Validate() error {
	var missing []string
	if a.Date == "" {
		missing = append(missing, "date")
	}
	if a.Time == "" {
		missing = append(missing, "time")
	}
	if a.User == "" {
		missing = append(missing, "user")
	}
	if a.Status == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

func (a Appointment) fields() map[string]any {
	return map[string]any{
		"date":   a.Date,
		"time":   a.Time,
		"user":   a.User,
		"status": a.Status,
	}
}

func fromFields(id string, m map[string]string) Appointment {
	return Appointment{
		ID:     id,
		Date:   m["date"],
		Time:   m["time"],
		User:   m["user"],
		Status: m["status"],
	}
}
