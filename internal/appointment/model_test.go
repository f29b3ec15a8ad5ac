package appointment

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	full := Appointment{Date: "2024-01-01", Time: "10:00", User: "u1", Status: StatusBooked}
	if err := full.Validate(); err != nil {
		t.Fatalf("valid appointment rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(a *Appointment)
		missing string
	}{
		{"no date", func(a *Appointment) { a.Date = "" }, "date"},
		{"no time", func(a *Appointment) { a.Time = "" }, "time"},
		{"no user", func(a *Appointment) { a.User = "" }, "user"},
		{"no status", func(a *Appointment) { a.Status = "" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := full
			tt.mutate(&a)
			err := a.Validate()
			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("expected ErrMissingField, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("error %q does not name %q", err, tt.missing)
			}
		})
	}
}

func TestValidateNamesEveryMissingField(t *testing.T) {
	err := Appointment{Status: StatusCancelled}.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, f := range []string{"date", "time", "user"} {
		if !strings.Contains(err.Error(), f) {
			t.Errorf("error %q does not name %q", err, f)
		}
	}
	if strings.Contains(err.Error(), "status") {
		t.Errorf("status is present but reported missing: %q", err)
	}
}
