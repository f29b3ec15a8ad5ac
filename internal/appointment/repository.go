package appointment

import (
	"context"
	"errors"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPersistence         = errors.New("appointment store failure")
)

// Repository is implemented once per backing store. Implementations do not
// validate; the Service does that before any write.
type Repository interface {
	// Create stores a under a freshly generated key and returns the key.
	Create(ctx context.Context, a Appointment) (string, error)
	// List returns every record keyed by id, or nil when there are none.
	List(ctx context.Context) (map[string]Appointment, error)
	Get(ctx context.Context, id string) (*Appointment, error)
	// Update overwrites the record fields. ErrAppointmentNotFound if id is unknown.
	Update(ctx context.Context, id string, a Appointment) error
	// Delete removes id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}
