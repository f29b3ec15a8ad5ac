package appointment

import (
	"context"
	"errors"
	"fmt"
)

// Service applies validation and maps store failures onto the package
// sentinels: ErrMissingField, ErrAppointmentNotFound, ErrPersistence.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateAppointment validates a and stores it. Nothing is written when
// validation fails. Identical payloads create distinct records.
func (s *Service) CreateAppointment(ctx context.Context, a Appointment) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	id, err := s.repo.Create(ctx, a)
	if err != nil {
		return "", persistence("create appointment", err)
	}
	return id, nil
}

// ListAppointments returns nil when the collection is empty.
func (s *Service) ListAppointments(ctx context.Context) (map[string]Appointment, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, persistence("list appointments", err)
	}
	return all, nil
}

func (s *Service) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, persistence("get appointment", err)
	}
	return a, nil
}

// UpdateAppointment replaces all four fields of an existing record, so a is
// validated the same way as on create.
func (s *Service) UpdateAppointment(ctx context.Context, id string, a Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, a); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return persistence("update appointment", err)
	}
	return nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return persistence("delete appointment", err)
	}
	return nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
