package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.Date,
		&a.Time,
		&a.User,
		&a.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) Create(ctx context.Context, a Appointment) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO appointments (id, date, time, user_ref, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
	`, id, a.Date, a.Time, a.User, a.Status)
	if err != nil {
		return "", fmt.Errorf("insert appointment: %w", err)
	}
	return id, nil
}

func (r *PgRepository) List(ctx context.Context) (map[string]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, time, user_ref, status
		FROM appointments
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out map[string]Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = make(map[string]Appointment)
		}
		out[a.ID] = *a
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *PgRepository) Get(ctx context.Context, id string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, date, time, user_ref, status
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) Update(ctx context.Context, id string, a Appointment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET date = $2,
		    time = $3,
		    user_ref = $4,
		    status = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, a.Date, a.Time, a.User, a.Status)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}
