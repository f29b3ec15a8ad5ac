package appointment

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/booking-backend/internal/db"
)

func newPgRepo(t *testing.T) *PgRepository {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return NewPgRepository(pool)
}

func cleanup(t *testing.T, pool *pgxpool.Pool, id string) {
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM appointments WHERE id = $1`, id)
	})
}

func TestPgCRUD(t *testing.T) {
	repo := newPgRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, booked)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cleanup(t, repo.pool, id)

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := booked
	want.ID = id
	if *got != want {
		t.Fatalf("got %+v, want %+v", *got, want)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, ok := all[id]; !ok {
		t.Fatalf("created record missing from list")
	}

	next := booked
	next.Status = StatusCancelled
	if err := repo.Update(ctx, id, next); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got, _ := repo.Get(ctx, id); got.Status != StatusCancelled {
		t.Fatalf("status not updated: %+v", got)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, id); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestPgUpdateMissing(t *testing.T) {
	repo := newPgRepo(t)
	if err := repo.Update(context.Background(), "00000000-0000-0000-0000-000000000000", booked); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}
