package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/booking-backend/internal/appointment"
	"github.com/hackgods/booking-backend/internal/backend"
	"github.com/hackgods/booking-backend/internal/config"
	"github.com/hackgods/booking-backend/internal/identity"
	"github.com/hackgods/booking-backend/internal/logging"
)

const seedPassword = "password123"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("seed", "dev").Error("config load error", "err", err)
		os.Exit(1)
	}

	logger := logging.New("seed", cfg.Env)
	logger.Info("seed starting", "backend", cfg.StoreBackend)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	stores, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("store backend error", "err", err)
		os.Exit(1)
	}
	defer stores.Close()

	ids := identity.NewService(stores.Users, identity.Options{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.TokenIssuer,
		TokenTTL: cfg.TokenTTL,
	})
	appts := appointment.NewService(stores.Appointments)

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	emails, err := seedUsers(ctx, logger, ids, faker, getInt("SEED_USERS", 50))
	if err != nil {
		logger.Error("seed users", "err", err)
		os.Exit(1)
	}
	if err := seedAppointments(ctx, logger, appts, faker, emails, getInt("SEED_APPOINTMENTS", 500)); err != nil {
		logger.Error("seed appointments", "err", err)
		os.Exit(1)
	}

	logger.Info("seed complete")
}

// seedUsers registers count users sharing seedPassword and returns their
// emails. Hashing dominates, so registrations run a few at a time.
func seedUsers(ctx context.Context, logger *slog.Logger, ids *identity.Service, faker *gofakeit.Faker, count int) ([]string, error) {
	logger.Info("seeding users", "count", count)

	// Faker is not safe for concurrent use.
	emails := make([]string, count)
	for i := range emails {
		emails[i] = fmt.Sprintf("%d.%s", i, faker.Email())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, email := range emails {
		g.Go(func() error {
			_, err := ids.Register(gctx, email, seedPassword)
			if errors.Is(err, identity.ErrEmailTaken) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("users seeded", "count", count, "password", seedPassword)
	return emails, nil
}

func seedAppointments(ctx context.Context, logger *slog.Logger, appts *appointment.Service, faker *gofakeit.Faker, users []string, count int) error {
	if len(users) == 0 {
		return errors.New("no users to own appointments")
	}
	logger.Info("seeding appointments", "count", count)

	const batchSize = 100
	statuses := []string{appointment.StatusBooked, appointment.StatusBooked, appointment.StatusCancelled}

	for i := 0; i < count; i++ {
		start := faker.DateRange(time.Now(), time.Now().AddDate(0, 3, 0))
		_, err := appts.CreateAppointment(ctx, appointment.Appointment{
			Date:   start.Format("2006-01-02"),
			Time:   start.Format("15:04"),
			User:   users[faker.Number(0, len(users)-1)],
			Status: faker.RandomString(statuses),
		})
		if err != nil {
			return err
		}

		if (i+1)%batchSize == 0 {
			logger.Info("appointments seeded", "done", i+1, "total", count)
		}
	}

	logger.Info("appointments seeded", "done", count, "total", count)
	return nil
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
