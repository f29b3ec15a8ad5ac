package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hackgods/booking-backend/internal/appointment"
	"github.com/hackgods/booking-backend/internal/config"
	"github.com/hackgods/booking-backend/internal/db"
	"github.com/hackgods/booking-backend/internal/identity"
	redisclient "github.com/hackgods/booking-backend/internal/redis"
)

// Stores is the pair of adapters a process works against, plus the handles
// needed to probe and release the underlying connection.
type Stores struct {
	Name         string
	Users        identity.UserStore
	Appointments appointment.Repository
	Ping         func(ctx context.Context) error
	Close        func()
}

// Open connects the backend selected by cfg.StoreBackend. For postgres the
// schema is applied before returning.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.EnsureSchema(pgCtx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("connected to Postgres")

		return &Stores{
			Name:         config.BackendPostgres,
			Users:        identity.NewPgUserStore(pool),
			Appointments: appointment.NewPgRepository(pool),
			Ping:         pool.Ping,
			Close:        pool.Close,
		}, nil

	case config.BackendRedis:
		rdb, err := redisclient.Connect(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("connected to Redis", "addr", cfg.RedisAddr)

		return &Stores{
			Name:         config.BackendRedis,
			Users:        identity.NewRedisUserStore(rdb),
			Appointments: appointment.NewRedisRepository(rdb, ""),
			Ping: func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
			Close: func() {
				if err := rdb.Close(); err != nil {
					logger.Warn("error closing redis", "err", err)
				}
			},
		}, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
