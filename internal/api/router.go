package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hackgods/booking-backend/internal/appointment"
	"github.com/hackgods/booking-backend/internal/identity"
)

type IdentityService interface {
	Register(ctx context.Context, email, password string) (*identity.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Verify(ctx context.Context, token string) (*identity.Claims, error)
}

type AppointmentService interface {
	CreateAppointment(ctx context.Context, a appointment.Appointment) (string, error)
	ListAppointments(ctx context.Context) (map[string]appointment.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*appointment.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, a appointment.Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
}

type RouterConfig struct {
	Identity       IdentityService
	Appointments   AppointmentService
	Logger         *slog.Logger
	HealthChecks   []HealthCheck
	AuthRateLimit  float64 // per client requests/second on /register and /login, 0 disables
	AuthRateBurst  int
	RequestTimeout time.Duration
	Env            string
	Version        string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(chimw.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	health := NewHealthHandler(cfg.HealthChecks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		if cfg.AuthRateLimit > 0 {
			r.Use(NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst).Middleware)
		}
		r.Post("/register", registerHandler(cfg.Identity, logger))
		r.Post("/login", loginHandler(cfg.Identity, logger))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Use(RequireAuth(cfg.Identity, logger))

		r.Get("/", listAppointmentsHandler(cfg.Appointments, logger))
		r.Post("/", createAppointmentHandler(cfg.Appointments, logger))
		r.Get("/{id}", getAppointmentHandler(cfg.Appointments, logger))
		r.Put("/{id}", updateAppointmentHandler(cfg.Appointments, logger))
		r.Delete("/{id}", deleteAppointmentHandler(cfg.Appointments, logger))
	})

	return r
}
