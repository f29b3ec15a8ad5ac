package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hackgods/booking-backend/internal/identity"
)

func registerHandler(ids IdentityService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		user, err := ids.Register(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "invalid_credentials_input", "email and password are required")
			case errors.Is(err, identity.ErrEmailTaken):
				// don't reveal which emails exist
				writeError(w, http.StatusConflict, "registration_failed", "Failed to create user.")
			default:
				logger.Error("create user failed", "request_id", GetRequestID(r.Context()), "err", err)
				writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create user.")
			}
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

func loginHandler(ids IdentityService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		token, err := ids.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			logger.Warn("login failed", "request_id", GetRequestID(r.Context()), "err", err)
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password.")
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{Token: token})
	}
}
