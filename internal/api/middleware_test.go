package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hackgods/booking-backend/internal/identity"
	"github.com/hackgods/booking-backend/internal/logging"
)

type stubIdentity struct {
	IdentityService
	seen string
}

func (s *stubIdentity) Verify(_ context.Context, token string) (*identity.Claims, error) {
	s.seen = token
	if token != "good" {
		return nil, identity.ErrUnauthorized
	}
	return &identity.Claims{UserID: "u-1"}, nil
}

func TestRequireAuthHeaderForms(t *testing.T) {
	tests := []struct {
		header   string
		wantCode int
		wantSeen string
	}{
		{"", http.StatusUnauthorized, ""},
		{"Bearer good", http.StatusOK, "good"},
		{"bearer good", http.StatusOK, "good"},
		{"good", http.StatusOK, "good"},
		{"Bearer ", http.StatusUnauthorized, ""},
		{"Bearer bad", http.StatusUnauthorized, "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			ids := &stubIdentity{}
			var gotUID string
			h := RequireAuth(ids, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if c, ok := ClaimsFromContext(r.Context()); ok {
					gotUID = c.UserID
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if ids.seen != tt.wantSeen {
				t.Errorf("verifier saw %q, want %q", ids.seen, tt.wantSeen)
			}
			if tt.wantCode == http.StatusOK && gotUID != "u-1" {
				t.Errorf("claims not attached to context")
			}
		})
	}
}

func TestLoggingMiddlewareCapturesStatus(t *testing.T) {
	var rw *responseWriter
	h := LoggingMiddleware(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if rw.statusCode != http.StatusTeapot || rw.bytes != int64(len("short and stout")) {
		t.Fatalf("captured status=%d bytes=%d", rw.statusCode, rw.bytes)
	}
}
