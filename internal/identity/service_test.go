package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	svc := NewService(NewRedisUserStore(rdb), Options{
		Secret:   testSecret,
		Issuer:   "booking-test",
		TokenTTL: time.Minute,
		HashCost: bcrypt.MinCost,
	})
	return svc, mr
}

func TestRegister(t *testing.T) {
	svc, mr := newTestService(t)

	u, err := svc.Register(context.Background(), "  Alice@Example.com ", "hunter22")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.UID == "" {
		t.Fatal("empty uid")
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if u.PasswordHash == "hunter22" || u.PasswordHash == "" {
		t.Error("password stored in clear or missing")
	}
	if got, _ := mr.Get("users:email:alice@example.com"); got != u.UID {
		t.Errorf("email pointer = %q, want %q", got, u.UID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name, email, password string
	}{
		{"empty email", "", "hunter22"},
		{"blank email", "   ", "hunter22"},
		{"empty password", "a@b.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.email, tt.password); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dup@example.com", "first-pass"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, "DUP@example.com", "second-pass"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginAndVerify(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "bob@example.com", "correct horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	tok, err := svc.Login(ctx, "Bob@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok == "" {
		t.Fatal("empty token")
	}

	claims, err := svc.Verify(ctx, tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != u.UID || claims.Subject != u.UID || claims.Email != u.Email {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != "booking-test" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "carol@example.com", "right-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "carol@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Login(context.Background(), "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginStoreFailureIsAuthError(t *testing.T) {
	svc, mr := newTestService(t)
	mr.Close()
	if _, err := svc.Login(context.Background(), "x@example.com", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u := &User{UID: "u-1", Email: "u@example.com"}
	good, err := svc.tokens.issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	expiredIssuer := svc.tokens
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredIssuer.issue(u)

	otherIssuer := svc.tokens
	otherIssuer.secret = []byte("other-secret")
	forged, _ := otherIssuer.issue(u)

	wrongIss := svc.tokens
	wrongIss.issuer = "someone-else"
	foreign, _ := wrongIss.issue(u)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name, token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"truncated", good[:len(good)-4]},
		{"expired", expired},
		{"wrong secret", forged},
		{"wrong issuer", foreign},
		{"alg none", none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Verify(ctx, tt.token); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}

	if _, err := svc.Verify(ctx, good); err != nil {
		t.Fatalf("good token rejected: %v", err)
	}
}

func TestTokenCarriesExpiry(t *testing.T) {
	svc, _ := newTestService(t)
	tok, err := svc.tokens.issue(&User{UID: "u-2", Email: "e@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if strings.Count(tok, ".") != 2 {
		t.Fatalf("not a compact jws: %q", tok)
	}
	c, err := svc.tokens.parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ttl := c.ExpiresAt.Sub(c.IssuedAt.Time)
	if ttl != time.Minute {
		t.Errorf("ttl = %s, want 1m", ttl)
	}
	if c.ID == "" {
		t.Error("missing jti")
	}
}

func TestRedisStoreRejectsCorruptUser(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewRedisUserStore(rdb)

	mr.Set("users:email:dave@example.com", "u-9")
	mr.HSet("users:u-9", "email", "dave@example.com", "password_hash", "x", "created_at", "yesterday")

	u, err := store.UserByEmail(context.Background(), "dave@example.com")
	if err == nil {
		t.Fatalf("expected decode error, got user %+v", u)
	}
	if errors.Is(err, ErrUserNotFound) {
		t.Fatalf("corrupt record reported as missing: %v", err)
	}
	if !strings.Contains(err.Error(), "created_at") {
		t.Fatalf("error does not name the field: %v", err)
	}
}
