package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Options struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

// Service registers users, logs them in and verifies the bearer tokens it
// issued.
type Service struct {
	users    UserStore
	tokens   tokenIssuer
	hashCost int
}

func NewService(users UserStore, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	return &Service{
		users: users,
		tokens: tokenIssuer{
			secret: []byte(opts.Secret),
			issuer: opts.Issuer,
			ttl:    opts.TokenTTL,
			now:    time.Now,
		},
		hashCost: opts.HashCost,
	}
}

// Register creates a user. Email format and password strength are not
// checked.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login checks the password and issues a signed token. An unknown email and a
// wrong password both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	u, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	tok, err := s.tokens.issue(u)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// Verify checks signature, issuer and expiry of a bearer token.
func (s *Service) Verify(_ context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	c, err := s.tokens.parse(token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return c, nil
}
