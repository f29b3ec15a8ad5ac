package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisUserStore keeps users:<uid> hashes and a users:email:<email> -> uid
// pointer. The pointer is claimed with SETNX so two registrations of the
// same email cannot both win.
type RedisUserStore struct {
	client *redis.Client
}

func NewRedisUserStore(client *redis.Client) *RedisUserStore {
	return &RedisUserStore{client: client}
}

func userKey(uid string) string    { return "users:" + uid }
func emailKey(email string) string { return "users:email:" + email }

func (s *RedisUserStore) CreateUser(ctx context.Context, u *User) error {
	ok, err := s.client.SetNX(ctx, emailKey(u.Email), u.UID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	if !ok {
		return ErrEmailTaken
	}

	err = s.client.HSet(ctx, userKey(u.UID), map[string]any{
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"created_at":    u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		// release the claim so the email can be retried
		_ = s.client.Del(ctx, emailKey(u.Email)).Err()
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

func (s *RedisUserStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	uid, err := s.client.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	m, err := s.client.HGetAll(ctx, userKey(uid)).Result()
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", uid, err)
	}
	if len(m) == 0 {
		return nil, ErrUserNotFound
	}

	created, err := time.Parse(time.RFC3339Nano, m["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decode user %s created_at: %w", uid, err)
	}
	return &User{
		UID:          uid,
		Email:        m["email"],
		PasswordHash: m["password_hash"],
		CreatedAt:    created,
	}, nil
}
