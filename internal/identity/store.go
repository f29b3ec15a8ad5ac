package identity

import "context"

// UserStore persists users. CreateUser returns ErrEmailTaken for a duplicate
// email; UserByEmail returns ErrUserNotFound when absent. Emails arrive
// already normalized.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	UserByEmail(ctx context.Context, email string) (*User, error)
}
