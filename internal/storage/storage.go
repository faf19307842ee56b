package storage

import (
	"context"
	"errors"

	"github.com/MikhailRaia/tinyu/internal/model"
)

var (
	// ErrNotFound is returned when no link exists for a short code.
	ErrNotFound = errors.New("link not found")
	// ErrCodeExists is returned by Insert when the short code is already taken.
	ErrCodeExists = errors.New("short code already exists")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when the user ID or email is already registered.
	ErrUserExists = errors.New("user already exists")
)

// LinkStorage is a keyed container of links. It knows nothing about ownership;
// Update and Delete run the caller's check under the same lock as the mutation.
type LinkStorage interface {
	Get(ctx context.Context, shortCode string) (model.Link, error)

	// Put stores the link, replacing any record with the same short code.
	Put(ctx context.Context, link model.Link) error

	// Insert stores the link only if its short code is free.
	Insert(ctx context.Context, link model.Link) error

	// Update passes the stored record to fn and saves it if fn returns nil.
	Update(ctx context.Context, shortCode string, fn func(link *model.Link) error) (model.Link, error)

	// Delete removes the record if check (when non-nil) returns nil.
	Delete(ctx context.Context, shortCode string, check func(link model.Link) error) error

	AllByOwner(ctx context.Context, ownerID string) ([]model.Link, error)

	Count(ctx context.Context) (int, error)
}

// UserStorage keeps registered accounts.
type UserStorage interface {
	CreateUser(ctx context.Context, user model.User) error
	UserByID(ctx context.Context, id string) (model.User, error)
	UserByEmail(ctx context.Context, email string) (model.User, error)
}

// Storage is a complete backend used by the application.
type Storage interface {
	LinkStorage
	UserStorage

	Ping(ctx context.Context) error
	Close() error
}
