package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/tinyu/internal/model"
	"github.com/MikhailRaia/tinyu/internal/storage"
	"github.com/MikhailRaia/tinyu/internal/validate"
)

var (
	ErrInvalidInput       = errors.New("name, email and password are required and email must be valid")
	ErrEmailTaken         = errors.New("user already registered for this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnknownUser        = errors.New("not a valid registered user")
	ErrNoFreeUserID       = errors.New("no free user id found")
)

const maxUserIDAttempts = 10

// IDGenerator produces candidate user IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Registration is the input of Accounts.Register.
type Registration struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,max=72"`
}

// Accounts registers users and checks their credentials.
type Accounts struct {
	users         storage.UserStorage
	generator     IDGenerator
	checkPassword func(hash, password string) bool
}

func NewAccounts(users storage.UserStorage, generator IDGenerator) *Accounts {
	return &Accounts{
		users:         users,
		generator:     generator,
		checkPassword: CheckPassword,
	}
}

// Register creates a new user with a hashed password.
func (a *Accounts) Register(ctx context.Context, reg Registration) (model.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Name = strings.TrimSpace(reg.Name)
	if err := validate.Struct(reg); err != nil {
		return model.User{}, ErrInvalidInput
	}

	if _, err := a.users.UserByEmail(ctx, reg.Email); err == nil {
		return model.User{}, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return model.User{}, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("error hashing password: %w", err)
	}

	for attempt := 0; attempt < maxUserIDAttempts; attempt++ {
		id, err := a.generator.NewID()
		if err != nil {
			return model.User{}, fmt.Errorf("error generating user id: %w", err)
		}

		user := model.User{
			ID:           id,
			Email:        reg.Email,
			Name:         reg.Name,
			PasswordHash: hash,
		}

		err = a.users.CreateUser(ctx, user)
		if err == nil {
			log.Info().Str("userID", id).Msg("User registered")
			return user, nil
		}
		if !errors.Is(err, storage.ErrUserExists) {
			return model.User{}, fmt.Errorf("error saving user: %w", err)
		}

		// Either the ID collided or the email was registered concurrently.
		if _, lookupErr := a.users.UserByEmail(ctx, reg.Email); lookupErr == nil {
			return model.User{}, ErrEmailTaken
		}
	}

	return model.User{}, ErrNoFreeUserID
}

// Login returns the user matching email and password. Every failure is
// reported as ErrInvalidCredentials so callers cannot probe for emails.
func (a *Accounts) Login(ctx context.Context, email, password string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.User{}, ErrInvalidCredentials
	}

	user, err := a.users.UserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			log.Error().Err(err).Msg("Failed to look up user")
		}
		a.checkPassword(dummyHash(), password)
		return model.User{}, ErrInvalidCredentials
	}

	if !a.checkPassword(user.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// User returns the registered user with the given ID.
func (a *Accounts) User(ctx context.Context, id string) (model.User, error) {
	user, err := a.users.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return model.User{}, ErrUnknownUser
		}
		return model.User{}, fmt.Errorf("error looking up user: %w", err)
	}
	return user, nil
}
