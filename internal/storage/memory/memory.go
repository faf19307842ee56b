package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/MikhailRaia/tinyu/internal/model"
	"github.com/MikhailRaia/tinyu/internal/storage"
)

// Storage implements storage.Storage in process memory.
// All state is lost when the process exits.
type Storage struct {
	links       map[string]model.Link
	users       map[string]model.User
	userByEmail map[string]string
	mutex       sync.RWMutex
}

// NewStorage creates a new in-memory storage instance.
func NewStorage() *Storage {
	return &Storage{
		links:       make(map[string]model.Link),
		users:       make(map[string]model.User),
		userByEmail: make(map[string]string),
	}
}

// Get returns the link stored under shortCode.
func (s *Storage) Get(_ context.Context, shortCode string) (model.Link, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	link, found := s.links[shortCode]
	if !found {
		return model.Link{}, storage.ErrNotFound
	}

	return link, nil
}

// Put stores the link, overwriting an existing record with the same code.
func (s *Storage) Put(_ context.Context, link model.Link) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.links[link.ShortCode] = link
	return nil
}

// Insert stores the link unless the code is already taken.
func (s *Storage) Insert(_ context.Context, link model.Link) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.links[link.ShortCode]; exists {
		return storage.ErrCodeExists
	}

	s.links[link.ShortCode] = link
	return nil
}

// Update runs fn against a copy of the stored link and saves the copy if fn succeeds.
// The short code cannot be changed through fn.
func (s *Storage) Update(_ context.Context, shortCode string, fn func(link *model.Link) error) (model.Link, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	link, found := s.links[shortCode]
	if !found {
		return model.Link{}, storage.ErrNotFound
	}

	if err := fn(&link); err != nil {
		return model.Link{}, err
	}

	link.ShortCode = shortCode
	s.links[shortCode] = link
	return link, nil
}

// Delete removes the link if check accepts it.
func (s *Storage) Delete(_ context.Context, shortCode string, check func(link model.Link) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	link, found := s.links[shortCode]
	if !found {
		return storage.ErrNotFound
	}

	if check != nil {
		if err := check(link); err != nil {
			return err
		}
	}

	delete(s.links, shortCode)
	return nil
}

// AllByOwner returns every link created by ownerID, in no particular order.
func (s *Storage) AllByOwner(_ context.Context, ownerID string) ([]model.Link, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]model.Link, 0)
	for _, link := range s.links {
		if link.OwnerID == ownerID {
			result = append(result, link)
		}
	}

	return result, nil
}

// Count returns the number of stored links.
func (s *Storage) Count(_ context.Context) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.links), nil
}

// CreateUser registers a user; both the ID and the email must be unused.
func (s *Storage) CreateUser(_ context.Context, user model.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	email := normalizeEmail(user.Email)
	if _, exists := s.users[user.ID]; exists {
		return storage.ErrUserExists
	}
	if _, exists := s.userByEmail[email]; exists {
		return storage.ErrUserExists
	}

	s.users[user.ID] = user
	s.userByEmail[email] = user.ID
	return nil
}

// UserByID looks a user up by ID.
func (s *Storage) UserByID(_ context.Context, id string) (model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	user, found := s.users[id]
	if !found {
		return model.User{}, storage.ErrUserNotFound
	}

	return user, nil
}

// UserByEmail looks a user up by email, ignoring case.
func (s *Storage) UserByEmail(_ context.Context, email string) (model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	id, found := s.userByEmail[normalizeEmail(email)]
	if !found {
		return model.User{}, storage.ErrUserNotFound
	}

	return s.users[id], nil
}

// Ping always succeeds for the in-memory backend.
func (s *Storage) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Storage) Close() error {
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
