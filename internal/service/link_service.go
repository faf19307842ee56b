package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/tinyu/internal/model"
	"github.com/MikhailRaia/tinyu/internal/storage"
	"github.com/MikhailRaia/tinyu/internal/validate"
)

var (
	ErrInvalidURL         = errors.New("invalid url")
	ErrNotFound           = errors.New("link not found")
	ErrForbidden          = errors.New("link belongs to another user")
	ErrExhaustedNamespace = errors.New("no free short code found")
	ErrNoOwner            = errors.New("owner id is required")
)

// IDGenerator produces candidate short codes.
type IDGenerator interface {
	NewID() (string, error)
}

type Config struct {
	MaxCreateAttempts int // Сколько раз пробуем сгенерировать свободный код
}

func DefaultConfig() Config {
	return Config{
		MaxCreateAttempts: 10,
	}
}

// LinkService implements create/read/update/delete of links with ownership checks.
type LinkService struct {
	storage     storage.LinkStorage
	generator   IDGenerator
	maxAttempts int
}

// NewLinkService constructs a LinkService over the given storage and code generator.
func NewLinkService(storage storage.LinkStorage, generator IDGenerator, config Config) *LinkService {
	if config.MaxCreateAttempts <= 0 {
		config.MaxCreateAttempts = DefaultConfig().MaxCreateAttempts
	}

	return &LinkService{
		storage:     storage,
		generator:   generator,
		maxAttempts: config.MaxCreateAttempts,
	}
}

// Create validates longURL, allocates a free short code and stores the link.
func (s *LinkService) Create(ctx context.Context, ownerID, longURL string) (string, error) {
	if ownerID == "" {
		return "", ErrNoOwner
	}
	if !validate.IsHTTPURL(longURL) {
		return "", ErrInvalidURL
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generator.NewID()
		if err != nil {
			return "", fmt.Errorf("error generating short code: %w", err)
		}

		err = s.storage.Insert(ctx, model.Link{
			ShortCode: code,
			LongURL:   longURL,
			OwnerID:   ownerID,
		})
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, storage.ErrCodeExists) {
			return "", fmt.Errorf("error saving link: %w", err)
		}

		log.Debug().
			Int("attempt", attempt).
			Msg("Short code collision, retrying")
	}

	log.Warn().
		Int("attempts", s.maxAttempts).
		Msg("Gave up allocating a short code")

	return "", ErrExhaustedNamespace
}

// Get returns the link if it exists and belongs to ownerID.
func (s *LinkService) Get(ctx context.Context, ownerID, shortCode string) (model.Link, error) {
	link, err := s.storage.Get(ctx, shortCode)
	if err != nil {
		return model.Link{}, mapStorageError(err)
	}

	if err := checkOwner(link, ownerID); err != nil {
		return model.Link{}, err
	}

	return link, nil
}

// Update replaces the long URL of an owned link. Short code and owner never change.
func (s *LinkService) Update(ctx context.Context, ownerID, shortCode, newLongURL string) (model.Link, error) {
	link, err := s.storage.Update(ctx, shortCode, func(link *model.Link) error {
		if err := checkOwner(*link, ownerID); err != nil {
			return err
		}
		if !validate.IsHTTPURL(newLongURL) {
			return ErrInvalidURL
		}

		link.LongURL = newLongURL
		return nil
	})
	if err != nil {
		return model.Link{}, mapStorageError(err)
	}

	return link, nil
}

// Delete removes an owned link. Deleting a missing link is ErrNotFound.
func (s *LinkService) Delete(ctx context.Context, ownerID, shortCode string) error {
	err := s.storage.Delete(ctx, shortCode, func(link model.Link) error {
		return checkOwner(link, ownerID)
	})
	if err != nil {
		return mapStorageError(err)
	}

	return nil
}

// ListForOwner returns all links owned by ownerID in no particular order.
func (s *LinkService) ListForOwner(ctx context.Context, ownerID string) ([]model.Link, error) {
	links, err := s.storage.AllByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing links: %w", err)
	}

	if links == nil {
		links = []model.Link{}
	}

	return links, nil
}

func checkOwner(link model.Link, ownerID string) error {
	if ownerID == "" || link.OwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrInvalidURL):
		return err
	default:
		return fmt.Errorf("storage error: %w", err)
	}
}
