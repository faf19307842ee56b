package resolver

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
	ErrNotFound      = errors.New("short code not found")
	ErrInvalidTarget = errors.New("stored url is not a valid redirect target")
)

// LinkReader is the read side of the link storage.
type LinkReader interface {
	Get(ctx context.Context, shortCode string) (model.Link, error)
}

// Resolver turns short codes into redirect targets for anonymous visitors.
// It never checks ownership.
type Resolver struct {
	links LinkReader
}

func NewResolver(links LinkReader) *Resolver {
	return &Resolver{links: links}
}

// Resolve returns the URL to redirect to for shortCode.
func (r *Resolver) Resolve(ctx context.Context, shortCode string) (string, error) {
	link, err := r.links.Get(ctx, shortCode)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("error resolving short code: %w", err)
	}

	if !validate.IsHTTPURL(link.LongURL) {
		log.Warn().
			Str("shortCode", shortCode).
			Msg("Refusing to redirect to invalid target")
		return "", ErrInvalidTarget
	}

	return link.LongURL, nil
}
