package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikhailRaia/tinyu/internal/generator"
	"github.com/MikhailRaia/tinyu/internal/model"
	"github.com/MikhailRaia/tinyu/internal/resolver"
	"github.com/MikhailRaia/tinyu/internal/storage"
	"github.com/MikhailRaia/tinyu/internal/storage/file"
	"github.com/MikhailRaia/tinyu/internal/storage/memory"
)

type scriptedGenerator struct {
	mu    sync.Mutex
	ids   []string
	calls int
	err   error
}

func (g *scriptedGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if g.err != nil {
		return "", g.err
	}
	id := g.ids[0]
	if len(g.ids) > 1 {
		g.ids = g.ids[1:]
	}
	return id, nil
}

type failingStorage struct {
	*memory.Storage
	err error
}

func (f *failingStorage) Insert(context.Context, model.Link) error {
	return f.err
}

func (f *failingStorage) AllByOwner(context.Context, string) ([]model.Link, error) {
	return nil, f.err
}

func newTestService() (*LinkService, *memory.Storage) {
	store := memory.NewStorage()
	return NewLinkService(store, generator.New(6), DefaultConfig()), store
}

func TestLinkService_Create(t *testing.T) {
	tests := []struct {
		name    string
		ownerID string
		longURL string
		wantErr error
	}{
		{
			name:    "Valid https URL",
			ownerID: "u1",
			longURL: "https://example.com",
		},
		{
			name:    "Valid http URL with path",
			ownerID: "u1",
			longURL: "http://example.com/some/long/path?x=1",
		},
		{
			name:    "Empty URL",
			ownerID: "u1",
			longURL: "",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "Missing scheme",
			ownerID: "u1",
			longURL: "www.google.com",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "Javascript scheme",
			ownerID: "u1",
			longURL: "javascript:alert(1)",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "Missing owner",
			ownerID: "",
			longURL: "https://example.com",
			wantErr: ErrNoOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store := newTestService()

			code, err := svc.Create(ctx, tt.ownerID, tt.longURL)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, code)

				n, err := store.Count(ctx)
				require.NoError(t, err)
				assert.Zero(t, n, "no record may be created on failure")
				return
			}

			require.NoError(t, err)
			assert.True(t, generator.IsValid(code, 6), "bad code %q", code)

			link, err := svc.Get(ctx, tt.ownerID, code)
			require.NoError(t, err)
			assert.Equal(t, tt.longURL, link.LongURL)
			assert.Equal(t, tt.ownerID, link.OwnerID)
			assert.Equal(t, code, link.ShortCode)
		})
	}
}

func TestLinkService_Create_RetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStorage()
	require.NoError(t, store.Put(ctx, model.Link{ShortCode: "taken1", LongURL: "https://a.com", OwnerID: "u0"}))
	require.NoError(t, store.Put(ctx, model.Link{ShortCode: "taken2", LongURL: "https://b.com", OwnerID: "u0"}))

	gen := &scriptedGenerator{ids: []string{"taken1", "taken2", "free01"}}
	svc := NewLinkService(store, gen, DefaultConfig())

	code, err := svc.Create(ctx, "u1", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "free01", code)
	assert.Equal(t, 3, gen.calls)

	existing, err := store.Get(ctx, "taken1")
	require.NoError(t, err)
	assert.Equal(t, "u0", existing.OwnerID, "collision must not overwrite the existing link")
}

func TestLinkService_Create_ExhaustedNamespace(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStorage()
	require.NoError(t, store.Put(ctx, model.Link{ShortCode: "taken1", LongURL: "https://a.com", OwnerID: "u0"}))

	gen := &scriptedGenerator{ids: []string{"taken1"}}
	svc := NewLinkService(store, gen, Config{MaxCreateAttempts: 4})

	code, err := svc.Create(ctx, "u1", "https://example.com")
	assert.ErrorIs(t, err, ErrExhaustedNamespace)
	assert.Empty(t, code)
	assert.Equal(t, 4, gen.calls)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLinkService_Create_GeneratorError(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("entropy exhausted")}
	svc := NewLinkService(memory.NewStorage(), gen, DefaultConfig())

	_, err := svc.Create(context.Background(), "u1", "https://example.com")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrExhaustedNamespace)
	assert.Equal(t, 1, gen.calls)
}

func TestLinkService_Create_StorageError(t *testing.T) {
	storageErr := errors.New("connection refused")
	store := &failingStorage{Storage: memory.NewStorage(), err: storageErr}
	svc := NewLinkService(store, generator.New(6), DefaultConfig())

	_, err := svc.Create(context.Background(), "u1", "https://example.com")
	assert.ErrorIs(t, err, storageErr)
}

func TestLinkService_UnknownCode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Get(ctx, "u1", "unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, "u1", "unknown", "https://example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(ctx, "u1", "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkService_ForeignOwner(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	code, err := svc.Create(ctx, "u1", "https://example.com")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", code)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, "u2", code, "https://evil.com")
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.Delete(ctx, "u2", code)
	assert.ErrorIs(t, err, ErrForbidden)

	link, err := store.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.LongURL)
	assert.Equal(t, "u1", link.OwnerID)
}

func TestLinkService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	code, err := svc.Create(ctx, "u1", "https://example.com")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "u1", code, "https://example.org/new")
	require.NoError(t, err)
	assert.Equal(t, model.Link{ShortCode: code, LongURL: "https://example.org/new", OwnerID: "u1"}, updated)

	link, err := svc.Get(ctx, "u1", code)
	require.NoError(t, err)
	assert.Equal(t, updated, link)

	_, err = svc.Update(ctx, "u1", code, "not-a-url")
	assert.ErrorIs(t, err, ErrInvalidURL)

	link, err = svc.Get(ctx, "u1", code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/new", link.LongURL, "invalid update must not be applied")
}

func TestLinkService_Update_ForbiddenBeforeInvalidURL(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	code, err := svc.Create(ctx, "u1", "https://example.com")
	require.NoError(t, err)

	_, err = svc.Update(ctx, "u2", code, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLinkService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	code, err := svc.Create(ctx, "u1", "https://example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", code))

	_, err = svc.Get(ctx, "u1", code)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(ctx, "u1", code)
	assert.ErrorIs(t, err, ErrNotFound, "second delete must fail")
}

func TestLinkService_ListForOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	links, err := svc.ListForOwner(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)

	c1, err := svc.Create(ctx, "u1", "https://a.com")
	require.NoError(t, err)
	c2, err := svc.Create(ctx, "u1", "https://b.com")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", "https://c.com")
	require.NoError(t, err)

	links, err = svc.ListForOwner(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.Link{
		{ShortCode: c1, LongURL: "https://a.com", OwnerID: "u1"},
		{ShortCode: c2, LongURL: "https://b.com", OwnerID: "u1"},
	}, links)
}

func TestLinkService_ListForOwner_StorageError(t *testing.T) {
	storageErr := errors.New("connection refused")
	store := &failingStorage{Storage: memory.NewStorage(), err: storageErr}
	svc := NewLinkService(store, generator.New(6), DefaultConfig())

	_, err := svc.ListForOwner(context.Background(), "u1")
	assert.ErrorIs(t, err, storageErr)
}

func TestLinkService_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStorage()
	svc := NewLinkService(store, &racingGenerator{}, DefaultConfig())

	const workers = 20
	codes := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, err := svc.Create(ctx, "u1", "https://example.com")
			assert.NoError(t, err)
			codes[i] = code
		}(i)
	}
	wg.Wait()

	unique := make(map[string]struct{})
	for _, c := range codes {
		unique[c] = struct{}{}
	}
	assert.Len(t, unique, workers)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, n)
}

func TestLinkService_ConcurrentUpdateAndDelete(t *testing.T) {
	journal, err := file.NewStorage(filepath.Join(t.TempDir(), "links.jsonl"))
	require.NoError(t, err)

	stores := []struct {
		name  string
		store storage.LinkStorage
	}{
		{name: "memory", store: memory.NewStorage()},
		{name: "file", store: journal},
	}

	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := NewLinkService(tt.store, generator.New(6), DefaultConfig())

			const rounds = 200
			for i := 0; i < rounds; i++ {
				code, err := svc.Create(ctx, "u1", "https://example.com")
				require.NoError(t, err)

				var wg sync.WaitGroup
				var updateErr, deleteErr error
				wg.Add(2)
				go func() {
					defer wg.Done()
					_, updateErr = svc.Update(ctx, "u1", code, fmt.Sprintf("https://example.com/%d", i))
				}()
				go func() {
					defer wg.Done()
					deleteErr = svc.Delete(ctx, "u1", code)
				}()
				wg.Wait()

				require.NoError(t, deleteErr)
				if updateErr != nil {
					require.ErrorIs(t, updateErr, ErrNotFound)
				}

				_, err = svc.Get(ctx, "u1", code)
				require.ErrorIs(t, err, ErrNotFound, "round %d: deleted link is visible again", i)
			}

			n, err := tt.store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}

// racingGenerator returns "shared" on every other call so concurrent
// creates keep colliding on the same candidate.
type racingGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *racingGenerator) NewID() (string, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()

	if n%2 == 1 {
		return "shared", nil
	}
	return generator.GenerateID(6)
}

func TestLinkService_Scenario(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	r := resolver.NewResolver(store)

	code, err := svc.Create(ctx, "u1", "https://example.com")
	require.NoError(t, err)
	assert.Len(t, code, 6)

	link, err := svc.Get(ctx, "u1", code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.LongURL)
	assert.Equal(t, "u1", link.OwnerID)

	_, err = svc.Get(ctx, "u2", code)
	assert.ErrorIs(t, err, ErrForbidden)

	target, err := r.Resolve(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", target)

	require.NoError(t, svc.Delete(ctx, "u1", code))

	_, err = r.Resolve(ctx, code)
	assert.ErrorIs(t, err, resolver.ErrNotFound)
}

func TestLinkService_Scenario_EmptyURL(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	_, err := svc.Create(ctx, "u1", "")
	assert.ErrorIs(t, err, ErrInvalidURL)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func BenchmarkLinkService_Create(b *testing.B) {
	svc, _ := newTestService()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		svc.Create(ctx, "u1", "https://example.com/very/long/url/path")
	}
}

func BenchmarkLinkService_Get(b *testing.B) {
	svc, _ := newTestService()
	ctx := context.Background()
	code, _ := svc.Create(ctx, "u1", "https://example.com")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		svc.Get(ctx, "u1", code)
	}
}
