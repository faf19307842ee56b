package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikhailRaia/tinyu/internal/model"
	"github.com/MikhailRaia/tinyu/internal/storage"
)

func newTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "journal.jsonl")
	s, err := NewStorage(path)
	require.NoError(t, err)
	return s, path
}

func TestStorage_ReplaysJournal(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStorage(t)

	require.NoError(t, s.CreateUser(ctx, model.User{ID: "a1B", Email: "user1@example.com", Name: "Iron Man", PasswordHash: "hash"}))
	require.NoError(t, s.Insert(ctx, model.Link{ShortCode: "aaaaaa", LongURL: "https://a.com", OwnerID: "a1B"}))
	require.NoError(t, s.Insert(ctx, model.Link{ShortCode: "bbbbbb", LongURL: "https://b.com", OwnerID: "a1B"}))
	_, err := s.Update(ctx, "aaaaaa", func(link *model.Link) error {
		link.LongURL = "https://a.org"
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "bbbbbb", nil))

	reopened, err := NewStorage(path)
	require.NoError(t, err)

	link, err := reopened.Get(ctx, "aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, model.Link{ShortCode: "aaaaaa", LongURL: "https://a.org", OwnerID: "a1B"}, link)

	_, err = reopened.Get(ctx, "bbbbbb")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	user, err := reopened.UserByEmail(ctx, "user1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", user.PasswordHash)

	require.NoError(t, reopened.Insert(ctx, model.Link{ShortCode: "cccccc", LongURL: "https://c.com", OwnerID: "a1B"}))
	assert.Equal(t, int64(6), reopened.seq)
}

func TestStorage_RejectedMutationsAreNotJournaled(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStorage(t)

	require.NoError(t, s.Insert(ctx, model.Link{ShortCode: "aaaaaa", LongURL: "https://a.com", OwnerID: "u1"}))

	assert.ErrorIs(t, s.Insert(ctx, model.Link{ShortCode: "aaaaaa", LongURL: "https://x.com", OwnerID: "u2"}), storage.ErrCodeExists)

	rejected := errors.New("rejected")
	_, err := s.Update(ctx, "aaaaaa", func(link *model.Link) error { return rejected })
	assert.ErrorIs(t, err, rejected)

	assert.ErrorIs(t, s.Delete(ctx, "aaaaaa", func(model.Link) error { return rejected }), rejected)
	assert.ErrorIs(t, s.Delete(ctx, "missing", nil), storage.ErrNotFound)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, countLines(data))
}

func TestStorage_DuplicateUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage(t)

	require.NoError(t, s.CreateUser(ctx, model.User{ID: "a1B", Email: "user1@example.com"}))
	assert.ErrorIs(t, s.CreateUser(ctx, model.User{ID: "a1B", Email: "other@example.com"}), storage.ErrUserExists)
	assert.ErrorIs(t, s.CreateUser(ctx, model.User{ID: "zzz", Email: "user1@example.com"}), storage.ErrUserExists)
}

func TestStorage_CorruptJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0644))

	_, err := NewStorage(path)
	assert.Error(t, err)
}

func TestStorage_UnknownOperation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"seq":1,"op":"truncate"}`+"\n"), 0644))

	_, err := NewStorage(path)
	assert.Error(t, err)
}

func TestStorage_Ping(t *testing.T) {
	s, _ := newTestStorage(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
