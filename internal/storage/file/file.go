package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MikhailRaia/tinyu/internal/model"
	"github.com/MikhailRaia/tinyu/internal/storage"
	"github.com/MikhailRaia/tinyu/internal/storage/memory"
)

const (
	opPut    = "put"
	opDelete = "delete"
	opUser   = "user"
)

// record is one line of the journal.
type record struct {
	Seq          int64  `json:"seq"`
	Op           string `json:"op"`
	ShortCode    string `json:"short_code,omitempty"`
	LongURL      string `json:"long_url,omitempty"`
	OwnerID      string `json:"owner_id,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
}

// Storage keeps state in memory and appends every mutation to a JSON-lines
// journal that is replayed on start-up. Writes are serialized; reads are served
// from memory.
type Storage struct {
	*memory.Storage
	filePath string
	seq      int64
	mu       sync.Mutex
}

// NewStorage opens (or creates) the journal at filePath and replays it.
func NewStorage(filePath string) (*Storage, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s := &Storage{
		Storage:  memory.NewStorage(),
		filePath: filePath,
	}

	if err := s.loadFromFile(); err != nil {
		return nil, err
	}

	return s, nil
}

// Put stores the link, overwriting any record with the same code.
func (s *Storage) Put(ctx context.Context, link model.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendRecord(putRecord(link)); err != nil {
		return err
	}
	return s.Storage.Put(ctx, link)
}

// Insert stores the link unless its short code is taken.
func (s *Storage) Insert(ctx context.Context, link model.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Storage.Get(ctx, link.ShortCode); err == nil {
		return storage.ErrCodeExists
	}

	if err := s.appendRecord(putRecord(link)); err != nil {
		return err
	}
	return s.Storage.Insert(ctx, link)
}

// Update runs fn against the stored link and journals the result.
func (s *Storage) Update(ctx context.Context, shortCode string, fn func(link *model.Link) error) (model.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, err := s.Storage.Get(ctx, shortCode)
	if err != nil {
		return model.Link{}, err
	}

	if err := fn(&link); err != nil {
		return model.Link{}, err
	}
	link.ShortCode = shortCode

	if err := s.appendRecord(putRecord(link)); err != nil {
		return model.Link{}, err
	}
	if err := s.Storage.Put(ctx, link); err != nil {
		return model.Link{}, err
	}

	return link, nil
}

// Delete removes the link if check accepts it and journals the removal.
func (s *Storage) Delete(ctx context.Context, shortCode string, check func(link model.Link) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, err := s.Storage.Get(ctx, shortCode)
	if err != nil {
		return err
	}

	if check != nil {
		if err := check(link); err != nil {
			return err
		}
	}

	if err := s.appendRecord(record{Op: opDelete, ShortCode: shortCode}); err != nil {
		return err
	}
	return s.Storage.Delete(ctx, shortCode, nil)
}

// CreateUser registers a user and journals it.
func (s *Storage) CreateUser(ctx context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Storage.UserByID(ctx, user.ID); err == nil {
		return storage.ErrUserExists
	}
	if _, err := s.Storage.UserByEmail(ctx, user.Email); err == nil {
		return storage.ErrUserExists
	}

	rec := record{
		Op:           opUser,
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
	}
	if err := s.appendRecord(rec); err != nil {
		return err
	}
	return s.Storage.CreateUser(ctx, user)
}

// Ping checks that the journal is still writable.
func (s *Storage) Ping(_ context.Context) error {
	file, err := os.OpenFile(s.filePath, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("journal is not writable: %w", err)
	}
	return file.Close()
}

func putRecord(link model.Link) record {
	return record{
		Op:        opPut,
		ShortCode: link.ShortCode,
		LongURL:   link.LongURL,
		OwnerID:   link.OwnerID,
	}
}

func (s *Storage) loadFromFile() error {
	file, err := os.OpenFile(s.filePath, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	ctx := context.Background()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		if err := s.replay(ctx, rec); err != nil {
			return fmt.Errorf("failed to replay record %d: %w", rec.Seq, err)
		}

		if rec.Seq > s.seq {
			s.seq = rec.Seq
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	return nil
}

func (s *Storage) replay(ctx context.Context, rec record) error {
	switch rec.Op {
	case opPut:
		return s.Storage.Put(ctx, model.Link{
			ShortCode: rec.ShortCode,
			LongURL:   rec.LongURL,
			OwnerID:   rec.OwnerID,
		})
	case opDelete:
		err := s.Storage.Delete(ctx, rec.ShortCode, nil)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	case opUser:
		return s.Storage.CreateUser(ctx, model.User{
			ID:           rec.UserID,
			Email:        rec.Email,
			Name:         rec.Name,
			PasswordHash: rec.PasswordHash,
		})
	default:
		return fmt.Errorf("unknown operation %q", rec.Op)
	}
}

// appendRecord must be called with s.mu held.
func (s *Storage) appendRecord(rec record) error {
	s.seq++
	rec.Seq = s.seq

	file, err := os.OpenFile(s.filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file for writing: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}
