package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/MikhailRaia/tinyu/internal/model"
	"github.com/MikhailRaia/tinyu/internal/storage"
)

type Storage struct {
	pool *pgxpool.Pool
}

func NewStorage(ctx context.Context, dsn string) (*Storage, error) {
	if dsn == "" {
		return nil, errors.New("database connection string is empty")
	}

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Storage{
		pool: pool,
	}

	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(16) PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (LOWER(email))`,
		`CREATE TABLE IF NOT EXISTS links (
			short_code VARCHAR(32) PRIMARY KEY,
			long_url TEXT NOT NULL,
			owner_id VARCHAR(16) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_owner_id ON links (owner_id)`,
	}

	for _, q := range queries {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}

	return nil
}

func (s *Storage) Get(ctx context.Context, shortCode string) (model.Link, error) {
	link := model.Link{ShortCode: shortCode}
	err := s.pool.QueryRow(ctx,
		"SELECT long_url, owner_id FROM links WHERE short_code = $1", shortCode,
	).Scan(&link.LongURL, &link.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Link{}, storage.ErrNotFound
		}
		return model.Link{}, fmt.Errorf("error querying link: %w", err)
	}

	return link, nil
}

func (s *Storage) Put(ctx context.Context, link model.Link) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO links (short_code, long_url, owner_id) VALUES ($1, $2, $3)
		 ON CONFLICT (short_code) DO UPDATE SET long_url = EXCLUDED.long_url, owner_id = EXCLUDED.owner_id`,
		link.ShortCode, link.LongURL, link.OwnerID)
	if err != nil {
		return fmt.Errorf("error saving link: %w", err)
	}
	return nil
}

// Insert relies on the primary key to reject a taken short code.
func (s *Storage) Insert(ctx context.Context, link model.Link) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO links (short_code, long_url, owner_id) VALUES ($1, $2, $3)",
		link.ShortCode, link.LongURL, link.OwnerID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrCodeExists
		}
		return fmt.Errorf("error inserting link: %w", err)
	}
	return nil
}

// Update locks the row for the duration of fn.
func (s *Storage) Update(ctx context.Context, shortCode string, fn func(link *model.Link) error) (model.Link, error) {
	var updated model.Link

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		link, err := lockLink(ctx, tx, shortCode)
		if err != nil {
			return err
		}

		if err := fn(&link); err != nil {
			return err
		}
		link.ShortCode = shortCode

		_, err = tx.Exec(ctx,
			"UPDATE links SET long_url = $2, owner_id = $3 WHERE short_code = $1",
			link.ShortCode, link.LongURL, link.OwnerID)
		if err != nil {
			return fmt.Errorf("error updating link: %w", err)
		}

		updated = link
		return nil
	})
	if err != nil {
		return model.Link{}, err
	}

	return updated, nil
}

func (s *Storage) Delete(ctx context.Context, shortCode string, check func(link model.Link) error) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		link, err := lockLink(ctx, tx, shortCode)
		if err != nil {
			return err
		}

		if check != nil {
			if err := check(link); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, "DELETE FROM links WHERE short_code = $1", shortCode); err != nil {
			return fmt.Errorf("error deleting link: %w", err)
		}
		return nil
	})
}

func (s *Storage) AllByOwner(ctx context.Context, ownerID string) ([]model.Link, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT short_code, long_url, owner_id FROM links WHERE owner_id = $1", ownerID)
	if err != nil {
		return nil, fmt.Errorf("error querying links: %w", err)
	}
	defer rows.Close()

	result := make([]model.Link, 0)
	for rows.Next() {
		var link model.Link
		if err := rows.Scan(&link.ShortCode, &link.LongURL, &link.OwnerID); err != nil {
			return nil, fmt.Errorf("error scanning link: %w", err)
		}
		result = append(result, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return result, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM links").Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting links: %w", err)
	}
	return n, nil
}

func (s *Storage) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO users (id, email, name, password_hash) VALUES ($1, $2, $3, $4)",
		user.ID, user.Email, user.Name, user.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserExists
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

func (s *Storage) UserByID(ctx context.Context, id string) (model.User, error) {
	return s.queryUser(ctx, "SELECT id, email, name, password_hash FROM users WHERE id = $1", id)
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.queryUser(ctx, "SELECT id, email, name, password_hash FROM users WHERE LOWER(email) = LOWER($1)", email)
}

func (s *Storage) queryUser(ctx context.Context, query string, arg string) (model.User, error) {
	var user model.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, storage.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("error querying user: %w", err)
	}
	return user, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Storage) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Storage) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

func lockLink(ctx context.Context, tx pgx.Tx, shortCode string) (model.Link, error) {
	link := model.Link{ShortCode: shortCode}
	err := tx.QueryRow(ctx,
		"SELECT long_url, owner_id FROM links WHERE short_code = $1 FOR UPDATE", shortCode,
	).Scan(&link.LongURL, &link.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Link{}, storage.ErrNotFound
		}
		return model.Link{}, fmt.Errorf("error locking link: %w", err)
	}
	return link, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
