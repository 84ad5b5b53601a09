package offline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	apperrors "github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"

	_ "modernc.org/sqlite"
)

const slotSchema = `CREATE TABLE IF NOT EXISTS kiosk_slot (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteStore keeps the slot in a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

func OpenSQLiteStore(path, key string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open kiosk store: %w", err)
	}

	store, err := NewSQLiteStore(db, key)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func NewSQLiteStore(db *sql.DB, key string) (*SQLiteStore, error) {
	if key == "" {
		key = DefaultKey
	}
	if _, err := db.Exec(slotSchema); err != nil {
		return nil, fmt.Errorf("failed to create kiosk_slot table: %w", err)
	}
	return &SQLiteStore{db: db, key: key}, nil
}

func (s *SQLiteStore) Read(ctx context.Context) ([]model.Submission, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kiosk_slot WHERE key = ?`, s.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Submission{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return decodeQueue([]byte(raw))
}

func (s *SQLiteStore) Write(ctx context.Context, queue []model.Submission) error {
	raw, err := encodeQueue(queue)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kiosk_slot (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		s.key, string(raw))
	if err != nil {
		return fmt.Errorf("failed to write kiosk slot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
