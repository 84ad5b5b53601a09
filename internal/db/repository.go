package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	apperrors "github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

// Repository stores feedback and import bookkeeping. InsertFeedback reports
// duplicate=true when a record with the same client id was already stored.
type Repository interface {
	InsertFeedback(ctx context.Context, feedback *model.Feedback) (duplicate bool, err error)
	InsertFeedbackBatch(ctx context.Context, feedback []*model.Feedback) error
	ListFeedback(ctx context.Context) ([]model.Feedback, error)
	CreateImport(ctx context.Context, file *model.ImportFile) error
	GetImport(ctx context.Context, id string) (*model.ImportFile, error)
	UpdateImportStatus(ctx context.Context, id string, status model.ImportStatus, imported int, errorMessage *string) error
}

// SQLRepository implements Repository on MySQL or SQLite.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS feedback (
		id           VARCHAR(36) PRIMARY KEY,
		client_id    BIGINT NULL,
		source       VARCHAR(16) NOT NULL,
		food         TINYINT NOT NULL,
		stay         TINYINT NOT NULL,
		conference   TINYINT NOT NULL,
		campus       TINYINT NOT NULL,
		activities   TINYINT NOT NULL DEFAULT 0,
		comments     VARCHAR(1000) NOT NULL DEFAULT '',
		submitted_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_feedback_client_id (client_id),
		KEY idx_feedback_submitted_at (submitted_at)
	) DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS feedback_imports (
		id            VARCHAR(36) PRIMARY KEY,
		s3_path       VARCHAR(512) NOT NULL,
		status        VARCHAR(16) NOT NULL,
		imported      INT NOT NULL DEFAULT 0,
		error_message TEXT NULL,
		created_at    DATETIME(6) NOT NULL,
		updated_at    DATETIME(6) NOT NULL
	) DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS feedback (
		id           TEXT PRIMARY KEY,
		client_id    INTEGER NULL UNIQUE,
		source       TEXT NOT NULL,
		food         INTEGER NOT NULL,
		stay         INTEGER NOT NULL,
		conference   INTEGER NOT NULL,
		campus       INTEGER NOT NULL,
		activities   INTEGER NOT NULL DEFAULT 0,
		comments     TEXT NOT NULL DEFAULT '',
		submitted_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_submitted_at ON feedback(submitted_at)`,
	`CREATE TABLE IF NOT EXISTS feedback_imports (
		id            TEXT PRIMARY KEY,
		s3_path       TEXT NOT NULL,
		status        TEXT NOT NULL,
		imported      INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NULL,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	)`,
}

func (r *SQLRepository) CreateSchema(ctx context.Context) error {
	schema := sqliteSchema
	if r.dialect == DialectMySQL {
		schema = mysqlSchema
	}

	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (r *SQLRepository) insertIgnore() string {
	if r.dialect == DialectMySQL {
		return "INSERT IGNORE INTO"
	}
	return "INSERT OR IGNORE INTO"
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLRepository) insertFeedback(ctx context.Context, ex execer, f *model.Feedback) (bool, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.SubmittedAt.IsZero() {
		f.SubmittedAt = time.Now()
	}
	f.SubmittedAt = f.SubmittedAt.UTC()

	var clientID sql.NullInt64
	if f.ClientID != 0 {
		clientID = sql.NullInt64{Int64: f.ClientID, Valid: true}
	}

	query := r.insertIgnore() + ` feedback (id, client_id, source, food, stay, conference, campus, activities, comments, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := ex.ExecContext(ctx, query, f.ID, clientID, string(f.Source), f.Food, f.Stay,
		f.Conference, f.Campus, f.Activities, f.Comments, f.SubmittedAt)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 0, nil
}

func (r *SQLRepository) InsertFeedback(ctx context.Context, f *model.Feedback) (bool, error) {
	return r.insertFeedback(ctx, r.db, f)
}

func (r *SQLRepository) InsertFeedbackBatch(ctx context.Context, feedback []*model.Feedback) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, f := range feedback {
		if _, err := r.insertFeedback(ctx, tx, f); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SQLRepository) ListFeedback(ctx context.Context) ([]model.Feedback, error) {
	query := `SELECT id, client_id, source, food, stay, conference, campus, activities, comments, submitted_at
			  FROM feedback ORDER BY submitted_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feedback := []model.Feedback{}
	for rows.Next() {
		var (
			f        model.Feedback
			clientID sql.NullInt64
			source   string
		)
		err := rows.Scan(&f.ID, &clientID, &source, &f.Food, &f.Stay, &f.Conference,
			&f.Campus, &f.Activities, &f.Comments, &f.SubmittedAt)
		if err != nil {
			return nil, err
		}
		f.ClientID = clientID.Int64
		f.Source = model.Source(source)
		feedback = append(feedback, f)
	}

	return feedback, rows.Err()
}

func (r *SQLRepository) CreateImport(ctx context.Context, file *model.ImportFile) error {
	now := time.Now().UTC()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	file.UpdatedAt = now

	query := `INSERT INTO feedback_imports (id, s3_path, status, imported, error_message, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, file.ID, file.S3Path, string(file.Status), file.Imported,
		file.ErrorMessage, file.CreatedAt, file.UpdatedAt)
	return err
}

func (r *SQLRepository) GetImport(ctx context.Context, id string) (*model.ImportFile, error) {
	query := `SELECT id, s3_path, status, imported, error_message, created_at, updated_at FROM feedback_imports WHERE id = ?`

	var (
		file   model.ImportFile
		status string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&file.ID, &file.S3Path, &status, &file.Imported,
		&file.ErrorMessage, &file.CreatedAt, &file.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrImportNotFound
	}
	if err != nil {
		return nil, err
	}
	file.Status = model.ImportStatus(status)

	return &file, nil
}

func (r *SQLRepository) UpdateImportStatus(ctx context.Context, id string, status model.ImportStatus, imported int, errorMessage *string) error {
	query := `UPDATE feedback_imports SET status = ?, imported = ?, error_message = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(status), imported, errorMessage, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.ErrImportNotFound
	}
	return nil
}
