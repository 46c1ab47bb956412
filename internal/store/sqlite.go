package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"filedepot-backend/internal/domain"
)

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens the database file named by dsn, creating its directory.
// SQLite allows a single writer, so the pool holds one connection.
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	file, _, _ := strings.Cut(dsn, "?")
	if file != "" && file != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle for migrations.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db.DB
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) InsertFiles(ctx context.Context, records []*domain.FileRecord) error {
	query := `INSERT INTO files (` + fileColumns + `)
	          VALUES (:id, :app_source, :reference_obj_id, :path, :name, :original_name,
	                  :content_type, :file_length, :created_at, :updated_at)`

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, r := range records {
		stampNew(r, now)
		if _, err := tx.NamedExecContext(ctx, query, r); err != nil {
			return fmt.Errorf("insert file %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetFile(ctx context.Context, fileID uuid.UUID) (*domain.FileRecord, error) {
	r := &domain.FileRecord{}
	err := s.db.GetContext(ctx, r, `SELECT `+fileColumns+` FROM files WHERE id = ?`, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) FindFile(ctx context.Context, fileID uuid.UUID, referenceObjID string) (*domain.FileRecord, error) {
	r := &domain.FileRecord{}
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ? AND reference_obj_id = ?`
	err := s.db.GetContext(ctx, r, query, fileID, referenceObjID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) UpdateReference(ctx context.Context, params UpdateReferenceParams) (*domain.FileRecord, error) {
	r := &domain.FileRecord{}
	query := `UPDATE files
	          SET reference_obj_id = ?, path = ?, updated_at = ?
	          WHERE id = ? AND reference_obj_id = ?
	          RETURNING ` + fileColumns
	err := s.db.GetContext(ctx, r, query,
		params.ToReference, params.Path, time.Now().UTC(), params.FileID, params.FromReference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReferenceChanged
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
