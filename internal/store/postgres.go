package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"filedepot-backend/internal/domain"
)

const fileColumns = `id, app_source, reference_obj_id, path, name, original_name,
	content_type, file_length, created_at, updated_at`

// PostgresStore implements Store using a PostgreSQL database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database using the provided connection string.
func NewPostgresStore(ctx context.Context, conn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(conn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) InsertFiles(ctx context.Context, records []*domain.FileRecord) error {
	query := `
		INSERT INTO files (` + fileColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	for _, r := range records {
		stampNew(r, now)
		if _, err := tx.Exec(ctx, query,
			r.ID, r.AppSource, r.ReferenceObjID, r.Path, r.Name, r.OriginalName,
			r.ContentType, r.FileLength, r.CreatedAt, r.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert file %s: %w", r.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetFile(ctx context.Context, fileID uuid.UUID) (*domain.FileRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, fileID)
	return scanFile(row, ErrFileNotFound)
}

func (s *PostgresStore) FindFile(ctx context.Context, fileID uuid.UUID, referenceObjID string) (*domain.FileRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+fileColumns+`
		FROM files
		WHERE id = $1 AND reference_obj_id = $2
	`, fileID, referenceObjID)
	return scanFile(row, ErrFileNotFound)
}

func (s *PostgresStore) UpdateReference(ctx context.Context, params UpdateReferenceParams) (*domain.FileRecord, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE files
		SET reference_obj_id = $3, path = $4, updated_at = now()
		WHERE id = $1 AND reference_obj_id = $2
		RETURNING `+fileColumns,
		params.FileID, params.FromReference, params.ToReference, params.Path,
	)
	return scanFile(row, ErrReferenceChanged)
}

func scanFile(row pgx.Row, noRows error) (*domain.FileRecord, error) {
	var r domain.FileRecord
	err := row.Scan(
		&r.ID,
		&r.AppSource,
		&r.ReferenceObjID,
		&r.Path,
		&r.Name,
		&r.OriginalName,
		&r.ContentType,
		&r.FileLength,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, noRows
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func stampNew(r *domain.FileRecord, now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
}
