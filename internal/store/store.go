package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"filedepot-backend/internal/domain"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Store defines persistence behavior for file records.
type Store interface {
	// InsertFiles creates all records in one transaction: either every record
	// is stored or none is.
	InsertFiles(ctx context.Context, records []*domain.FileRecord) error
	GetFile(ctx context.Context, fileID uuid.UUID) (*domain.FileRecord, error)
	// FindFile matches on both the id and the reference.
	FindFile(ctx context.Context, fileID uuid.UUID, referenceObjID string) (*domain.FileRecord, error)
	// UpdateReference moves a record to a new reference and path, provided it
	// still carries params.FromReference. Otherwise ErrReferenceChanged.
	UpdateReference(ctx context.Context, params UpdateReferenceParams) (*domain.FileRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

// UpdateReferenceParams describes a conditional re-parenting of one record.
type UpdateReferenceParams struct {
	FileID        uuid.UUID
	FromReference string
	ToReference   string
	Path          string
}

// Open connects to the configured database and applies migrations.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (Store, error) {
	switch driver {
	case DriverPostgres:
		if err := MigratePostgres(dsn, logger); err != nil {
			return nil, err
		}
		return NewPostgresStore(ctx, dsn)
	case DriverSQLite:
		s, err := NewSQLiteStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := MigrateSQLite(s.DB(), logger); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}
