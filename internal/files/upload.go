package files

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"filedepot-backend/internal/disk"
	"filedepot-backend/internal/domain"
)

const defaultContentType = "application/octet-stream"

// IncomingFile is one part of an upload batch.
type IncomingFile struct {
	OriginalName string
	ContentType  string
	Body         io.Reader
}

// Upload stores every file of the batch under the given owner and creates
// their records in a single transaction. An empty referenceObjID files the
// batch under the provisional reference.
func (s *Service) Upload(ctx context.Context, appSource, referenceObjID string, files []IncomingFile) ([]*domain.FileRecord, error) {
	records, err := s.upload(ctx, appSource, referenceObjID, files)
	uploadBatchesTotal.WithLabelValues(resultLabel(err)).Inc()
	return records, err
}

func (s *Service) upload(ctx context.Context, appSource, referenceObjID string, files []IncomingFile) ([]*domain.FileRecord, error) {
	if appSource == "" {
		return nil, missing("appSource")
	}
	if len(files) == 0 {
		return nil, missing("files")
	}
	if referenceObjID == "" {
		referenceObjID = s.cfg.ProvisionalReference
	}
	if err := disk.ValidateComponent(appSource); err != nil {
		return nil, invalid("appSource", err)
	}
	if err := disk.ValidateComponent(referenceObjID); err != nil {
		return nil, invalid("referenceObjId", err)
	}

	records := make([]*domain.FileRecord, 0, len(files))
	written := make([]string, 0, len(files))
	var total int64

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			s.logOrphans(s.resolver.Dir(appSource, referenceObjID), written, err)
			return nil, err
		}

		id := uuid.New()
		name := storedName(id, f.OriginalName)
		path := s.resolver.Resolve(appSource, referenceObjID, name)

		n, err := s.disk.WriteFile(path, f.Body)
		if err != nil {
			s.logOrphans(s.resolver.Dir(appSource, referenceObjID), written, err)
			return nil, fmt.Errorf("%w: store %q: %w", ErrIOFailure, f.OriginalName, err)
		}
		written = append(written, path)
		total += n

		records = append(records, &domain.FileRecord{
			ID:             id,
			AppSource:      appSource,
			ReferenceObjID: referenceObjID,
			Path:           path,
			Name:           name,
			OriginalName:   f.OriginalName,
			ContentType:    contentTypeFor(f.ContentType, f.OriginalName),
			FileLength:     n,
		})
	}

	if err := s.store.InsertFiles(context.WithoutCancel(ctx), records); err != nil {
		s.logOrphans(s.resolver.Dir(appSource, referenceObjID), written, err)
		return nil, fmt.Errorf("%w: create file records: %w", ErrIOFailure, err)
	}

	uploadedFilesTotal.Add(float64(len(records)))
	uploadedBytesTotal.Add(float64(total))
	s.logger.Info("files uploaded",
		slog.String("app_source", appSource),
		slog.String("reference_obj_id", referenceObjID),
		slog.Int("count", len(records)),
		slog.Int64("bytes", total),
	)
	return records, nil
}

// logOrphans reports bytes left on disk by a batch that was not recorded.
func (s *Service) logOrphans(dir string, paths []string, cause error) {
	if len(paths) == 0 {
		return
	}
	s.logger.Warn("upload failed, stored bytes left without records",
		slog.String("dir", dir),
		slog.Any("paths", paths),
		slog.String("error", cause.Error()),
	)
}

// storedName derives the on-disk name from the record id and the extension of
// the client's file name.
func storedName(id uuid.UUID, originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	name := id.String() + ext
	if disk.ValidateComponent(name) != nil {
		return id.String()
	}
	return name
}

// contentTypeFor prefers the declared type, then the extension.
func contentTypeFor(declared, originalName string) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	if ext := filepath.Ext(originalName); ext != "" {
		if ct := mime.TypeByExtension(strings.ToLower(ext)); ct != "" {
			return ct
		}
	}
	return defaultContentType
}
