package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProvisionalReference is the reference assigned to uploads whose owning object
// does not exist yet.
const ProvisionalReference = "temp"

// FileRecord is the persisted metadata of a stored file.
// Path always equals the resolved location of (AppSource, ReferenceObjID, Name).
type FileRecord struct {
	ID             uuid.UUID `json:"id" db:"id"`
	AppSource      string    `json:"appSource" db:"app_source"`
	ReferenceObjID string    `json:"referenceObjId" db:"reference_obj_id"`
	Path           string    `json:"path" db:"path"`
	Name           string    `json:"name" db:"name"`
	OriginalName   string    `json:"originalName" db:"original_name"`
	ContentType    string    `json:"contentType" db:"content_type"`
	FileLength     int64     `json:"fileLength" db:"file_length"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// ReferenceObj identifies the object that ultimately owns a file.
type ReferenceObj struct {
	ID string `json:"id"`
}

// IndexRequest is the payload of an indexing call.
type IndexRequest struct {
	ReferenceObj ReferenceObj `json:"referenceObj"`
}

// DetailsResponse wraps a record for the details endpoint.
type DetailsResponse struct {
	FileDetails *FileRecord `json:"fileDetails"`
}
