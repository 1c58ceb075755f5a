package model

import (
	"errors"
	"strings"
	"time"
)

// Asset represents one stored output artifact of a job. StoragePath is a pure
// function of owner, resolved folder path, job id, and filename, which is what
// makes webhook redelivery converge on a single row per output.
type Asset struct {
	ID        string    `json:"id"                  db:"id"`
	OwnerID   string    `json:"owner_id"            db:"owner_id"`
	Bucket    string    `json:"bucket"              db:"bucket"`
	Path      string    `json:"path"                db:"storage_path"`
	Filename  string    `json:"filename"            db:"filename"`
	MimeType  string    `json:"mime_type"           db:"mime_type"`
	ByteSize  int64     `json:"byte_size"           db:"byte_size"`
	FolderID  *string   `json:"folder_id,omitempty" db:"folder_id"`
	JobID     string    `json:"job_id"              db:"job_id"`
	Metadata  Metadata  `json:"metadata"            db:"metadata"`
	CreatedAt time.Time `json:"created_at"          db:"created_at"`
	UpdatedAt time.Time `json:"updated_at"          db:"updated_at"`
}

// UpsertAssetParams groups the fields persisted per asset. The upsert is keyed
// on (owner_id, storage_path); an existing row has its size, mime type, and
// metadata updated in place.
type UpsertAssetParams struct {
	OwnerID  string
	Bucket   string
	Path     string
	Filename string
	MimeType string
	ByteSize int64
	FolderID *string
	JobID    string
	Metadata Metadata
}

// Validate validates the UpsertAssetParams fields.
func (p *UpsertAssetParams) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return errors.New("owner id is required")
	}
	if strings.TrimSpace(p.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.TrimSpace(p.Path) == "" {
		return errors.New("storage path is required")
	}
	if strings.TrimSpace(p.JobID) == "" {
		return errors.New("job id is required")
	}
	return nil
}
