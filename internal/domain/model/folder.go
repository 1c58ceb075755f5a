package model

import (
	"errors"
	"strings"
	"time"
)

// Folder represents one node of an owner's folder tree. Folders are created on
// first reference and are immutable afterwards; Path is the materialized chain
// of ancestor names and is derived from ParentID and Name, never edited alone.
type Folder struct {
	ID        string    `json:"id"                  db:"id"`
	OwnerID   string    `json:"owner_id"            db:"owner_id"`
	Name      string    `json:"name"                db:"name"`
	ParentID  *string   `json:"parent_id,omitempty" db:"parent_id"`
	Path      string    `json:"path"                db:"path"`
	CreatedAt time.Time `json:"created_at"          db:"created_at"`
}

// FolderRef references a folder either by id or by a raw path string.
// Exactly one of the two must be set.
type FolderRef struct {
	ID   string `json:"folder_id,omitempty"`
	Path string `json:"folder_path,omitempty"`
}

// IsZero returns true when neither reference is set.
func (r FolderRef) IsZero() bool {
	return strings.TrimSpace(r.ID) == "" && strings.TrimSpace(r.Path) == ""
}

// Validate checks that exactly one of ID and Path is set.
func (r FolderRef) Validate() error {
	id := strings.TrimSpace(r.ID)
	path := strings.TrimSpace(r.Path)
	if id != "" && path != "" {
		return errors.New("provide either folder_id or folder_path, not both")
	}
	if id == "" && path == "" {
		return errors.New("folder reference is required")
	}
	return nil
}

// CreateFolderParams groups parameters for inserting a single folder row.
type CreateFolderParams struct {
	OwnerID  string
	Name     string
	ParentID *string
	Path     string
}
