// Package data implements the Postgres-backed repositories of the artstash
// ingestion service.
package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/artstash/artstash-api/internal/core"
	"github.com/artstash/artstash-api/internal/domain/model"
	apperrors "github.com/artstash/artstash-api/internal/errors"
)

// FolderRepo provides database operations for the per-owner folder tree.
//
// Folder rows are never updated or deleted here; concurrency safety comes from
// the (owner_id, parent_id, name) uniqueness constraint. A losing writer gets
// a Conflict error and is expected to re-read the winner's row.
type FolderRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewFolderRepo creates a new FolderRepo with the given database connection.
func NewFolderRepo(db *sql.DB, logger *slog.Logger) *FolderRepo {
	return &FolderRepo{DB: db, logger: logger}
}

const folderColumns = `id, owner_id, name, parent_id, path, created_at`

// GetByID returns the folder row with the given id regardless of owner.
func (r *FolderRepo) GetByID(ctx context.Context, id string) (*model.Folder, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+folderColumns+`
		FROM folders
		WHERE id = $1`, id)
	return scanFolder(row)
}

// FindChild looks up a folder by (owner, parent, name). A nil ParentID selects
// the root level. IS NOT DISTINCT FROM makes the nil comparison index-friendly
// together with the NULLS NOT DISTINCT unique constraint.
func (r *FolderRepo) FindChild(ctx context.Context, params core.FindChildParams) (*model.Folder, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+folderColumns+`
		FROM folders
		WHERE owner_id = $1
		  AND parent_id IS NOT DISTINCT FROM $2
		  AND name = $3`,
		params.OwnerID, params.ParentID, params.Name)
	return scanFolder(row)
}

// Create inserts a folder row. Concurrent creation of the same
// (owner, parent, name) is surfaced as a Conflict error via MapDBError.
func (r *FolderRepo) Create(ctx context.Context, params model.CreateFolderParams) (*model.Folder, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO folders (owner_id, name, parent_id, path)
		VALUES ($1, $2, $3, $4)
		RETURNING `+folderColumns,
		params.OwnerID, params.Name, params.ParentID, params.Path)

	folder, err := scanFolder(row)
	if err != nil {
		return nil, err
	}
	if r.logger != nil {
		r.logger.DebugContext(ctx, "folder created",
			"id", folder.ID, "owner", folder.OwnerID, "path", folder.Path)
	}
	return folder, nil
}

func scanFolder(row *sql.Row) (*model.Folder, error) {
	var f model.Folder
	err := row.Scan(&f.ID, &f.OwnerID, &f.Name, &f.ParentID, &f.Path, &f.CreatedAt)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &f, nil
}
