package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/artstash/artstash-api/internal/domain/model"
	apperrors "github.com/artstash/artstash-api/internal/errors"
)

// AssetRepo provides database operations for the asset catalog.
//
// The catalog is written exclusively through Upsert keyed on
// (owner_id, storage_path); because the storage path is a deterministic
// function of the job, redelivered webhook events converge on one row per
// output instead of accumulating duplicates.
type AssetRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// AssetRepoConfig holds configuration options for the asset repository.
type AssetRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// NewAssetRepo creates a new AssetRepo instance with the given database connection and configuration.
func NewAssetRepo(db *sql.DB, cfg AssetRepoConfig) *AssetRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &AssetRepo{DB: db, timeProvider: tp, logger: cfg.Logger}
}

const assetColumns = `
  id,
  owner_id,
  bucket,
  storage_path,
  filename,
  mime_type,
  byte_size,
  folder_id,
  job_id,
  metadata,
  created_at,
  updated_at
`

// Upsert inserts the asset row or, when a row already exists at the same
// (owner_id, storage_path), updates its size, mime type, and metadata in place.
func (r *AssetRepo) Upsert(ctx context.Context, params model.UpsertAssetParams) (*model.Asset, error) {
	if err := params.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid asset")
	}

	meta := params.Metadata
	if len(meta) == 0 {
		meta = model.Metadata(`{}`)
	}

	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO assets (owner_id, bucket, storage_path, filename, mime_type, byte_size, folder_id, job_id, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (owner_id, storage_path) DO UPDATE
		SET filename   = EXCLUDED.filename,
		    mime_type  = EXCLUDED.mime_type,
		    byte_size  = EXCLUDED.byte_size,
		    folder_id  = EXCLUDED.folder_id,
		    metadata   = EXCLUDED.metadata,
		    updated_at = EXCLUDED.updated_at
		RETURNING `+assetColumns,
		params.OwnerID, params.Bucket, params.Path, params.Filename,
		params.MimeType, params.ByteSize, params.FolderID, params.JobID,
		[]byte(meta), now)

	asset, err := scanAsset(row)
	if err != nil {
		return nil, err
	}
	if r.logger != nil {
		r.logger.DebugContext(ctx, "asset upserted",
			"id", asset.ID, "owner", asset.OwnerID, "path", asset.Path)
	}
	return asset, nil
}

// ListByJobID returns all catalog rows produced by a job, ordered by path.
func (r *AssetRepo) ListByJobID(ctx context.Context, jobID string) ([]*model.Asset, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE job_id = $1
		ORDER BY storage_path`, jobID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var assets []*model.Asset
	for rows.Next() {
		var (
			a    model.Asset
			meta []byte
		)
		scanErr := rows.Scan(
			&a.ID, &a.OwnerID, &a.Bucket, &a.Path, &a.Filename,
			&a.MimeType, &a.ByteSize, &a.FolderID, &a.JobID, &meta,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if scanErr != nil {
			return nil, apperrors.MapDBError(scanErr)
		}
		a.Metadata = model.Metadata(meta)
		assets = append(assets, &a)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperrors.MapDBError(rowsErr)
	}
	return assets, nil
}

func scanAsset(row *sql.Row) (*model.Asset, error) {
	var (
		a    model.Asset
		meta []byte
	)
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Bucket, &a.Path, &a.Filename,
		&a.MimeType, &a.ByteSize, &a.FolderID, &a.JobID, &meta,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	a.Metadata = model.Metadata(meta)
	return &a, nil
}
