package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/artstash/artstash-api/internal/domain/model"
)

// This file contains repository and gateway interface definitions (ports in
// hexagonal architecture). Service implementations depend on these contracts,
// not on the concrete data or adapter packages.

// FindChildParams groups parameters for FolderRepository.FindChild.
type FindChildParams struct {
	OwnerID  string
	ParentID *string
	Name     string
}

// FolderRepository defines the interface for folder tree data operations.
type FolderRepository interface {
	// GetByID returns a folder row regardless of owner; ownership checks
	// happen in the service layer so Forbidden and NotFound stay distinct.
	GetByID(ctx context.Context, id string) (*model.Folder, error)
	// FindChild looks up a child by (owner, parent, name). ParentID nil means
	// the root level. Returns NotFound when no such child exists.
	FindChild(ctx context.Context, params FindChildParams) (*model.Folder, error)
	// Create inserts a folder row. A concurrent creation of the same
	// (owner, parent, name) surfaces as a Conflict error.
	Create(ctx context.Context, params model.CreateFolderParams) (*model.Folder, error)
}

// UpdateJobStatusParams groups parameters for JobRepository.UpdateStatusCAS.
type UpdateJobStatusParams struct {
	ExternalID string
	// FromStatus is the status observed before the update; the update applies
	// only while the stored status still matches (compare-and-set).
	FromStatus model.JobStatus
	ToStatus   model.JobStatus
	Output     json.RawMessage
	ErrorText  *string
	Metadata   model.Metadata
}

// JobRepository defines the interface for job ledger data operations.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.Job, error)
	// UpdateStatusCAS conditionally updates a job's status. It returns
	// (nil, nil) when no row matched the (external_id, from_status) pair;
	// the caller re-reads to distinguish a missing job from a lost race.
	UpdateStatusCAS(ctx context.Context, params UpdateJobStatusParams) (*model.Job, error)
	// MergeMetadata merges a patch into the job's metadata without touching
	// status, output, or error fields.
	MergeMetadata(ctx context.Context, externalID string, patch model.Metadata) (*model.Job, error)
}

// AssetRepository defines the interface for asset catalog data operations.
type AssetRepository interface {
	// Upsert inserts or updates the asset row keyed by (owner_id, storage_path).
	Upsert(ctx context.Context, params model.UpsertAssetParams) (*model.Asset, error)
	ListByJobID(ctx context.Context, jobID string) ([]*model.Asset, error)
}

// PutObjectParams groups parameters for ObjectStorage.Put.
type PutObjectParams struct {
	Bucket      string
	Path        string
	ContentType string
	Body        []byte
}

// ObjectStorage writes artifact bytes to the object store. Put must be
// overwrite-safe: a repeated write to the same path replaces the object.
type ObjectStorage interface {
	Put(ctx context.Context, params PutObjectParams) error
}

// Download is the result of fetching a remote output artifact.
type Download struct {
	Body        []byte
	ContentType string
}

// Downloader fetches remote output bytes with bounded timeout and retries.
type Downloader interface {
	Download(ctx context.Context, url string) (*Download, error)
}

// PredictionRequest carries the provider-facing inputs of a generation call.
type PredictionRequest struct {
	Model string
	Input map[string]any
}

// Prediction is the provider's handle for an asynchronous generation.
type Prediction struct {
	ID     string
	Status string
}

// Provider is the external image-generation integration.
type Provider interface {
	// CreatePrediction starts an asynchronous generation whose completion is
	// delivered to the configured webhook.
	CreatePrediction(ctx context.Context, req PredictionRequest) (*Prediction, error)
	// Run executes a generation synchronously and returns the raw output.
	Run(ctx context.Context, req PredictionRequest) (json.RawMessage, error)
}

// CacheRepository provides best-effort counters for webhook redeliveries.
type CacheRepository interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
