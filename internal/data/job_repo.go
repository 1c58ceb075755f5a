package data

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/artstash/artstash-api/internal/core"
	"github.com/artstash/artstash-api/internal/domain/model"
	apperrors "github.com/artstash/artstash-api/internal/errors"
)

// JobRepo provides database operations for the job ledger.
//
// Status moves through the ledger with compare-and-set updates keyed on the
// previously read status, so concurrent webhook deliveries cannot clobber each
// other; the application never holds a lock across these calls.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// JobRepoConfig holds configuration options for the job repository.
type JobRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg JobRepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &JobRepo{DB: db, timeProvider: tp, logger: cfg.Logger}
}

const jobColumns = `
  id,
  external_id,
  owner_id,
  model,
  prompt,
  status,
  output,
  error_message,
  metadata,
  created_at,
  updated_at,
  completed_at
`

// Create inserts a new job in state queued. A duplicate external_id surfaces
// as a Conflict error from the jobs_external_id_key constraint.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid job")
	}

	meta := req.Metadata
	if len(meta) == 0 {
		meta = model.Metadata(`{}`)
	}

	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO jobs (external_id, owner_id, model, prompt, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+jobColumns,
		req.ExternalID, req.OwnerID, req.Model, req.Prompt,
		model.JobStatusQueued, []byte(meta), now)

	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}
	if r.logger != nil {
		r.logger.DebugContext(ctx, "job created",
			"id", job.ID, "external_id", job.ExternalID, "model", job.Model)
	}
	return job, nil
}

// GetByExternalID returns the job with the given provider correlation id.
func (r *JobRepo) GetByExternalID(ctx context.Context, externalID string) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE external_id = $1`, externalID)
	return scanJob(row)
}

// UpdateStatusCAS conditionally moves a job's status. The WHERE clause pins
// the previously read status; zero rows updated means either the job vanished
// or another delivery won the race, and the caller re-reads to tell the two
// apart. Returns (nil, nil) on such a miss.
func (r *JobRepo) UpdateStatusCAS(ctx context.Context, params core.UpdateJobStatusParams) (*model.Job, error) {
	meta := params.Metadata
	if len(meta) == 0 {
		meta = model.Metadata(`{}`)
	}

	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		UPDATE jobs
		SET status = $3,
		    output = COALESCE($4, output),
		    error_message = COALESCE($5, error_message),
		    metadata = metadata || $6,
		    updated_at = $7,
		    completed_at = CASE
		      WHEN $3 IN ('succeeded', 'failed') THEN $7
		      ELSE completed_at
		    END
		WHERE external_id = $1 AND status = $2
		RETURNING `+jobColumns,
		params.ExternalID, params.FromStatus, params.ToStatus,
		[]byte(params.Output), params.ErrorText, []byte(meta), now)

	job, err := scanJob(row)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// MergeMetadata merges a patch into the job's metadata without touching
// status, output, or error fields.
func (r *JobRepo) MergeMetadata(ctx context.Context, externalID string, patch model.Metadata) (*model.Job, error) {
	if len(patch) == 0 {
		patch = model.Metadata(`{}`)
	}

	row := r.DB.QueryRowContext(ctx, `
		UPDATE jobs
		SET metadata = metadata || $2,
		    updated_at = $3
		WHERE external_id = $1
		RETURNING `+jobColumns,
		externalID, []byte(patch), r.timeProvider.Now().UTC())
	return scanJob(row)
}

func scanJob(row *sql.Row) (*model.Job, error) {
	var (
		j      model.Job
		output []byte
		meta   []byte
	)
	err := row.Scan(
		&j.ID, &j.ExternalID, &j.OwnerID, &j.Model, &j.Prompt,
		&j.Status, &output, &j.ErrorText, &meta,
		&j.CreatedAt, &j.UpdatedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	j.Output = output
	j.Metadata = model.Metadata(meta)
	return &j, nil
}
