package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artstash/artstash-api/internal/core"
	"github.com/artstash/artstash-api/internal/domain/model"
	apperrors "github.com/artstash/artstash-api/internal/errors"
	"github.com/artstash/artstash-api/internal/observability/metrics"
	"github.com/artstash/artstash-api/internal/observability/statsd"
)

// transitionAttempts bounds the read/compare-and-set loop in Transition.
// Contention on a single job is limited to concurrent deliveries of the same
// event, so losing the race more than a couple of times means something is
// broken rather than busy.
const transitionAttempts = 5

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo    core.JobRepository // Required: job repository
	Metrics statsd.Sink        // Optional: transition metrics
	Logger  *slog.Logger       // Optional: structured logger
}

// JobService is the job ledger: it owns job records and enforces monotonic
// status transitions. Jobs move queued → processing → {succeeded, failed};
// once terminal, the status, output, and error fields are frozen while
// metadata stays amendable for redelivery counters.
type JobService struct {
	repo    core.JobRepository
	metrics statsd.Sink
	logger  *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) *JobService {
	if opts.Repo == nil {
		panic("JobRepository is required")
	}
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
	}
	return &JobService{repo: opts.Repo, metrics: opts.Metrics, logger: logger}
}

// Create records a new job in state queued. Reusing an external id is a
// validation error, not a silent merge.
func (s *JobService) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	job, err := s.repo.Create(ctx, req)
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.Validationf("job already exists for external id %q", req.ExternalID)
		}
		return nil, fmt.Errorf("create job: %w", err)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "job created",
			"id", job.ID, "external_id", job.ExternalID, "owner", job.OwnerID)
	}
	return job, nil
}

// Get returns the job for a correlation id when the caller owns it.
// A foreign owner gets Forbidden, distinct from NotFound.
func (s *JobService) Get(ctx context.Context, externalID, ownerID string) (*model.Job, error) {
	job, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job.OwnerID != ownerID {
		return nil, apperrors.Forbidden("job belongs to another owner")
	}
	return job, nil
}

// Find returns the job for a correlation id without an ownership check.
// It is for the trusted ingestion pipeline, not for request handlers.
func (s *JobService) Find(ctx context.Context, externalID string) (*model.Job, error) {
	job, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	return job, nil
}

// Transition applies a status transition for the job identified by
// params.ExternalID, tolerating duplicate and out-of-order deliveries:
//
//   - unknown job: NotFound is returned and the caller decides whether that
//     is fatal (it is not on the webhook path);
//   - job already terminal: status, output, and error stay untouched but the
//     metadata patch is still merged;
//   - illegal edge (e.g. processing after succeeded): silent no-op on status,
//     metadata patch still merged;
//   - legal edge: applied with a compare-and-set on the previously read
//     status, re-reading and re-evaluating on a lost race.
func (s *JobService) Transition(ctx context.Context, params model.TransitionParams) (*model.Job, error) {
	if err := params.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid transition")
	}

	for attempt := 0; attempt < transitionAttempts; attempt++ {
		job, err := s.repo.GetByExternalID(ctx, params.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("load job for transition: %w", err)
		}

		if job.Status.Terminal() || !job.Status.CanTransition(params.Status) {
			s.emitTransition(job.Status, params.Status, metrics.ResultNoop, nil, nil)
			return s.mergeOnly(ctx, job, params)
		}

		updated, err := s.repo.UpdateStatusCAS(ctx, core.UpdateJobStatusParams{
			ExternalID: params.ExternalID,
			FromStatus: job.Status,
			ToStatus:   params.Status,
			Output:     terminalOutput(params),
			ErrorText:  terminalError(params),
			Metadata:   params.MetadataPatch,
		})
		if err != nil {
			s.emitTransition(job.Status, params.Status, metrics.ResultError, err, nil)
			return nil, fmt.Errorf("transition job: %w", err)
		}
		if updated != nil {
			if s.logger != nil {
				s.logger.InfoContext(ctx, "job transitioned",
					"external_id", updated.ExternalID,
					"from", job.Status, "to", updated.Status)
			}
			s.emitTransition(job.Status, updated.Status, metrics.ResultSuccess, nil, updated)
			return updated, nil
		}
		// Lost the compare-and-set race; re-read and re-evaluate.
	}
	return nil, apperrors.Internal("job transition contention not resolved")
}

// mergeOnly merges the metadata patch without touching status. Used for
// duplicate terminal deliveries and illegal edges.
func (s *JobService) mergeOnly(ctx context.Context, job *model.Job, params model.TransitionParams) (*model.Job, error) {
	if s.logger != nil {
		s.logger.DebugContext(ctx, "ignoring status transition",
			"external_id", job.ExternalID,
			"current", job.Status, "requested", params.Status)
	}
	if len(params.MetadataPatch) == 0 {
		return job, nil
	}
	merged, err := s.repo.MergeMetadata(ctx, job.ExternalID, params.MetadataPatch)
	if err != nil {
		return nil, fmt.Errorf("merge job metadata: %w", err)
	}
	return merged, nil
}

// emitTransition reports one transition outcome. For jobs reaching a terminal
// state it also records the queue-to-terminal latency.
func (s *JobService) emitTransition(from, to model.JobStatus, result string, err error, finished *model.Job) {
	if s.metrics == nil {
		return
	}
	in := metrics.JobTransition{
		From:   string(from),
		To:     string(to),
		Result: result,
		Err:    err,
	}
	if finished != nil && finished.Status.Terminal() && !finished.CreatedAt.IsZero() {
		in.Completed = time.Since(finished.CreatedAt)
	}
	metrics.EmitJobTransition(s.metrics, in)
}

func terminalOutput(params model.TransitionParams) []byte {
	if params.Status.Terminal() {
		return params.Output
	}
	return nil
}

func terminalError(params model.TransitionParams) *string {
	if params.Status.Terminal() {
		return params.ErrorText
	}
	return nil
}
