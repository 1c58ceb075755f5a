package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/artstash/artstash-api/internal/core"
	"github.com/artstash/artstash-api/internal/domain/model"
	apperrors "github.com/artstash/artstash-api/internal/errors"
)

// Metadata keys recorded on jobs so a completion event can be routed without
// re-reading the original request.
const (
	metaKeyRequestedFolderID   = "requested_folder_id"
	metaKeyRequestedFolderPath = "requested_folder_path"
	metaKeyResolvedFolderID    = "resolved_folder_id"
	metaKeyFolderPath          = "folder_path"
)

const deliveryCounterTTL = 24 * time.Hour

// GenerationConfig captures the pipeline's tunables.
type GenerationConfig struct {
	// OutputExpression optionally narrows output extraction to a JMESPath
	// expression evaluated against the provider payload.
	OutputExpression string
}

// GenerationRequest is a caller's request to start a generation.
type GenerationRequest struct {
	OwnerID    string
	Model      string
	Prompt     string
	Input      map[string]any
	FolderID   string
	FolderPath string
}

// Validate validates the GenerationRequest fields.
func (r *GenerationRequest) Validate() error {
	if r.OwnerID == "" {
		return apperrors.Validation("owner id is required")
	}
	if r.Model == "" {
		return apperrors.ValidationField("model", "model is required")
	}
	if r.FolderID != "" && r.FolderPath != "" {
		return apperrors.Validation("folder_id and folder_path are mutually exclusive")
	}
	return nil
}

// ProviderEvent is a normalized completion or progress event delivered by the
// provider webhook.
type ProviderEvent struct {
	ExternalID string
	Status     string
	Output     json.RawMessage
	ErrorText  string
}

// GenerationServiceOptions groups dependencies for GenerationService.
type GenerationServiceOptions struct {
	Jobs         *JobService          // Required: job ledger
	Folders      *FolderService       // Required: folder resolver
	Materializer *Materializer        // Required: artifact materializer
	Provider     core.Provider        // Required: generation provider
	Cache        core.CacheRepository // Optional: webhook delivery counters
	Config       GenerationConfig     // Optional: pipeline tunables
	Logger       *slog.Logger         // Optional: structured logger
}

// GenerationService is the ingestion pipeline. It accepts generation requests,
// records them in the ledger, and turns provider completion events into stored
// assets. Every step is idempotent so an at-least-once webhook contract never
// duplicates data.
type GenerationService struct {
	jobs         *JobService
	folders      *FolderService
	materializer *Materializer
	provider     core.Provider
	cache        core.CacheRepository
	config       GenerationConfig
	logger       *slog.Logger
}

// NewGenerationService constructs a new GenerationService.
func NewGenerationService(opts GenerationServiceOptions) *GenerationService {
	if opts.Jobs == nil {
		panic("JobService is required")
	}
	if opts.Folders == nil {
		panic("FolderService is required")
	}
	if opts.Materializer == nil {
		panic("Materializer is required")
	}
	if opts.Provider == nil {
		panic("Provider is required")
	}
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "generation_service")
	}
	return &GenerationService{
		jobs:         opts.Jobs,
		folders:      opts.Folders,
		materializer: opts.Materializer,
		provider:     opts.Provider,
		cache:        opts.Cache,
		config:       opts.Config,
		logger:       logger,
	}
}

// Create starts an asynchronous generation: the destination folder is resolved
// up front so a bad folder reference fails the request instead of the webhook,
// the provider prediction is created, and the job is recorded as queued under
// the provider's correlation id.
func (s *GenerationService) Create(ctx context.Context, req *GenerationRequest) (*model.Job, error) {
	folderMeta, err := s.resolveRequestFolder(ctx, req)
	if err != nil {
		return nil, err
	}

	prediction, err := s.provider.CreatePrediction(ctx, core.PredictionRequest{
		Model: req.Model,
		Input: s.providerInput(req),
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "create prediction")
	}

	return s.jobs.Create(ctx, &model.CreateJobRequest{
		OwnerID:    req.OwnerID,
		ExternalID: prediction.ID,
		Model:      req.Model,
		Prompt:     optionalString(req.Prompt),
		Metadata:   model.MetadataFromMap(folderMeta),
	})
}

// RunDirect executes a generation synchronously and materializes its outputs
// before returning. The job is recorded in the ledger first, under a locally
// generated correlation id, so the storage layout and catalog rows come out
// identical to the webhook path.
func (s *GenerationService) RunDirect(ctx context.Context, req *GenerationRequest) (*model.Job, []*model.Asset, error) {
	folderMeta, err := s.resolveRequestFolder(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	job, err := s.jobs.Create(ctx, &model.CreateJobRequest{
		OwnerID:    req.OwnerID,
		ExternalID: uuid.NewString(),
		Model:      req.Model,
		Prompt:     optionalString(req.Prompt),
		Metadata:   model.MetadataFromMap(folderMeta),
	})
	if err != nil {
		return nil, nil, err
	}

	output, err := s.provider.Run(ctx, core.PredictionRequest{
		Model: req.Model,
		Input: s.providerInput(req),
	})
	if err != nil {
		failed, ferr := s.markFailed(ctx, job.ExternalID, fmt.Sprintf("provider run failed: %v", err), 0)
		if ferr != nil {
			return nil, nil, ferr
		}
		return failed, nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "run prediction")
	}

	job, assets, err := s.ingestOutput(ctx, job, output, 0)
	if err != nil {
		return nil, nil, err
	}
	return job, assets, nil
}

// Get returns the caller's view of a job.
func (s *GenerationService) Get(ctx context.Context, externalID, ownerID string) (*model.Job, error) {
	return s.jobs.Get(ctx, externalID, ownerID)
}

// Assets lists the cataloged assets of a job owned by the caller.
func (s *GenerationService) Assets(ctx context.Context, externalID, ownerID string) ([]*model.Asset, error) {
	job, err := s.jobs.Get(ctx, externalID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.materializer.AssetsForJob(ctx, job.ID)
}

// HandleWebhook processes one provider delivery. Returning nil acknowledges
// the delivery; returning an error asks the provider to redeliver. Events for
// unknown jobs are acknowledged, since erroring would only make the provider
// retry something this service can never process.
func (s *GenerationService) HandleWebhook(ctx context.Context, event *ProviderEvent) error {
	if event.ExternalID == "" {
		return apperrors.Validation("event id is required")
	}

	status, ok := mapProviderStatus(event.Status)
	if !ok {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "ignoring unknown provider status",
				"external_id", event.ExternalID, "status", event.Status)
		}
		return nil
	}

	deliveries := s.countDelivery(ctx, event.ExternalID)

	job, err := s.jobs.Find(ctx, event.ExternalID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "acknowledging event for unknown job",
					"external_id", event.ExternalID, "status", event.Status)
			}
			return nil
		}
		return err
	}

	switch status {
	case model.JobStatusProcessing:
		_, err = s.jobs.Transition(ctx, model.TransitionParams{
			ExternalID:    event.ExternalID,
			Status:        model.JobStatusProcessing,
			MetadataPatch: deliveryPatch(deliveries),
		})
		return err
	case model.JobStatusFailed:
		_, err = s.jobs.Transition(ctx, model.TransitionParams{
			ExternalID:    event.ExternalID,
			Status:        model.JobStatusFailed,
			ErrorText:     optionalString(event.ErrorText),
			MetadataPatch: deliveryPatch(deliveries),
		})
		return err
	case model.JobStatusSucceeded:
		if job.Status.Terminal() {
			// Redelivery of a completed job: record the delivery, skip the work.
			_, err = s.jobs.Transition(ctx, model.TransitionParams{
				ExternalID:    event.ExternalID,
				Status:        status,
				MetadataPatch: deliveryPatch(deliveries),
			})
			return err
		}
		_, _, err = s.ingestOutput(ctx, job, event.Output, deliveries)
		return err
	default:
		return nil
	}
}

// ingestOutput runs the success half of the pipeline: extract the output
// URLs, resolve the destination folder recorded at submit time, materialize
// every output, and finalize the ledger entry with the outcome. The delivery
// count rides along so every finalize records it, like the other event paths.
func (s *GenerationService) ingestOutput(ctx context.Context, job *model.Job, output json.RawMessage, deliveries int64) (*model.Job, []*model.Asset, error) {
	urls, err := ExtractOutputURLs(output, s.config.OutputExpression)
	if err != nil {
		job, ferr := s.markFailed(ctx, job.ExternalID, fmt.Sprintf("unreadable output: %v", err), deliveries)
		return job, nil, ferr
	}
	if len(urls) == 0 {
		job, ferr := s.markFailed(ctx, job.ExternalID, "provider reported success with no outputs", deliveries)
		return job, nil, ferr
	}

	folderID, folderPath, err := s.jobFolder(ctx, job)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.materializer.Materialize(ctx, MaterializeParams{
		Job:        job,
		FolderID:   folderID,
		FolderPath: folderPath,
		URLs:       urls,
	})
	if err != nil {
		if !apperrors.IsUpstream(err) {
			return nil, nil, err
		}
		// Every output failed. That is a hard job failure, but the delivery
		// itself is done, so finalize and acknowledge.
		job, ferr := s.markFailed(ctx, job.ExternalID, err.Error(), deliveries)
		return job, nil, ferr
	}

	patch := map[string]any{
		"output_count": len(result.Assets),
	}
	if len(result.Failures) > 0 {
		patch["failed_outputs"] = result.Failures
	}
	if deliveries > 0 {
		patch["webhook_deliveries"] = deliveries
	}
	job, err = s.jobs.Transition(ctx, model.TransitionParams{
		ExternalID:    job.ExternalID,
		Status:        model.JobStatusSucceeded,
		Output:        output,
		MetadataPatch: model.MetadataFromMap(patch),
	})
	if err != nil {
		return nil, nil, err
	}
	return job, result.Assets, nil
}

// resolveRequestFolder resolves the requested destination, if any, and returns
// the metadata recorded on the job for webhook-time routing.
func (s *GenerationService) resolveRequestFolder(ctx context.Context, req *GenerationRequest) (map[string]any, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if req.FolderID == "" && req.FolderPath == "" {
		return meta, nil
	}

	ref := model.FolderRef{ID: req.FolderID, Path: req.FolderPath}
	folder, err := s.folders.Resolve(ctx, req.OwnerID, ref)
	if err != nil {
		return nil, err
	}

	if req.FolderID != "" {
		meta[metaKeyRequestedFolderID] = req.FolderID
	}
	if req.FolderPath != "" {
		meta[metaKeyRequestedFolderPath] = req.FolderPath
	}
	meta[metaKeyResolvedFolderID] = folder.ID
	meta[metaKeyFolderPath] = folder.Path
	return meta, nil
}

// jobFolder re-resolves the destination recorded on the job. Folders are
// never deleted, so a recorded id resolving to NotFound means corrupted
// metadata and the delivery should be retried after investigation.
func (s *GenerationService) jobFolder(ctx context.Context, job *model.Job) (*string, string, error) {
	folderID, ok := job.Metadata.StringValue(metaKeyResolvedFolderID)
	if !ok {
		return nil, "", nil
	}
	path, err := s.folders.PathOf(ctx, job.OwnerID, folderID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve job folder %s: %w", folderID, err)
	}
	return &folderID, path, nil
}

func (s *GenerationService) markFailed(ctx context.Context, externalID, reason string, deliveries int64) (*model.Job, error) {
	return s.jobs.Transition(ctx, model.TransitionParams{
		ExternalID:    externalID,
		Status:        model.JobStatusFailed,
		ErrorText:     &reason,
		MetadataPatch: deliveryPatch(deliveries),
	})
}

// countDelivery bumps the best-effort per-job delivery counter. Counter
// failures are logged and swallowed; webhook handling never depends on the
// cache being up.
func (s *GenerationService) countDelivery(ctx context.Context, externalID string) int64 {
	if s.cache == nil {
		return 0
	}
	count, err := s.cache.Increment(ctx, "webhook:deliveries:"+externalID, deliveryCounterTTL)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "delivery counter unavailable",
				"external_id", externalID, "error", err)
		}
		return 0
	}
	return count
}

func (s *GenerationService) providerInput(req *GenerationRequest) map[string]any {
	input := map[string]any{}
	for k, v := range req.Input {
		input[k] = v
	}
	if req.Prompt != "" {
		input["prompt"] = req.Prompt
	}
	return input
}

func deliveryPatch(deliveries int64) model.Metadata {
	if deliveries <= 0 {
		return nil
	}
	return model.MetadataFromMap(map[string]any{"webhook_deliveries": deliveries})
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// mapProviderStatus translates a provider status string to the ledger's state
// machine. Unknown statuses are skipped by the caller.
func mapProviderStatus(status string) (model.JobStatus, bool) {
	switch status {
	case "starting", "processing":
		return model.JobStatusProcessing, true
	case "succeeded", "completed":
		return model.JobStatusSucceeded, true
	case "failed", "canceled":
		return model.JobStatusFailed, true
	default:
		return "", false
	}
}
