package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/artstash/artstash-api/internal/core"
	"github.com/artstash/artstash-api/internal/domain/model"
	apperrors "github.com/artstash/artstash-api/internal/errors"
)

const defaultMaterializeFanout = 4

// MaterializerOptions groups dependencies for Materializer.
type MaterializerOptions struct {
	Storage core.ObjectStorage   // Required: object store writer
	Assets  core.AssetRepository // Required: asset catalog
	Loader  core.Downloader      // Required: output downloader
	Bucket  string               // Required: destination bucket
	Fanout  int                  // Optional: concurrent downloads, default 4
	Logger  *slog.Logger         // Optional: structured logger
}

// OutputFailure records one output URL that could not be materialized.
type OutputFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// MaterializeResult is the per-output outcome of one Materialize call.
type MaterializeResult struct {
	Assets   []*model.Asset
	Failures []OutputFailure
}

// MaterializeParams describes the job whose outputs are being persisted.
type MaterializeParams struct {
	Job        *model.Job
	FolderID   *string
	FolderPath string
	URLs       []string
}

// Materializer downloads provider outputs and persists them as owned assets:
// bytes in the object store, one catalog row per output. Storage paths are a
// pure function of (owner, folder path, job id, filename) so a redelivered
// event overwrites the same objects and converges on the same rows.
type Materializer struct {
	storage core.ObjectStorage
	assets  core.AssetRepository
	loader  core.Downloader
	bucket  string
	fanout  int
	logger  *slog.Logger
}

// NewMaterializer constructs a new Materializer.
func NewMaterializer(opts MaterializerOptions) *Materializer {
	if opts.Storage == nil {
		panic("ObjectStorage is required")
	}
	if opts.Assets == nil {
		panic("AssetRepository is required")
	}
	if opts.Loader == nil {
		panic("Downloader is required")
	}
	if opts.Bucket == "" {
		panic("bucket is required")
	}
	fanout := opts.Fanout
	if fanout <= 0 {
		fanout = defaultMaterializeFanout
	}
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "materializer")
	}
	return &Materializer{
		storage: opts.Storage,
		assets:  opts.Assets,
		loader:  opts.Loader,
		bucket:  opts.Bucket,
		fanout:  fanout,
		logger:  logger,
	}
}

// materializeOutcome is the per-URL result collected by the worker group.
type materializeOutcome struct {
	asset   *model.Asset
	failure *OutputFailure
	fatal   error
}

// Materialize persists every output URL of a finished job. Download and
// storage-write failures are per-output and reported in the result; only a
// catalog write failure is fatal, because then the store and the catalog
// disagree and a retry is the only way back to consistency.
//
// The error return distinguishes three cases:
//   - (result, nil): at least one output was persisted;
//   - (result, Upstream error): every output failed, caller marks the job failed;
//   - (nil, error): persistence itself failed, caller should let the
//     delivery be retried.
func (m *Materializer) Materialize(ctx context.Context, params MaterializeParams) (*MaterializeResult, error) {
	if params.Job == nil {
		return nil, apperrors.Validation("job is required")
	}
	if len(params.URLs) == 0 {
		return nil, apperrors.Validation("no output urls to materialize")
	}

	outcomes := make([]materializeOutcome, len(params.URLs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.fanout)
	for i, rawURL := range params.URLs {
		g.Go(func() error {
			outcomes[i] = m.materializeOne(gctx, params, i, rawURL)
			if outcomes[i].fatal != nil {
				return outcomes[i].fatal
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("materialize outputs for job %s: %w", params.Job.ExternalID, err)
	}

	result := &MaterializeResult{}
	for _, o := range outcomes {
		if o.asset != nil {
			result.Assets = append(result.Assets, o.asset)
		}
		if o.failure != nil {
			result.Failures = append(result.Failures, *o.failure)
		}
	}
	if len(result.Assets) == 0 {
		return result, apperrors.Upstreamf("all %d outputs failed to materialize", len(result.Failures))
	}
	return result, nil
}

// AssetsForJob lists the cataloged assets of one job.
func (m *Materializer) AssetsForJob(ctx context.Context, jobID string) ([]*model.Asset, error) {
	return m.assets.ListByJobID(ctx, jobID)
}

func (m *Materializer) materializeOne(ctx context.Context, params MaterializeParams, idx int, rawURL string) materializeOutcome {
	job := params.Job

	dl, err := m.loader.Download(ctx, rawURL)
	if err != nil {
		if m.logger != nil {
			m.logger.WarnContext(ctx, "output download failed",
				"job", job.ExternalID, "url", rawURL, "error", err)
		}
		return materializeOutcome{failure: &OutputFailure{URL: rawURL, Reason: err.Error()}}
	}

	filename := OutputFilename(idx, rawURL)
	storagePath := StoragePath(job.OwnerID, params.FolderPath, job.ExternalID, filename)

	if err := m.storage.Put(ctx, core.PutObjectParams{
		Bucket:      m.bucket,
		Path:        storagePath,
		ContentType: dl.ContentType,
		Body:        dl.Body,
	}); err != nil {
		if m.logger != nil {
			m.logger.WarnContext(ctx, "object store write failed",
				"job", job.ExternalID, "path", storagePath, "error", err)
		}
		return materializeOutcome{failure: &OutputFailure{URL: rawURL, Reason: err.Error()}}
	}

	asset, err := m.assets.Upsert(ctx, model.UpsertAssetParams{
		OwnerID:  job.OwnerID,
		Bucket:   m.bucket,
		Path:     storagePath,
		Filename: filename,
		MimeType: dl.ContentType,
		ByteSize: int64(len(dl.Body)),
		FolderID: params.FolderID,
		JobID:    job.ID,
		Metadata: provenanceMetadata(job, params.FolderPath, rawURL),
	})
	if err != nil {
		// The object is in the store but not in the catalog. Let the whole
		// delivery be retried rather than leave the two out of sync.
		return materializeOutcome{fatal: fmt.Errorf("catalog asset %s: %w", storagePath, err)}
	}

	if m.logger != nil {
		m.logger.InfoContext(ctx, "output materialized",
			"job", job.ExternalID, "path", storagePath, "bytes", asset.ByteSize)
	}
	return materializeOutcome{asset: asset}
}

func provenanceMetadata(job *model.Job, folderPath, sourceURL string) model.Metadata {
	values := map[string]any{
		"source":       "generation",
		"job_id":       job.ID,
		"external_id":  job.ExternalID,
		"external_url": sourceURL,
	}
	if folderPath != "" {
		values["folder_path"] = folderPath
	}
	if job.Prompt != nil && *job.Prompt != "" {
		values["prompt"] = *job.Prompt
	}
	return model.MetadataFromMap(values)
}

// StoragePath builds the deterministic object key for one job output:
// <owner>/[<folder-path>/]<job-external-id>/<filename>.
func StoragePath(ownerID, folderPath, externalID, filename string) string {
	parts := []string{ownerID}
	if folderPath != "" {
		parts = append(parts, folderPath)
	}
	parts = append(parts, externalID, filename)
	return strings.Join(parts, "/")
}

// OutputFilename names the idx-th output of a job. Names are index-based
// rather than taken from the URL basename: providers serve different outputs
// under identical basenames, and each output must keep its own storage path.
// The extension is carried over from the URL when it has one, ".png" otherwise.
func OutputFilename(idx int, rawURL string) string {
	ext := ".png"
	if u, err := url.Parse(rawURL); err == nil {
		if e := path.Ext(path.Base(u.Path)); e != "" && e != "." {
			ext = e
		}
	}
	return fmt.Sprintf("output_%d%s", idx, ext)
}
