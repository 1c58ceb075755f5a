// Package devseed populates a development database with a small folder tree
// and a finished sample job so the API has something to serve right away.
// It is only ever invoked in dev mode and every step is idempotent.
package devseed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artstash/artstash-api/internal/domain/model"
	apperrors "github.com/artstash/artstash-api/internal/errors"
	"github.com/artstash/artstash-api/internal/service"
)

// DevOwnerID matches the subject the dev token verifier hands out for the
// token "dev-user", so seeded data is visible without real credentials.
const DevOwnerID = "dev-user"

var seedFolderPaths = []string{
	"art/cats",
	"art/landscapes",
	"experiments",
}

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Folders *service.FolderService
	Jobs    *service.JobService
}

// Run seeds the development folder tree and a sample completed job.
// Individual failures are logged and counted rather than aborting the run.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if svcs.Folders == nil || svcs.Jobs == nil {
		return fmt.Errorf("devseed: folder and job services are required")
	}

	failures := 0
	for _, path := range seedFolderPaths {
		if _, err := svcs.Folders.Resolve(ctx, DevOwnerID, model.FolderRef{Path: path}); err != nil {
			failures++
			if logger != nil {
				logger.WarnContext(ctx, "seed folder failed", "path", path, "error", err)
			}
		}
	}

	if err := seedSampleJob(ctx, svcs.Jobs, logger); err != nil {
		failures++
		if logger != nil {
			logger.WarnContext(ctx, "seed sample job failed", "error", err)
		}
	}

	if logger != nil {
		logger.InfoContext(ctx, "development seeding finished",
			"owner", DevOwnerID, "failures", failures)
	}
	return nil
}

// seedSampleJob records one already-failed job so the poll endpoint and the
// terminal-state handling have data to show in a fresh database. Re-running
// against an existing seed is a no-op.
func seedSampleJob(ctx context.Context, jobs *service.JobService, logger *slog.Logger) error {
	const externalID = "dev-sample-job"

	prompt := "a watercolor cat"
	_, err := jobs.Create(ctx, &model.CreateJobRequest{
		OwnerID:    DevOwnerID,
		ExternalID: externalID,
		Model:      "dev/sample-model",
		Prompt:     &prompt,
		Metadata:   model.MetadataFromMap(map[string]any{"seeded": true}),
	})
	if err != nil {
		if apperrors.IsValidation(err) {
			// Already seeded.
			return nil
		}
		return err
	}

	reason := "seeded sample, never ran"
	if _, err := jobs.Transition(ctx, model.TransitionParams{
		ExternalID: externalID,
		Status:     model.JobStatusFailed,
		ErrorText:  &reason,
	}); err != nil {
		return err
	}

	if logger != nil {
		logger.InfoContext(ctx, "seeded sample job", "external_id", externalID)
	}
	return nil
}
