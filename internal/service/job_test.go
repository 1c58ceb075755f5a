package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/artstash/artstash-api/internal/core"
	"github.com/artstash/artstash-api/internal/domain/model"
	apperrors "github.com/artstash/artstash-api/internal/errors"
	"github.com/artstash/artstash-api/internal/mocks"
)

func newTestJobService(t *testing.T) (*JobService, *mocks.MockJobRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	svc := NewJobService(JobServiceOptions{Repo: repo})
	return svc, repo
}

func testJob(externalID, ownerID string, status model.JobStatus) *model.Job {
	return &model.Job{
		ID:         "job-" + externalID,
		ExternalID: externalID,
		OwnerID:    ownerID,
		Model:      "owner/model",
		Status:     status,
		Metadata:   model.Metadata(`{}`),
	}
}

func TestJobServiceCreate(t *testing.T) {
	t.Parallel()
	svc, repo := newTestJobService(t)

	req := &model.CreateJobRequest{OwnerID: "owner-1", ExternalID: "ext-1", Model: "owner/model"}
	want := testJob("ext-1", "owner-1", model.JobStatusQueued)
	repo.EXPECT().Create(gomock.Any(), req).Return(want, nil)

	got, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJobServiceCreateDuplicateExternalID(t *testing.T) {
	t.Parallel()
	svc, repo := newTestJobService(t)

	req := &model.CreateJobRequest{OwnerID: "owner-1", ExternalID: "ext-1", Model: "owner/model"}
	repo.EXPECT().Create(gomock.Any(), req).Return(nil, apperrors.Conflict("duplicate"))

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestJobServiceGetOwnerScoping(t *testing.T) {
	t.Parallel()
	svc, repo := newTestJobService(t)

	job := testJob("ext-1", "owner-1", model.JobStatusQueued)
	repo.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(job, nil).Times(2)

	got, err := svc.Get(context.Background(), "ext-1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, job, got)

	_, err = svc.Get(context.Background(), "ext-1", "owner-2")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestJobServiceGetNotFound(t *testing.T) {
	t.Parallel()
	svc, repo := newTestJobService(t)

	repo.EXPECT().GetByExternalID(gomock.Any(), "missing").
		Return(nil, apperrors.NotFound("no job"))

	_, err := svc.Get(context.Background(), "missing", "owner-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestJobServiceTransitionLegalEdge(t *testing.T) {
	t.Parallel()
	svc, repo := newTestJobService(t)

	queued := testJob("ext-1", "owner-1", model.JobStatusQueued)
	processing := testJob("ext-1", "owner-1", model.JobStatusProcessing)

	repo.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(queued, nil)
	repo.EXPECT().UpdateStatusCAS(gomock.Any(), core.UpdateJobStatusParams{
		ExternalID: "ext-1",
		FromStatus: model.JobStatusQueued,
		ToStatus:   model.JobStatusProcessing,
	}).Return(processing, nil)

	got, err := svc.Transition(context.Background(), model.TransitionParams{
		ExternalID: "ext-1",
		Status:     model.JobStatusProcessing,
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, got.Status)
}

func TestJobServiceTransitionDropsOutputOnNonTerminal(t *testing.T) {
	t.Parallel()
	svc, repo := newTestJobService(t)

	queued := testJob("ext-1", "owner-1", model.JobStatusQueued)
	errText := "nope"

	repo.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(queued, nil)
	// Output and error are terminal-only fields and must not ride along on a
	// processing transition.
	repo.EXPECT().UpdateStatusCAS(gomock.Any(), core.UpdateJobStatusParams{
		ExternalID: "ext-1",
		FromStatus: model.JobStatusQueued,
		ToStatus:   model.JobStatusProcessing,
	}).Return(testJob("ext-1", "owner-1", model.JobStatusProcessing), nil)

	_, err := svc.Transition(context.Background(), model.TransitionParams{
		ExternalID: "ext-1",
		Status:     model.JobStatusProcessing,
		Output:     []byte(`["u"]`),
		ErrorText:  &errText,
	})
	require.NoError(t, err)
}

func TestJobServiceTransitionTerminalIsFrozen(t *testing.T) {
	t.Parallel()
	svc, repo := newTestJobService(t)

	done := testJob("ext-1", "owner-1", model.JobStatusSucceeded)
	repo.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(done, nil)

	got, err := svc.Transition(context.Background(), model.TransitionParams{
		ExternalID: "ext-1",
		Status:     model.JobStatusFailed,
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSucceeded, got.Status)
}

func TestJobServiceTransitionTerminalStillMergesMetadata(t *testing.T) {
	t.Parallel()
	svc, repo := newTestJobService(t)

	done := testJob("ext-1", "owner-1", model.JobStatusSucceeded)
	patch := model.Metadata(`{"webhook_deliveries":2}`)
	merged := testJob("ext-1", "owner-1", model.JobStatusSucceeded)
	merged.Metadata = patch

	repo.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(done, nil)
	repo.EXPECT().MergeMetadata(gomock.Any(), "ext-1", patch).Return(merged, nil)

	got, err := svc.Transition(context.Background(), model.TransitionParams{
		ExternalID:    "ext-1",
		Status:        model.JobStatusSucceeded,
		MetadataPatch: patch,
	})
	require.NoError(t, err)
	assert.Equal(t, patch, got.Metadata)
}

func TestJobServiceTransitionIllegalEdgeIsNoOp(t *testing.T) {
	t.Parallel()
	svc, repo := newTestJobService(t)

	processing := testJob("ext-1", "owner-1", model.JobStatusProcessing)
	repo.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(processing, nil)

	// processing -> queued is not an edge of the state machine; no CAS issued.
	got, err := svc.Transition(context.Background(), model.TransitionParams{
		ExternalID: "ext-1",
		Status:     model.JobStatusQueued,
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, got.Status)
}

func TestJobServiceTransitionRetriesLostRace(t *testing.T) {
	t.Parallel()
	svc, repo := newTestJobService(t)

	queued := testJob("ext-1", "owner-1", model.JobStatusQueued)
	processing := testJob("ext-1", "owner-1", model.JobStatusProcessing)
	succeeded := testJob("ext-1", "owner-1", model.JobStatusSucceeded)

	gomock.InOrder(
		repo.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(queued, nil),
		// Lost the race: another delivery moved the job to processing.
		repo.EXPECT().UpdateStatusCAS(gomock.Any(), gomock.Any()).Return(nil, nil),
		repo.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(processing, nil),
		repo.EXPECT().UpdateStatusCAS(gomock.Any(), core.UpdateJobStatusParams{
			ExternalID: "ext-1",
			FromStatus: model.JobStatusProcessing,
			ToStatus:   model.JobStatusSucceeded,
		}).Return(succeeded, nil),
	)

	got, err := svc.Transition(context.Background(), model.TransitionParams{
		ExternalID: "ext-1",
		Status:     model.JobStatusSucceeded,
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSucceeded, got.Status)
}

func TestJobServiceTransitionUnknownJob(t *testing.T) {
	t.Parallel()
	svc, repo := newTestJobService(t)

	repo.EXPECT().GetByExternalID(gomock.Any(), "missing").
		Return(nil, apperrors.NotFound("no job"))

	_, err := svc.Transition(context.Background(), model.TransitionParams{
		ExternalID: "missing",
		Status:     model.JobStatusProcessing,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestJobServiceTransitionValidation(t *testing.T) {
	t.Parallel()
	svc, _ := newTestJobService(t)

	_, err := svc.Transition(context.Background(), model.TransitionParams{
		ExternalID: "ext-1",
		Status:     "bogus",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
