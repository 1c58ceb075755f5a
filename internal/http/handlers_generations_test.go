package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/artstash/artstash-api/internal/core"
	"github.com/artstash/artstash-api/internal/domain/model"
	apperrors "github.com/artstash/artstash-api/internal/errors"
)

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testBearerToken)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateGeneration(t *testing.T) {
	t.Parallel()
	router, m := newTestRouter(t)

	m.provider.EXPECT().CreatePrediction(gomock.Any(), gomock.Any()).
		Return(&core.Prediction{ID: "pred-1", Status: "starting"}, nil)
	m.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CreateJobRequest) (*model.Job, error) {
			assert.Equal(t, "owner-1", req.OwnerID)
			assert.Equal(t, "pred-1", req.ExternalID)
			return &model.Job{
				ID:         "job-1",
				ExternalID: "pred-1",
				OwnerID:    "owner-1",
				Model:      "owner/model",
				Status:     model.JobStatusQueued,
				Metadata:   model.Metadata(`{}`),
			}, nil
		})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/generations",
		`{"model":"owner/model","prompt":"a cat"}`))

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"external_id":"pred-1"`)
	assert.Contains(t, rec.Body.String(), `"status":"queued"`)
}

func TestCreateGenerationRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/generations",
		`{"model":"owner/model","surprise":true}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_json")
}

func TestCreateGenerationValidation(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/generations", `{"prompt":"no model"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/generations",
		`{"model":"owner/model","folder_id":"abc","folder_path":"a/b"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGeneration(t *testing.T) {
	t.Parallel()
	router, m := newTestRouter(t)

	job := &model.Job{
		ID:         "job-1",
		ExternalID: "pred-1",
		OwnerID:    "owner-1",
		Model:      "owner/model",
		Status:     model.JobStatusProcessing,
		Metadata:   model.Metadata(`{}`),
	}
	m.jobs.EXPECT().GetByExternalID(gomock.Any(), "pred-1").Return(job, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/generations/pred-1", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"processing"`)
	assert.NotContains(t, rec.Body.String(), `"assets"`)
}

func TestGetGenerationSucceededIncludesAssets(t *testing.T) {
	t.Parallel()
	router, m := newTestRouter(t)

	job := &model.Job{
		ID:         "job-1",
		ExternalID: "pred-1",
		OwnerID:    "owner-1",
		Model:      "owner/model",
		Status:     model.JobStatusSucceeded,
		Metadata:   model.Metadata(`{}`),
	}
	// Get is called once for the job and once more by the asset listing.
	m.jobs.EXPECT().GetByExternalID(gomock.Any(), "pred-1").Return(job, nil).Times(2)
	m.assets.EXPECT().ListByJobID(gomock.Any(), "job-1").
		Return([]*model.Asset{{ID: "asset-1", Path: "owner-1/pred-1/output_0.png"}}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/generations/pred-1", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "owner-1/pred-1/output_0.png")
}

func TestGetGenerationErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		job        *model.Job
		wantStatus int
	}{
		{
			name:       "missing job",
			err:        apperrors.NotFound("no job"),
			wantStatus: http.StatusNotFound,
		},
		{
			name: "foreign owner",
			job: &model.Job{
				ID: "job-1", ExternalID: "pred-1", OwnerID: "someone-else",
				Status: model.JobStatusQueued, Metadata: model.Metadata(`{}`),
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "database down",
			err:        apperrors.Internal("connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			router, m := newTestRouter(t)
			m.jobs.EXPECT().GetByExternalID(gomock.Any(), "pred-1").Return(tt.job, tt.err)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/generations/pred-1", ""))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGetGenerationHidesInternalDetail(t *testing.T) {
	t.Parallel()
	router, m := newTestRouter(t)

	m.jobs.EXPECT().GetByExternalID(gomock.Any(), "pred-1").
		Return(nil, apperrors.Internal("pq: password authentication failed"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/generations/pred-1", ""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}
