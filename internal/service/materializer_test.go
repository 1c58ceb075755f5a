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

type materializerMocks struct {
	storage *mocks.MockObjectStorage
	assets  *mocks.MockAssetRepository
	loader  *mocks.MockDownloader
}

func newTestMaterializer(t *testing.T) (*Materializer, materializerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := materializerMocks{
		storage: mocks.NewMockObjectStorage(ctrl),
		assets:  mocks.NewMockAssetRepository(ctrl),
		loader:  mocks.NewMockDownloader(ctrl),
	}
	svc := NewMaterializer(MaterializerOptions{
		Storage: m.storage,
		Assets:  m.assets,
		Loader:  m.loader,
		Bucket:  "generations",
		Fanout:  2,
	})
	return svc, m
}

func TestStoragePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "owner-1/art/cats/ext-1/out.png",
		StoragePath("owner-1", "art/cats", "ext-1", "out.png"))
	assert.Equal(t, "owner-1/ext-1/out.png",
		StoragePath("owner-1", "", "ext-1", "out.png"))
}

func TestOutputFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		idx  int
		url  string
		want string
	}{
		{name: "extension carried over", url: "https://cdn.example.com/a/b/image.webp", want: "output_0.webp"},
		{name: "no extension defaults to png", idx: 1, url: "https://cdn.example.com/a/output", want: "output_1.png"},
		{name: "query string ignored", idx: 3, url: "https://cdn.example.com/x/out.png?expires=1", want: "output_3.png"},
		{name: "no path", idx: 2, url: "https://cdn.example.com", want: "output_2.png"},
		{name: "unparseable url", idx: 1, url: "http://bad url", want: "output_1.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, OutputFilename(tt.idx, tt.url))
		})
	}
}

func TestOutputFilenameSameBasenameStaysDistinct(t *testing.T) {
	t.Parallel()

	// Providers serve different outputs under identical basenames; their
	// storage paths must not collide.
	urlA := "https://cdn.example.com/abc111/image.png"
	urlB := "https://cdn.example.com/def222/image.png"

	pathA := StoragePath("owner-1", "art/renders", "ext-1", OutputFilename(0, urlA))
	pathB := StoragePath("owner-1", "art/renders", "ext-1", OutputFilename(1, urlB))

	assert.NotEqual(t, pathA, pathB)
	assert.Equal(t, "owner-1/art/renders/ext-1/output_0.png", pathA)
	assert.Equal(t, "owner-1/art/renders/ext-1/output_1.png", pathB)
}

func TestMaterializeAllOutputs(t *testing.T) {
	t.Parallel()
	svc, m := newTestMaterializer(t)

	job := testJob("ext-1", "owner-1", model.JobStatusProcessing)
	folderID := "folder-1"
	urls := []string{
		"https://cdn.example.com/one.png",
		"https://cdn.example.com/two.png",
	}

	for _, u := range urls {
		m.loader.EXPECT().Download(gomock.Any(), u).
			Return(&core.Download{Body: []byte("png-bytes"), ContentType: "image/png"}, nil)
	}
	m.storage.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	m.assets.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params model.UpsertAssetParams) (*model.Asset, error) {
			assert.Equal(t, "owner-1", params.OwnerID)
			assert.Equal(t, "generations", params.Bucket)
			assert.Equal(t, &folderID, params.FolderID)
			assert.Equal(t, job.ID, params.JobID)
			return &model.Asset{Path: params.Path, ByteSize: params.ByteSize}, nil
		}).Times(2)

	result, err := svc.Materialize(context.Background(), MaterializeParams{
		Job:        job,
		FolderID:   &folderID,
		FolderPath: "art/cats",
		URLs:       urls,
	})
	require.NoError(t, err)
	assert.Len(t, result.Assets, 2)
	assert.Empty(t, result.Failures)
}

func TestMaterializePartialFailure(t *testing.T) {
	t.Parallel()
	svc, m := newTestMaterializer(t)

	job := testJob("ext-1", "owner-1", model.JobStatusProcessing)
	good := "https://cdn.example.com/good.png"
	bad := "https://cdn.example.com/bad.png"

	m.loader.EXPECT().Download(gomock.Any(), good).
		Return(&core.Download{Body: []byte("ok"), ContentType: "image/png"}, nil)
	m.loader.EXPECT().Download(gomock.Any(), bad).
		Return(nil, apperrors.Upstream("download bad.png: 403"))
	m.storage.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil)
	m.assets.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		Return(&model.Asset{Path: "owner-1/ext-1/output_0.png"}, nil)

	result, err := svc.Materialize(context.Background(), MaterializeParams{
		Job:  job,
		URLs: []string{good, bad},
	})
	require.NoError(t, err)
	assert.Len(t, result.Assets, 1)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, bad, result.Failures[0].URL)
}

func TestMaterializeAllFailedIsUpstreamError(t *testing.T) {
	t.Parallel()
	svc, m := newTestMaterializer(t)

	job := testJob("ext-1", "owner-1", model.JobStatusProcessing)
	m.loader.EXPECT().Download(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.Upstream("unavailable")).Times(2)

	result, err := svc.Materialize(context.Background(), MaterializeParams{
		Job:  job,
		URLs: []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	require.NotNil(t, result)
	assert.Len(t, result.Failures, 2)
}

func TestMaterializeStorageWriteFailureIsPerOutput(t *testing.T) {
	t.Parallel()
	svc, m := newTestMaterializer(t)

	job := testJob("ext-1", "owner-1", model.JobStatusProcessing)
	m.loader.EXPECT().Download(gomock.Any(), gomock.Any()).
		Return(&core.Download{Body: []byte("ok"), ContentType: "image/png"}, nil)
	m.storage.EXPECT().Put(gomock.Any(), gomock.Any()).
		Return(apperrors.Upstream("storage 500"))

	result, err := svc.Materialize(context.Background(), MaterializeParams{
		Job:  job,
		URLs: []string{"https://cdn.example.com/a.png"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	assert.Len(t, result.Failures, 1)
}

func TestMaterializeCatalogFailureIsFatal(t *testing.T) {
	t.Parallel()
	svc, m := newTestMaterializer(t)

	job := testJob("ext-1", "owner-1", model.JobStatusProcessing)
	m.loader.EXPECT().Download(gomock.Any(), gomock.Any()).
		Return(&core.Download{Body: []byte("ok"), ContentType: "image/png"}, nil)
	m.storage.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil)
	m.assets.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.Internal("db down"))

	result, err := svc.Materialize(context.Background(), MaterializeParams{
		Job:  job,
		URLs: []string{"https://cdn.example.com/a.png"},
	})
	require.Error(t, err)
	assert.False(t, apperrors.IsUpstream(err))
	assert.Nil(t, result)
}

func TestMaterializeValidation(t *testing.T) {
	t.Parallel()
	svc, _ := newTestMaterializer(t)

	_, err := svc.Materialize(context.Background(), MaterializeParams{Job: nil, URLs: []string{"x"}})
	require.Error(t, err)

	_, err = svc.Materialize(context.Background(), MaterializeParams{
		Job: testJob("ext-1", "owner-1", model.JobStatusProcessing),
	})
	require.Error(t, err)
}
