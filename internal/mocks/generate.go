// Package mocks provides mock implementations for testing the artstash ingestion service.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository
// and gateway interfaces. The mocks are generated using go:generate directives and provide a
// fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Generate mock for FolderRepository interface from internal/core package.
// This creates MockFolderRepository with methods for all FolderRepository interface methods:
// GetByID, FindChild, Create
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=folder_repository_mock.go github.com/artstash/artstash-api/internal/core FolderRepository

// Generate mock for JobRepository interface from internal/core package.
// This creates MockJobRepository with methods for all JobRepository interface methods:
// Create, GetByExternalID, UpdateStatusCAS, MergeMetadata
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/artstash/artstash-api/internal/core JobRepository

// Generate mock for AssetRepository interface from internal/core package.
// This creates MockAssetRepository with methods for all AssetRepository interface methods:
// Upsert, ListByJobID
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=asset_repository_mock.go github.com/artstash/artstash-api/internal/core AssetRepository

// Generate mock for ObjectStorage interface from internal/core package.
// This creates MockObjectStorage with methods for all ObjectStorage interface methods:
// Put
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=object_storage_mock.go github.com/artstash/artstash-api/internal/core ObjectStorage

// Generate mock for Downloader interface from internal/core package.
// This creates MockDownloader with methods for all Downloader interface methods:
// Download
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=downloader_mock.go github.com/artstash/artstash-api/internal/core Downloader

// Generate mock for Provider interface from internal/core package.
// This creates MockProvider with methods for all Provider interface methods:
// CreatePrediction, Run
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=provider_mock.go github.com/artstash/artstash-api/internal/core Provider

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Increment
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cache_repository_mock.go github.com/artstash/artstash-api/internal/core CacheRepository
