// Package service implements the business logic of the artstash ingestion
// service: folder resolution, the job ledger, artifact materialization, and
// the webhook-driven generation pipeline.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/artstash/artstash-api/internal/core"
	"github.com/artstash/artstash-api/internal/domain/folder"
	"github.com/artstash/artstash-api/internal/domain/model"
	apperrors "github.com/artstash/artstash-api/internal/errors"
)

// FolderServiceOptions groups dependencies for FolderService.
type FolderServiceOptions struct {
	Repo   core.FolderRepository // Required: folder repository
	Logger *slog.Logger          // Optional: structured logger
}

// FolderService resolves folder references to concrete folder rows, creating
// missing path segments on first use.
//
// Resolution never takes a lock: each missing segment is created
// optimistically and a unique-violation conflict means another caller won the
// race, in which case the winner's row is re-read and resolution continues.
// This keeps Resolve idempotent and correct across multiple service instances.
type FolderService struct {
	repo   core.FolderRepository
	logger *slog.Logger
}

// NewFolderService constructs a new FolderService.
func NewFolderService(opts FolderServiceOptions) *FolderService {
	if opts.Repo == nil {
		panic("FolderRepository is required")
	}
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "folder_service")
	}
	return &FolderService{repo: opts.Repo, logger: logger}
}

// Resolve resolves a folder reference (id or raw path) to a folder row owned
// by ownerID. Path references create any missing segments on the way down.
// A foreign-owned id resolves to Forbidden, distinct from NotFound, so the
// boundary layer can decide how much to reveal.
func (s *FolderService) Resolve(ctx context.Context, ownerID string, ref model.FolderRef) (*model.Folder, error) {
	if err := ref.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid folder reference")
	}

	if ref.ID != "" {
		return s.resolveByID(ctx, ownerID, ref.ID)
	}
	return s.resolveByPath(ctx, ownerID, ref.Path)
}

// PathOf reconstructs the slash-joined display path of a folder.
func (s *FolderService) PathOf(ctx context.Context, ownerID, folderID string) (string, error) {
	f, err := s.resolveByID(ctx, ownerID, folderID)
	if err != nil {
		return "", err
	}
	return f.Path, nil
}

func (s *FolderService) resolveByID(ctx context.Context, ownerID, id string) (*model.Folder, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ValidationField("folder_id", "folder id must be a valid UUID")
	}

	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get folder by id: %w", err)
	}
	if f.OwnerID != ownerID {
		return nil, apperrors.Forbidden("folder belongs to another owner")
	}
	return f, nil
}

func (s *FolderService) resolveByPath(ctx context.Context, ownerID, rawPath string) (*model.Folder, error) {
	segments, err := folder.NormalizePath(rawPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid folder path")
	}

	var (
		current    *model.Folder
		parentID   *string
		parentPath string
	)
	for _, name := range segments {
		current, err = s.resolveSegment(ctx, resolveSegmentParams{
			OwnerID:    ownerID,
			ParentID:   parentID,
			ParentPath: parentPath,
			Name:       name,
		})
		if err != nil {
			return nil, err
		}
		parentID = &current.ID
		parentPath = current.Path
	}
	return current, nil
}

// resolveSegmentParams groups parameters for resolveSegment to keep param count ≤3.
type resolveSegmentParams struct {
	OwnerID    string
	ParentID   *string
	ParentPath string
	Name       string
}

// resolveSegment finds or creates one level of the folder path.
func (s *FolderService) resolveSegment(ctx context.Context, p resolveSegmentParams) (*model.Folder, error) {
	existing, err := s.repo.FindChild(ctx, core.FindChildParams{
		OwnerID:  p.OwnerID,
		ParentID: p.ParentID,
		Name:     p.Name,
	})
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("find folder %q: %w", p.Name, err)
	}

	created, err := s.repo.Create(ctx, model.CreateFolderParams{
		OwnerID:  p.OwnerID,
		Name:     p.Name,
		ParentID: p.ParentID,
		Path:     folder.ChildPath(p.ParentPath, p.Name),
	})
	if err == nil {
		return created, nil
	}
	if !apperrors.IsConflict(err) {
		return nil, fmt.Errorf("create folder %q: %w", p.Name, err)
	}

	// Another caller created this segment between our read and insert.
	// Folders are never deleted, so the winner's row must be readable now.
	if s.logger != nil {
		s.logger.DebugContext(ctx, "folder creation lost race, reusing existing row",
			"owner", p.OwnerID, "name", p.Name)
	}
	winner, rereadErr := s.repo.FindChild(ctx, core.FindChildParams{
		OwnerID:  p.OwnerID,
		ParentID: p.ParentID,
		Name:     p.Name,
	})
	if rereadErr != nil {
		return nil, fmt.Errorf("re-read folder %q after conflict: %w", p.Name, rereadErr)
	}
	return winner, nil
}
