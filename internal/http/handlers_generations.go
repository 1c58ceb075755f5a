// Package httpx provides the HTTP surface of the artstash generation API.
package httpx

import (
	"errors"
	"net/http"

	"github.com/artstash/artstash-api/internal/domain/model"
	"github.com/artstash/artstash-api/internal/service"
)

// GenerationHandlers provides HTTP handlers for generation job operations.
type GenerationHandlers struct {
	Svc *service.GenerationService
}

// CreateGenerationRequest is the request body for starting a generation.
type CreateGenerationRequest struct {
	Model      string         `json:"model"`
	Prompt     string         `json:"prompt,omitempty"`
	Input      map[string]any `json:"input,omitempty"`
	FolderID   string         `json:"folder_id,omitempty"`
	FolderPath string         `json:"folder_path,omitempty"`
}

// GenerationResponse is the caller's view of a job and, on the synchronous
// path, its stored assets.
type GenerationResponse struct {
	Job    *model.Job     `json:"job"`
	Assets []*model.Asset `json:"assets,omitempty"`
}

// Create handles HTTP requests to start an asynchronous generation.
func (h *GenerationHandlers) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	job, err := h.Svc.Create(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, GenerationResponse{Job: job})
}

// RunDirect handles HTTP requests to run a generation synchronously. The
// response carries the finished job and the assets it produced.
func (h *GenerationHandlers) RunDirect(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	job, assets, err := h.Svc.RunDirect(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, GenerationResponse{Job: job, Assets: assets})
}

// Get handles HTTP requests to poll a job by its correlation id.
func (h *GenerationHandlers) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeMissingIdentity(w)
		return
	}

	externalID := r.PathValue("id")
	if externalID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("job id is required"),
		})
		return
	}

	job, err := h.Svc.Get(r.Context(), externalID, identity.Subject)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	resp := GenerationResponse{Job: job}
	if job.Status == model.JobStatusSucceeded {
		assets, assetsErr := h.Svc.Assets(r.Context(), externalID, identity.Subject)
		if assetsErr != nil {
			WriteAppError(w, assetsErr)
			return
		}
		resp.Assets = assets
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *GenerationHandlers) decodeRequest(w http.ResponseWriter, r *http.Request) (*service.GenerationRequest, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeMissingIdentity(w)
		return nil, false
	}

	var body CreateGenerationRequest
	if !DecodeJSON(w, r, &body) {
		return nil, false
	}

	return &service.GenerationRequest{
		OwnerID:    identity.Subject,
		Model:      body.Model,
		Prompt:     body.Prompt,
		Input:      body.Input,
		FolderID:   body.FolderID,
		FolderPath: body.FolderPath,
	}, true
}
