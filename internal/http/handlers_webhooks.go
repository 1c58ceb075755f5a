package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/artstash/artstash-api/internal/service"
)

// WebhookHandlers receives provider completion events. Deliveries are
// at-least-once: a non-2xx response makes the provider redeliver, so only
// failures that a retry could fix return one.
type WebhookHandlers struct {
	Svc    *service.GenerationService
	Logger *slog.Logger
}

// providerEventBody is the provider's webhook payload. Output shape varies by
// model, so it stays raw until extraction.
type providerEventBody struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  *string         `json:"error"`
}

// HandleEvent handles one provider webhook delivery.
func (h *WebhookHandlers) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var body providerEventBody
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return
	}
	if body.ID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_event",
			Err:     errors.New("event id is required"),
		})
		return
	}

	event := &service.ProviderEvent{
		ExternalID: body.ID,
		Status:     body.Status,
		Output:     body.Output,
	}
	if body.Error != nil {
		event.ErrorText = *body.Error
	}

	if err := h.Svc.HandleWebhook(r.Context(), event); err != nil {
		if h.Logger != nil {
			h.Logger.Error("webhook processing failed",
				slog.String("external_id", body.ID),
				slog.String("status", body.Status),
				slog.Any("error", err))
		}
		// Ask the provider to redeliver.
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "processing_failed",
			Err:     errors.New("event processing failed, retry later"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}
