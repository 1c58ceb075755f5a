package httpx

import (
	"log/slog"
	"net/http"

	"github.com/artstash/artstash-api/internal/ports"
	"github.com/artstash/artstash-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Generations *service.GenerationService
	Verifier    ports.TokenVerifier
	Logger      *slog.Logger
}

// NewRouter creates and configures the HTTP router. API routes require a
// verified bearer token; the webhook and health endpoints do not, since the
// provider authenticates by knowing the (secret) webhook URL.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	generationHandlers := &GenerationHandlers{Svc: services.Generations}
	webhookHandlers := &WebhookHandlers{Svc: services.Generations, Logger: logger}

	api := http.NewServeMux()
	api.HandleFunc("POST /api/generations", generationHandlers.Create)
	api.HandleFunc("POST /api/generations/direct", generationHandlers.RunDirect)
	api.HandleFunc("GET /api/generations/{id}", generationHandlers.Get)

	mux := http.NewServeMux()
	mux.Handle("/api/", BearerAuth(services.Verifier, logger)(api))
	mux.HandleFunc("POST /webhooks/replicate", webhookHandlers.HandleEvent)
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	handler := Logging(logger)(mux)
	return Recover(logger)(handler)
}
