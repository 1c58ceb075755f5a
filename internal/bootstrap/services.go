package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/artstash/artstash-api/config"
	"github.com/artstash/artstash-api/internal/adapters/devauth"
	"github.com/artstash/artstash-api/internal/adapters/objstore"
	"github.com/artstash/artstash-api/internal/adapters/oidc"
	"github.com/artstash/artstash-api/internal/adapters/replicate"
	"github.com/artstash/artstash-api/internal/core"
	"github.com/artstash/artstash-api/internal/data"
	"github.com/artstash/artstash-api/internal/observability/statsd"
	"github.com/artstash/artstash-api/internal/ports"
	"github.com/artstash/artstash-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Folders     *service.FolderService
	Jobs        *service.JobService
	Generations *service.GenerationService
	Verifier    ports.TokenVerifier
	Metrics     *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices builds the full service graph from shared infrastructure.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeProvider := &data.RealTimeProvider{}

	folderRepo := data.NewFolderRepo(deps.DB, logger)
	jobRepo := data.NewJobRepo(deps.DB, data.JobRepoConfig{
		Logger:       logger,
		TimeProvider: timeProvider,
	})
	assetRepo := data.NewAssetRepo(deps.DB, data.AssetRepoConfig{
		Logger:       logger,
		TimeProvider: timeProvider,
	})

	var cache core.CacheRepository
	if deps.RedisClient != nil {
		cache = data.NewRedisCacheRepo(deps.RedisClient)
	}

	provider, err := replicate.NewClient(replicate.Config{
		BaseURL:    cfg.Provider.BaseURL,
		Token:      cfg.Provider.Token,
		WebhookURL: webhookURL(cfg.HTTP.BaseURL),
		Timeout:    cfg.Provider.Timeout,
		RetryLimit: cfg.Provider.RetryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("init provider client: %w", err)
	}

	storage, err := objstore.NewClient(objstore.Config{
		BaseURL:    cfg.Storage.BaseURL,
		Token:      cfg.Storage.Token,
		Timeout:    cfg.Storage.Timeout,
		RetryLimit: cfg.Storage.RetryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	metricsClient, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Metrics.Enabled,
		Address: cfg.Metrics.Address,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init metrics client: %w", err)
	}

	folders := service.NewFolderService(service.FolderServiceOptions{
		Repo:   folderRepo,
		Logger: logger,
	})
	jobs := service.NewJobService(service.JobServiceOptions{
		Repo:    jobRepo,
		Metrics: metricsClient,
		Logger:  logger,
	})
	materializer := service.NewMaterializer(service.MaterializerOptions{
		Storage: storage,
		Assets:  assetRepo,
		Loader: service.NewHTTPDownloader(service.DownloaderConfig{
			Timeout:    cfg.Pipeline.DownloadTimeout,
			RetryLimit: cfg.Pipeline.DownloadRetryLimit,
			MaxBytes:   cfg.Pipeline.DownloadMaxBytes,
		}),
		Bucket: cfg.Storage.Bucket,
		Fanout: cfg.Pipeline.MaterializeFanout,
		Logger: logger,
	})
	generations := service.NewGenerationService(service.GenerationServiceOptions{
		Jobs:         jobs,
		Folders:      folders,
		Materializer: materializer,
		Provider:     provider,
		Cache:        cache,
		Config: service.GenerationConfig{
			OutputExpression: cfg.Pipeline.OutputExpression,
		},
		Logger: logger,
	})

	return &ServiceContainer{
		Folders:     folders,
		Jobs:        jobs,
		Generations: generations,
		Verifier:    verifier,
		Metrics:     metricsClient,
	}, nil
}

//nolint:ireturn // the verifier implementation depends on runtime config.
func newVerifier(ctx context.Context, cfg *config.AppConfig) (ports.TokenVerifier, error) {
	if cfg.Auth.IssuerURL == "" && cfg.IsDev {
		return devauth.NewVerifier(), nil
	}
	verifier, err := oidc.NewVerifier(ctx, oidc.VerifierConfig{
		IssuerURL: cfg.Auth.IssuerURL,
		ClientID:  cfg.Auth.ClientID,
	})
	if err != nil {
		return nil, fmt.Errorf("init token verifier: %w", err)
	}
	return verifier, nil
}

func webhookURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/webhooks/replicate"
}
