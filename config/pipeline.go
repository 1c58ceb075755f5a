package config

import "time"

// PipelineConfig contains ingestion pipeline tunables.
type PipelineConfig struct {
	// DownloadTimeout bounds each output download.
	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT" envDefault:"30s"`

	// DownloadRetryLimit is the number of retries after a failed download.
	DownloadRetryLimit int `env:"DOWNLOAD_RETRY_LIMIT" envDefault:"2"`

	// DownloadMaxBytes caps the size of a single output artifact.
	DownloadMaxBytes int64 `env:"DOWNLOAD_MAX_BYTES" envDefault:"67108864"`

	// MaterializeFanout is the number of outputs persisted concurrently per job.
	MaterializeFanout int `env:"MATERIALIZE_FANOUT" envDefault:"4"`

	// OutputExpression optionally narrows output extraction to a JMESPath
	// expression evaluated against the provider payload. Empty means scan the
	// whole payload for URLs.
	OutputExpression string `env:"OUTPUT_EXPRESSION" envDefault:""`
}

// Sanitize applies guardrails to pipeline configuration values.
func (p *PipelineConfig) Sanitize() {
	if p.DownloadTimeout <= 0 {
		p.DownloadTimeout = 30 * time.Second
	}
	if p.DownloadRetryLimit < 0 {
		p.DownloadRetryLimit = 0
	}
	if p.DownloadMaxBytes <= 0 {
		p.DownloadMaxBytes = 64 << 20
	}
	if p.MaterializeFanout < 1 {
		p.MaterializeFanout = 1
	}
}
