// Package metrics maps ledger lifecycle events onto StatsD metrics.
package metrics

import (
	"time"

	apperrors "github.com/artstash/artstash-api/internal/errors"
	"github.com/artstash/artstash-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultNoop    = "noop"
	ResultError   = "error"
)

// JobTransition captures one ledger transition outcome for emission.
type JobTransition struct {
	From   string
	To     string
	Result string
	Err    error
	// Completed is the job's total queue-to-terminal latency; zero when the
	// transition did not finish the job.
	Completed time.Duration
}

// EmitJobTransition emits the transition counter and, for finished jobs, the
// end-to-end completion timing. A nil sink is a no-op.
func EmitJobTransition(sink statsd.Sink, in JobTransition) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"from":   in.From,
		"to":     in.To,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if code := apperrors.GetCode(in.Err); code != "" {
			tags["error_class"] = string(code)
		}
	}

	sink.Count("job.transition", 1, tags)

	if in.Completed > 0 {
		sink.Timing("job.completed", in.Completed, map[string]string{"to": in.To})
	}
}
