// Package metrics pushes wikiload's Prometheus metrics to a Pushgateway at
// the end of a run.
// All metrics are defined in their respective packages (client, cache,
// pagination, loader, pipeline) via promauto.
//
// This package also documents every metric.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway job name.
const DefaultJob = "wikiload"

// Gatherer collects the metrics pushed at the end of a run. promauto
// registers every wikiload metric with the default registry it reads.
var Gatherer = prometheus.DefaultGatherer

// Push sends the current value of every metric to the Pushgateway at
// gatewayURL, replacing earlier pushes for job. A one-shot batch run has
// no scrape endpoint, so this is the only way its metrics leave the process.
func Push(ctx context.Context, gatewayURL, job string) error {
	if gatewayURL == "" {
		return errors.New("pushgateway url is required")
	}
	if job == "" {
		job = DefaultJob
	}
	if err := push.New(gatewayURL, job).Gatherer(Gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - wikiload_requests_total{status} (Counter): API requests by HTTP status
//   - wikiload_request_duration_seconds (Histogram): API request duration
//   - wikiload_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - wikiload_retries_total{error_class} (Counter): Retry attempts by error class
//   - wikiload_retry_exhausted_total{error_class} (Counter): Requests that exhausted max attempts
//
// Cache Metrics (pkg/cache):
//   - wikiload_cache_hits_total (Counter): Pages served from Redis
//   - wikiload_cache_misses_total (Counter): Pages not in Redis
//   - wikiload_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pagination Metrics (pkg/pagination):
//   - wikiload_pages_fetched_total (Counter): Recent changes pages fetched
//   - wikiload_records_fetched_total (Counter): Change records fetched
//
// Loader Metrics (pkg/loader):
//   - wikiload_rows_loaded_total{engine} (Counter): Rows written by engine
//
// Run Metrics (pkg/pipeline):
//   - wikiload_run_duration_seconds (Histogram): End-to-end run duration
//   - wikiload_runs_total{outcome} (Counter): Runs by outcome (success, empty, fetch_error, load_error)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(wikiload_cache_hits_total) /
//   (sum(wikiload_cache_hits_total) + sum(wikiload_cache_misses_total))
//
//   # Failed runs
//   wikiload_runs_total{outcome=~"fetch_error|load_error"}
//
//   # Records per run
//   wikiload_records_fetched_total
