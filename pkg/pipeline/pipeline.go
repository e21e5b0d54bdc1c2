// Package pipeline runs one extract-and-load pass: fetch every change in a
// window, unify the records into a table, and replace the database table.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/wiki-recent-changes/pkg/logging"
	"github.com/Sternrassler/wiki-recent-changes/pkg/schema"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Run outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeEmpty      = "empty"
	OutcomeFetchError = "fetch_error"
	OutcomeLoadError  = "load_error"
)

var (
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikiload_run_duration_seconds",
		Help:    "End-to-end run duration",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikiload_runs_total",
		Help: "Total number of runs by outcome",
	}, []string{"outcome"})
)

// Fetcher retrieves all change records in a window.
type Fetcher interface {
	Fetch(ctx context.Context, windowStart, windowEnd string) ([]map[string]any, error)
}

// Sink replaces a table with rows.
type Sink interface {
	Load(ctx context.Context, table string, fields []string, rows [][]any) (int, error)
}

// Config describes one run.
type Config struct {
	Table       string
	WindowStart string
	WindowEnd   string
}

// Result summarizes a run.
type Result struct {
	RunID       string
	Records     int
	Columns     []string
	RowsWritten int
	// Skipped is true when the window held no records and the load was not
	// attempted.
	Skipped  bool
	Duration time.Duration
}

// Pipeline wires a fetcher to a sink.
type Pipeline struct {
	fetcher Fetcher
	sink    Sink
	logger  zerolog.Logger
}

// New creates a pipeline.
func New(fetcher Fetcher, sink Sink) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		sink:    sink,
		logger:  logging.NewLogger("pipeline"),
	}
}

// Run fetches, unifies and loads. A fetch failure happens before the sink
// is touched, so the existing table survives it. An empty window is not an
// error: the load is skipped and the table is left as it was.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Table == "" {
		return nil, errors.New("table is required")
	}
	if cfg.WindowStart == "" || cfg.WindowEnd == "" {
		return nil, errors.New("window start and end are required")
	}

	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := p.logger.With().Str("run_id", result.RunID).Logger()

	defer func() {
		result.Duration = time.Since(start)
		runDuration.Observe(result.Duration.Seconds())
	}()

	logger.Info().
		Str("window_start", cfg.WindowStart).
		Str("window_end", cfg.WindowEnd).
		Str("table", cfg.Table).
		Msg("Run started")

	records, err := p.fetcher.Fetch(ctx, cfg.WindowStart, cfg.WindowEnd)
	if err != nil {
		runsTotal.WithLabelValues(OutcomeFetchError).Inc()
		logger.Error().Err(err).Msg("Fetch failed")
		return result, fmt.Errorf("fetch: %w", err)
	}
	result.Records = len(records)

	if len(records) == 0 {
		result.Skipped = true
		runsTotal.WithLabelValues(OutcomeEmpty).Inc()
		logger.Warn().Msg("No data to insert")
		return result, nil
	}

	fields, rows := schema.Unify(records)
	result.Columns = fields

	logger.Debug().
		Int("records", len(records)).
		Strs("columns", fields).
		Msg("Records unified")

	n, err := p.sink.Load(ctx, cfg.Table, fields, rows)
	if err != nil {
		runsTotal.WithLabelValues(OutcomeLoadError).Inc()
		logger.Error().Err(err).Msg("Load failed")
		return result, fmt.Errorf("load: %w", err)
	}
	result.RowsWritten = n

	runsTotal.WithLabelValues(OutcomeSuccess).Inc()
	logger.Info().
		Int("records", result.Records).
		Int("columns", len(fields)).
		Int("rows", n).
		Dur("duration", time.Since(start)).
		Msg("Run complete")

	return result, nil
}
