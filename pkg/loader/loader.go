package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/wiki-recent-changes/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var rowsLoadedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wikiload_rows_loaded_total",
		Help: "Total number of rows written to the database",
	},
	[]string{"engine"},
)

// Config selects the engine and database file.
type Config struct {
	Engine string
	Path   string
}

// Loader replaces a table in one database file per Load call.
type Loader struct {
	engine Engine
	path   string
	logger zerolog.Logger
}

// New creates a loader for cfg.
func New(cfg Config) (*Loader, error) {
	engine, err := EngineByName(cfg.Engine)
	if err != nil {
		return nil, err
	}
	return &Loader{
		engine: engine,
		path:   cfg.Path,
		logger: logging.NewLogger("loader").With().Str("engine", engine.Name()).Logger(),
	}, nil
}

// Engine returns the configured engine.
func (l *Loader) Engine() Engine {
	return l.engine
}

// Load opens the database, replaces table with fields and rows, and closes
// the database on every path. It returns the number of rows written.
func (l *Loader) Load(ctx context.Context, table string, fields []string, rows [][]any) (n int, err error) {
	if err := ValidateFields(fields); err != nil {
		return 0, err
	}
	if _, err := TableIdentifier(table); err != nil {
		return 0, err
	}
	if err := ValidateRows(fields, rows); err != nil {
		return 0, err
	}

	start := time.Now()

	db, err := l.engine.Open(ctx, l.path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close database: %w", cerr))
		}
	}()

	if err := SetupTable(ctx, db, table, fields); err != nil {
		return 0, err
	}
	if err := l.engine.Insert(ctx, db, table, fields, rows); err != nil {
		return 0, err
	}

	rowsLoadedTotal.WithLabelValues(l.engine.Name()).Add(float64(len(rows)))
	l.logger.Info().
		Str("table", table).
		Str("path", l.path).
		Int("rows", len(rows)).
		Int("columns", len(fields)).
		Dur("duration", time.Since(start)).
		Msg("Records inserted")

	return len(rows), nil
}
