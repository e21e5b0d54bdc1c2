package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Engine is an embedded database the loader can write to.
type Engine interface {
	// Name returns the engine identifier used in configuration.
	Name() string
	// Open opens the database file at path, creating it if needed.
	Open(ctx context.Context, path string) (*sql.DB, error)
	// Insert writes rows into an existing table whose columns are fields.
	Insert(ctx context.Context, db *sql.DB, table string, fields []string, rows [][]any) error
}

// Engines lists the supported engine names.
var Engines = []string{EngineDuckDB, EngineSQLite}

// EngineByName returns the engine registered under name.
func EngineByName(name string) (Engine, error) {
	switch strings.ToLower(name) {
	case EngineDuckDB, "":
		return DuckDB{}, nil
	case EngineSQLite:
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownEngine, name, strings.Join(Engines, ", "))
	}
}
