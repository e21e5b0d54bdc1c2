package loader

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

// EngineDuckDB is the name of the DuckDB engine.
const EngineDuckDB = "duckdb"

// DuckDB loads rows through the DuckDB Appender.
type DuckDB struct{}

func (DuckDB) Name() string { return EngineDuckDB }

func (DuckDB) Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %q: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open duckdb %q: %w", path, err)
	}
	return db, nil
}

// Insert appends all rows and flushes once. The appender writes columns
// positionally, so fields must match the table's column order.
func (DuckDB) Insert(ctx context.Context, db *sql.DB, table string, fields []string, rows [][]any) error {
	ident, err := TableIdentifier(table)
	if err != nil {
		return err
	}
	schemaName, tableName := "", ident[0]
	if len(ident) == 2 {
		schemaName, tableName = ident[0], ident[1]
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		dc, ok := driverConn.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}

		appender, err := duckdb.NewAppenderFromConn(dc, schemaName, tableName)
		if err != nil {
			return fmt.Errorf("create appender: %w", err)
		}

		values := make([]driver.Value, len(fields))
		for i, row := range rows {
			for j, v := range row {
				values[j] = ToText(v)
			}
			if err := appender.AppendRow(values...); err != nil {
				appender.Close()
				return fmt.Errorf("append row %d: %w", i, err)
			}
		}

		if err := appender.Flush(); err != nil {
			appender.Close()
			return fmt.Errorf("flush appender: %w", err)
		}
		if err := appender.Close(); err != nil {
			return fmt.Errorf("close appender: %w", err)
		}
		return nil
	})
}
