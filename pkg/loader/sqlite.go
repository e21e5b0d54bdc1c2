package loader

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// EngineSQLite is the name of the SQLite engine.
const EngineSQLite = "sqlite"

// SQLite loads rows with a prepared insert inside one transaction.
type SQLite struct{}

func (SQLite) Name() string { return EngineSQLite }

func (SQLite) Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	return db, nil
}

func (SQLite) Insert(ctx context.Context, db *sql.DB, table string, fields []string, rows [][]any) (err error) {
	query, err := InsertSQL(table, fields)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(fields))
	for i, row := range rows {
		for j, v := range row {
			args[j] = ToText(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
