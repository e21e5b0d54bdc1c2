package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Execer is the subset of *sql.DB, *sql.Conn and *sql.Tx used for DDL.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TableIdentifier parses "table" or "schema.table".
func TableIdentifier(table string) (pgx.Identifier, error) {
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
		}
	}
	return pgx.Identifier(parts), nil
}

func quoteColumn(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// DropTableSQL returns the statement removing table if it exists.
func DropTableSQL(table string) (string, error) {
	ident, err := TableIdentifier(table)
	if err != nil {
		return "", err
	}
	return "DROP TABLE IF EXISTS " + ident.Sanitize(), nil
}

// CreateTableSQL returns the statement creating table with one TEXT column
// per field, in field order.
func CreateTableSQL(table string, fields []string) (string, error) {
	if len(fields) == 0 {
		return "", ErrNoFields
	}
	ident, err := TableIdentifier(table)
	if err != nil {
		return "", err
	}

	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = quoteColumn(field) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", ident.Sanitize(), strings.Join(columns, ", ")), nil
}

// InsertSQL returns a parameterized single-row insert for table.
func InsertSQL(table string, fields []string) (string, error) {
	if len(fields) == 0 {
		return "", ErrNoFields
	}
	ident, err := TableIdentifier(table)
	if err != nil {
		return "", err
	}

	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = quoteColumn(field)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ")

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ident.Sanitize(), strings.Join(columns, ", "), placeholders), nil
}

// SetupTable drops table if it exists and recreates it from fields. Fields
// are validated before anything is dropped.
func SetupTable(ctx context.Context, db Execer, table string, fields []string) error {
	if err := ValidateFields(fields); err != nil {
		return err
	}
	dropSQL, err := DropTableSQL(table)
	if err != nil {
		return err
	}
	createSQL, err := CreateTableSQL(table, fields)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// ValidateFields rejects field lists that cannot become a table: no fields,
// an empty name, or two names equal under case folding.
func ValidateFields(fields []string) error {
	if len(fields) == 0 {
		return ErrNoFields
	}
	seen := make(map[string]string, len(fields))
	for _, field := range fields {
		if field == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidField)
		}
		folded := strings.ToLower(field)
		if prev, ok := seen[folded]; ok {
			return fmt.Errorf("%w: %q and %q name the same column", ErrInvalidField, prev, field)
		}
		seen[folded] = field
	}
	return nil
}

// ValidateRows checks that every row has exactly one value per field.
func ValidateRows(fields []string, rows [][]any) error {
	for i, row := range rows {
		if len(row) != len(fields) {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrRowWidth, i, len(row), len(fields))
		}
	}
	return nil
}
