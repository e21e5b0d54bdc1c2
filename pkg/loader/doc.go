// Package loader writes a unified table into an embedded SQL database.
//
// Every load replaces the target table: it is dropped if present, recreated
// with one TEXT column per field in field order, and filled with the rows.
// Identifiers are always quoted, so any field name the API produces is a
// valid column name. Values are stored as text, with nil stored as SQL NULL.
//
// Two engines are supported:
//
//   - duckdb: rows are bulk-appended with the DuckDB Appender
//   - sqlite: rows are inserted in a single transaction with a prepared statement
//
// Drop, create and insert are separate steps. A failure after the drop
// leaves the table missing or partially filled.
package loader
