package loader

import "errors"

var (
	// ErrNoFields is returned when a table would have no columns.
	ErrNoFields = errors.New("no fields to create table with")

	// ErrInvalidField is returned for empty field names and for names that
	// collide once case is ignored, which both engines treat as one column.
	ErrInvalidField = errors.New("invalid field name")

	// ErrRowWidth is returned when a row does not have one value per field.
	ErrRowWidth = errors.New("row width does not match field count")

	// ErrInvalidTableName is returned for empty or over-qualified table names.
	ErrInvalidTableName = errors.New("invalid table name")

	// ErrUnknownEngine is returned for an unsupported engine name.
	ErrUnknownEngine = errors.New("unknown database engine")
)
