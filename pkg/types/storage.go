package types

import (
	"context"
	"errors"
)

// Storage is the backend contract a SQL engine executes against.
// Keys are opaque strings chosen by the storage; every row returned by Scan
// has the width of the table's schema.
type Storage interface {
	// FetchSchema returns the schema of the named table, or nil when the
	// table does not exist.
	FetchSchema(ctx context.Context, table string) (*Schema, error)

	// Scan returns every row of the named table.
	// Returns ErrTableNotFound for unknown tables.
	Scan(ctx context.Context, table string) ([]KeyedRow, error)

	// Update replaces the rows identified by their keys.
	Update(ctx context.Context, table string, rows []KeyedRow) error

	// Delete removes the rows identified by keys.
	Delete(ctx context.Context, table string, keys []string) error
}

// Storage errors.
var (
	ErrTableNotFound        = errors.New("table not found")
	ErrReadonlyTable        = errors.New("readonly table")
	ErrReadonlyColumn       = errors.New("readonly column")
	ErrIncompatibleDataType = errors.New("incompatible data type")
	ErrImpossibleCast       = errors.New("impossible cast")
	ErrProjectNotFound      = errors.New("project not found")
	ErrPageLimit            = errors.New("page limit exceeded")
	ErrUnsupportedStatement = errors.New("unsupported statement")
)
