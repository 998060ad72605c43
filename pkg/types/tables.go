package types

// Table names served by the project storage.
const (
	TableItems      = "items"
	TableOptions    = "options"
	TableIterations = "iterations"
)

// StandardTableNames lists all table names for enumeration.
var StandardTableNames = []string{
	TableItems,
	TableOptions,
	TableIterations,
}

// Reserved columns of the items table, in row order.
const (
	ColumnID         = "id"
	ColumnRepository = "Repository"
	ColumnIssue      = "Issue"
	ColumnTitle      = "Title"
	ColumnAssignees  = "Assignees"
	ColumnLabels     = "Labels"
)

// ReservedColumns lists the fixed leading columns of every items row.
var ReservedColumns = []string{
	ColumnID,
	ColumnRepository,
	ColumnIssue,
	ColumnTitle,
	ColumnAssignees,
	ColumnLabels,
}

// IsReservedColumn reports whether name is one of ReservedColumns.
func IsReservedColumn(name string) bool {
	for _, c := range ReservedColumns {
		if c == name {
			return true
		}
	}
	return false
}
