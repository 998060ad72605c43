package types

// DataType is the declared SQL type of a column.
type DataType string

// Column data types.
const (
	TypeText    DataType = "TEXT"
	TypeInt     DataType = "INTEGER"
	TypeFloat   DataType = "FLOAT"
	TypeBoolean DataType = "BOOLEAN"
	TypeDate    DataType = "DATE"
	TypeList    DataType = "LIST"
)

// ColumnDef describes one column of a table.
type ColumnDef struct {
	Name     string
	Type     DataType
	Nullable bool
}

// Schema describes a table: its name and its ordered columns.
type Schema struct {
	TableName string
	Columns   []ColumnDef
}

// ColumnNames returns the column names in order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1.
func (s *Schema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
