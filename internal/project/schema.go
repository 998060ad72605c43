package project

import "github.com/mesh-intelligence/ghsql/pkg/types"

// reservedColumnDefs are the fixed leading columns of the items table. They
// are all nullable so that a write setting one to NULL reaches the readonly
// check instead of failing on a table constraint.
var reservedColumnDefs = []types.ColumnDef{
	{Name: types.ColumnID, Type: types.TypeText, Nullable: true},
	{Name: types.ColumnRepository, Type: types.TypeText, Nullable: true},
	{Name: types.ColumnIssue, Type: types.TypeInt, Nullable: true},
	{Name: types.ColumnTitle, Type: types.TypeText, Nullable: true},
	{Name: types.ColumnAssignees, Type: types.TypeList, Nullable: true},
	{Name: types.ColumnLabels, Type: types.TypeList, Nullable: true},
}

// ItemsSchema projects the items table: the reserved columns followed by one
// nullable text column per field, in field order. Field columns are text
// whatever the field kind; kind-specific casting happens on write.
func ItemsSchema(fields []types.Field) *types.Schema {
	cols := make([]types.ColumnDef, 0, len(reservedColumnDefs)+len(fields))
	cols = append(cols, reservedColumnDefs...)
	for _, f := range fields {
		cols = append(cols, types.ColumnDef{Name: f.Name, Type: types.TypeText, Nullable: true})
	}
	return &types.Schema{TableName: types.TableItems, Columns: cols}
}

// OptionsSchema is the schema of the single-select options table.
func OptionsSchema() *types.Schema {
	return &types.Schema{
		TableName: types.TableOptions,
		Columns: []types.ColumnDef{
			{Name: "field_id", Type: types.TypeText},
			{Name: "id", Type: types.TypeText},
			{Name: "name", Type: types.TypeText},
		},
	}
}

// IterationsSchema is the schema of the iterations table.
func IterationsSchema() *types.Schema {
	return &types.Schema{
		TableName: types.TableIterations,
		Columns: []types.ColumnDef{
			{Name: "field_id", Type: types.TypeText},
			{Name: "id", Type: types.TypeText},
			{Name: "title", Type: types.TypeText},
			{Name: "start_date", Type: types.TypeText},
			{Name: "duration", Type: types.TypeInt},
			{Name: "is_completed", Type: types.TypeBoolean},
		},
	}
}
