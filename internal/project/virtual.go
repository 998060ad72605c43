package project

import "github.com/mesh-intelligence/ghsql/pkg/types"

// optionRows lists every option of every single-select field as
// (field_id, id, name), keyed by option id.
func optionRows(fields []types.Field) []types.KeyedRow {
	var rows []types.KeyedRow
	for _, f := range fields {
		k, ok := f.Kind.(types.SingleSelectKind)
		if !ok {
			continue
		}
		for _, o := range k.Options {
			rows = append(rows, types.KeyedRow{
				Key: o.ID,
				Row: types.Row{types.Str(f.ID), types.Str(o.ID), types.Str(o.Name)},
			})
		}
	}
	return rows
}

// iterationRows lists the active then completed iterations of every
// iteration field, keyed by iteration id.
func iterationRows(fields []types.Field) []types.KeyedRow {
	var rows []types.KeyedRow
	for _, f := range fields {
		k, ok := f.Kind.(types.IterationKind)
		if !ok {
			continue
		}
		for _, it := range k.Iterations {
			rows = append(rows, iterationRow(f.ID, it, false))
		}
		for _, it := range k.CompletedIterations {
			rows = append(rows, iterationRow(f.ID, it, true))
		}
	}
	return rows
}

func iterationRow(fieldID string, it types.FieldIteration, completed bool) types.KeyedRow {
	return types.KeyedRow{
		Key: it.ID,
		Row: types.Row{
			types.Str(fieldID),
			types.Str(it.ID),
			types.Str(it.Title),
			types.Str(it.StartDate),
			types.Int(it.Duration),
			types.Bool(completed),
		},
	}
}
