package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// loadedTable remembers what was loaded into one scratch table: row i has
// rowid i+1 and storage key keys[i].
type loadedTable struct {
	schema *types.Schema
	keys   []string
	rows   []types.Row
}

// tableChange is the net effect of a statement on one table.
type tableChange struct {
	table   string
	updated []types.KeyedRow
	deleted []string
}

// load creates and fills one scratch table per storage table.
func load(ctx context.Context, tx *sql.Tx, storage types.Storage) ([]*loadedTable, error) {
	var tables []*loadedTable
	for _, name := range types.StandardTableNames {
		schema, err := storage.FetchSchema(ctx, name)
		if err != nil {
			return nil, err
		}
		if schema == nil {
			continue
		}
		rows, err := storage.Scan(ctx, name)
		if err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, createTableSQL(schema)); err != nil {
			return nil, fmt.Errorf("create table %s: %w", name, err)
		}
		lt := &loadedTable{
			schema: schema,
			keys:   make([]string, len(rows)),
			rows:   make([]types.Row, len(rows)),
		}
		if err := insertRows(ctx, tx, schema, rows); err != nil {
			return nil, fmt.Errorf("load table %s: %w", name, err)
		}
		for i, kr := range rows {
			lt.keys[i] = kr.Key
			lt.rows[i] = kr.Row
		}
		tables = append(tables, lt)
	}
	return tables, nil
}

func insertRows(ctx context.Context, tx *sql.Tx, schema *types.Schema, rows []types.KeyedRow) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(schema))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(schema.Columns)+1)
	for i, kr := range rows {
		if len(kr.Row) != len(schema.Columns) {
			return fmt.Errorf("row %s has %d columns, want %d", kr.Key, len(kr.Row), len(schema.Columns))
		}
		args[0] = int64(i + 1)
		for j, v := range kr.Row {
			if args[j+1], err = encode(v); err != nil {
				return fmt.Errorf("row %s column %s: %w", kr.Key, schema.Columns[j].Name, err)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// diff compares every scratch table against what was loaded into it.
func diff(ctx context.Context, tx *sql.Tx, tables []*loadedTable) ([]tableChange, error) {
	var changes []tableChange
	for _, lt := range tables {
		c, err := diffTable(ctx, tx, lt)
		if err != nil {
			return nil, err
		}
		if len(c.updated) > 0 || len(c.deleted) > 0 {
			changes = append(changes, c)
		}
	}
	return changes, nil
}

func diffTable(ctx context.Context, tx *sql.Tx, lt *loadedTable) (tableChange, error) {
	name := lt.schema.TableName
	change := tableChange{table: name}

	rows, err := tx.QueryContext(ctx, selectSQL(lt.schema))
	if err != nil {
		return change, fmt.Errorf("read back %s: %w", name, err)
	}
	defer rows.Close()

	width := len(lt.schema.Columns)
	seen := make([]bool, len(lt.rows))
	for rows.Next() {
		var rowid int64
		raw := make([]any, width)
		ptrs := make([]any, width+1)
		ptrs[0] = &rowid
		for i := range raw {
			ptrs[i+1] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return change, err
		}

		idx := int(rowid) - 1
		if idx < 0 || idx >= len(lt.rows) {
			return change, fmt.Errorf("%w: inserting into %s", types.ErrUnsupportedStatement, name)
		}
		seen[idx] = true

		changed, err := rowChanged(lt.rows[idx], raw)
		if err != nil {
			return change, err
		}
		if !changed {
			continue
		}
		row := make(types.Row, width)
		for i, v := range raw {
			row[i] = decode(v, lt.schema.Columns[i].Type)
		}
		change.updated = append(change.updated, types.KeyedRow{Key: lt.keys[idx], Row: row})
	}
	if err := rows.Err(); err != nil {
		return change, err
	}

	for i, ok := range seen {
		if !ok {
			change.deleted = append(change.deleted, lt.keys[i])
		}
	}
	return change, nil
}

// rowChanged compares a loaded row with its read-back driver values.
func rowChanged(orig types.Row, raw []any) (bool, error) {
	for i, v := range orig {
		enc, err := encode(v)
		if err != nil {
			return false, err
		}
		if !sameDriverValue(enc, raw[i]) {
			return true, nil
		}
	}
	return false, nil
}

func createTableSQL(s *types.Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quoteIdent(s.TableName))
	b.WriteString(" (")
	for i, c := range s.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(c.Name))
		b.WriteByte(' ')
		b.WriteString(string(c.Type))
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(")")
	return b.String()
}

func insertSQL(s *types.Schema) string {
	cols := make([]string, 0, len(s.Columns)+1)
	marks := make([]string, 0, len(s.Columns)+1)
	cols = append(cols, "rowid")
	marks = append(marks, "?")
	for _, c := range s.Columns {
		cols = append(cols, quoteIdent(c.Name))
		marks = append(marks, "?")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(s.TableName), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func selectSQL(s *types.Schema) string {
	cols := make([]string, 0, len(s.Columns)+1)
	cols = append(cols, "rowid")
	for _, c := range s.Columns {
		cols = append(cols, quoteIdent(c.Name))
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quoteIdent(s.TableName))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
