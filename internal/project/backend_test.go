package project

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ghsql/internal/github"
	"github.com/mesh-intelligence/ghsql/pkg/types"
)

func scanItems(t *testing.T, b *Backend) []types.KeyedRow {
	t.Helper()
	rows, err := b.Scan(context.Background(), types.TableItems)
	require.NoError(t, err)
	return rows
}

func rowByKey(t *testing.T, rows []types.KeyedRow, key string) types.Row {
	t.Helper()
	for _, r := range rows {
		if r.Key == key {
			return r.Row
		}
	}
	t.Fatalf("no row with key %s", key)
	return nil
}

func TestFetchSchema(t *testing.T) {
	tests := []struct {
		name  string
		table string
		check func(t *testing.T, s *types.Schema)
	}{
		{
			name:  "items has reserved columns then fields in order",
			table: types.TableItems,
			check: func(t *testing.T, s *types.Schema) {
				require.NotNil(t, s)
				assert.Equal(t, []string{
					"id", "Repository", "Issue", "Title", "Assignees", "Labels",
					"Status", "Points", "Due", "Sprint", "Parent issue", "Notes",
				}, s.ColumnNames())
				assert.Len(t, s.Columns, itemsWidth)
				assert.Equal(t, types.TypeInt, s.Columns[colIssue].Type)
				assert.Equal(t, types.TypeList, s.Columns[colLabels].Type)
				assert.Equal(t, types.TypeText, s.Columns[colPoints].Type)
				for _, c := range s.Columns {
					assert.True(t, c.Nullable, c.Name)
				}
			},
		},
		{
			name:  "options",
			table: types.TableOptions,
			check: func(t *testing.T, s *types.Schema) {
				require.NotNil(t, s)
				assert.Equal(t, []string{"field_id", "id", "name"}, s.ColumnNames())
			},
		},
		{
			name:  "iterations",
			table: types.TableIterations,
			check: func(t *testing.T, s *types.Schema) {
				require.NotNil(t, s)
				assert.Equal(t, []string{"field_id", "id", "title", "start_date", "duration", "is_completed"}, s.ColumnNames())
			},
		},
		{
			name:  "unknown table has no schema",
			table: "milestones",
			check: func(t *testing.T, s *types.Schema) {
				assert.Nil(t, s)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBackend(t, newFakeRemote(t))
			s, err := b.FetchSchema(context.Background(), tt.table)
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestScanItems(t *testing.T) {
	r := newFakeRemote(t)
	b := newTestBackend(t, r)
	rows := scanItems(t, b)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"", "cursor-1"}, r.afters)
	assert.Equal(t, []string{testProjectID, testProjectID}, r.projectIDs)

	for _, row := range rows {
		assert.Len(t, row.Row, itemsWidth, row.Key)
		assert.Equal(t, types.Str(row.Key), row.Row[colID])
	}

	tests := []struct {
		key  string
		want types.Row
	}{
		{
			key: "PVTI_1",
			want: types.Row{
				types.Str("PVTI_1"), types.Str("octo/app"), types.Int(12), types.Str("Fix login"),
				types.Strs("alice"), types.Strs("bug", "p1"),
				types.Str("Todo"), types.Str("3"), types.Null, types.Str("Sprint 2"), types.Null, types.Null,
			},
		},
		{
			key: "PVTI_2",
			want: types.Row{
				types.Str("PVTI_2"), types.Null, types.Null, types.Str("Plan Q4"),
				types.Strs("bob"), types.List(),
				types.Str("Unknown"), types.Str("2.5"), types.Null, types.Str("Sprint 1"), types.Null, types.Null,
			},
		},
		{
			key: "PVTI_3",
			want: types.Row{
				types.Str("PVTI_3"), types.Null, types.Null, types.Str(""), types.Null, types.Null,
				types.Null, types.Null, types.Null, types.Null, types.Null, types.Null,
			},
		},
		{
			key: "PVTI_4",
			want: types.Row{
				types.Str("PVTI_4"), types.Str("octo/app"), types.Int(13), types.Str("Add export"),
				types.Strs(), types.Strs(),
				types.Str("Done"), types.Null, types.Str("2026-11-01"), types.Null, types.Null, types.Str("ship it"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, rowByKey(t, rows, tt.key))
		})
	}
}

func TestScanIsCachedAndIdempotent(t *testing.T) {
	r := newFakeRemote(t)
	b := newTestBackend(t, r)

	first := scanItems(t, b)
	_, err := b.FetchSchema(context.Background(), types.TableItems)
	require.NoError(t, err)
	second := scanItems(t, b)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.fieldCalls)
	assert.Len(t, r.afters, 2)
	assert.Equal(t, statePopulated, b.CacheState())

	// Callers own the returned rows.
	first[0].Row[colTitle] = types.Str("changed")
	assert.Equal(t, types.Str("Fix login"), rowByKey(t, scanItems(t, b), "PVTI_1")[colTitle])
}

func TestScanVirtualTables(t *testing.T) {
	b := newTestBackend(t, newFakeRemote(t))

	options, err := b.Scan(context.Background(), types.TableOptions)
	require.NoError(t, err)
	assert.Equal(t, []types.KeyedRow{
		{Key: "O_todo", Row: types.Row{types.Str("F_status"), types.Str("O_todo"), types.Str("Todo")}},
		{Key: "O_done", Row: types.Row{types.Str("F_status"), types.Str("O_done"), types.Str("Done")}},
	}, options)

	iterations, err := b.Scan(context.Background(), types.TableIterations)
	require.NoError(t, err)
	assert.Equal(t, []types.KeyedRow{
		{Key: "I_2", Row: types.Row{
			types.Str("F_sprint"), types.Str("I_2"), types.Str("Sprint 2"), types.Str("2026-10-05"), types.Int(14), types.Bool(false),
		}},
		{Key: "I_1", Row: types.Row{
			types.Str("F_sprint"), types.Str("I_1"), types.Str("Sprint 1"), types.Str("2026-09-21"), types.Int(14), types.Bool(true),
		}},
	}, iterations)
}

func TestScanUnknownTable(t *testing.T) {
	r := newFakeRemote(t)
	b := newTestBackend(t, r)

	_, err := b.Scan(context.Background(), "milestones")
	require.ErrorIs(t, err, types.ErrTableNotFound)
	assert.Zero(t, r.fieldCalls)
}

func TestProjectNotFound(t *testing.T) {
	r := newFakeRemote(t)
	r.project = nil
	r.projectErrs = github.Errors{
		{Type: "NOT_FOUND", Message: "Could not resolve to a ProjectV2 with the number 1."},
	}
	b := newTestBackend(t, r)

	_, err := b.FetchSchema(context.Background(), types.TableItems)
	require.ErrorIs(t, err, types.ErrProjectNotFound)
	assert.Contains(t, err.Error(), "Could not resolve to a ProjectV2")
	assert.Equal(t, stateEmpty, b.CacheState())
	assert.Empty(t, r.afters)

	// A failed fill leaves the cache empty, so the next call retries.
	_, err = b.Scan(context.Background(), types.TableItems)
	require.ErrorIs(t, err, types.ErrProjectNotFound)
	assert.Equal(t, 2, r.fieldCalls)
}

func TestPageLimit(t *testing.T) {
	r := newFakeRemote(t)
	b := newTestBackend(t, r, func(c *types.Config) { c.MaxPages = 1 })

	_, err := b.Scan(context.Background(), types.TableItems)
	require.ErrorIs(t, err, types.ErrPageLimit)
	assert.Equal(t, []string{""}, r.afters)
	assert.Equal(t, stateEmpty, b.CacheState())
}

func TestScanCancelled(t *testing.T) {
	r := newFakeRemote(t)
	b := newTestBackend(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Scan(ctx, types.TableItems)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.afters)
	assert.Equal(t, stateEmpty, b.CacheState())

	// The backend stays usable with a live context.
	assert.Len(t, scanItems(t, b), 4)
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(rows map[string]types.Row) []types.KeyedRow
		check func(t *testing.T, err error, sent []mutation)
	}{
		{
			name: "single select writes the option id",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_1"][colStatus] = types.Str("Done")
				return []types.KeyedRow{{Key: "PVTI_1", Row: rows["PVTI_1"]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.NoError(t, err)
				assert.Equal(t, []mutation{{
					op: "update", itemID: "PVTI_1", fieldID: "F_status",
					value: github.FieldValue{SingleSelectOptionID: ptr("O_done")},
				}}, sent)
			},
		},
		{
			name: "unknown option is rejected before any call",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_1"][colStatus] = types.Str("Blocked")
				return []types.KeyedRow{{Key: "PVTI_1", Row: rows["PVTI_1"]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.ErrorIs(t, err, types.ErrImpossibleCast)
				assert.Contains(t, err.Error(), `"Blocked"`)
				assert.Empty(t, sent)
			},
		},
		{
			name: "numeric text becomes a number",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_1"][colPoints] = types.Str("5")
				return []types.KeyedRow{{Key: "PVTI_1", Row: rows["PVTI_1"]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.NoError(t, err)
				require.Len(t, sent, 1)
				assert.Equal(t, ptr(5.0), sent[0].value.Number)
			},
		},
		{
			name: "integer becomes a number",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_4"][colPoints] = types.Int(8)
				return []types.KeyedRow{{Key: "PVTI_4", Row: rows["PVTI_4"]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.NoError(t, err)
				require.Len(t, sent, 1)
				assert.Equal(t, "F_points", sent[0].fieldID)
				assert.Equal(t, ptr(8.0), sent[0].value.Number)
			},
		},
		{
			name: "text that is not a number is incompatible",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_1"][colPoints] = types.Str("many")
				return []types.KeyedRow{{Key: "PVTI_1", Row: rows["PVTI_1"]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.ErrorIs(t, err, types.ErrIncompatibleDataType)
				assert.Empty(t, sent)
			},
		},
		{
			name: "null clears the field",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_1"][colPoints] = types.Null
				rows["PVTI_1"][colSprint] = types.Null
				return []types.KeyedRow{{Key: "PVTI_1", Row: rows["PVTI_1"]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.NoError(t, err)
				assert.Equal(t, []mutation{
					{op: "clear", itemID: "PVTI_1", fieldID: "F_points"},
					{op: "clear", itemID: "PVTI_1", fieldID: "F_sprint"},
				}, sent)
			},
		},
		{
			name: "date and text",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_3"][colDue] = types.Str("2026-12-24")
				rows["PVTI_3"][colNotes] = types.Str("needs triage")
				return []types.KeyedRow{{Key: "PVTI_3", Row: rows["PVTI_3"]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.NoError(t, err)
				assert.Equal(t, []mutation{
					{op: "update", itemID: "PVTI_3", fieldID: "F_due", value: github.FieldValue{Date: ptr("2026-12-24")}},
					{op: "update", itemID: "PVTI_3", fieldID: "F_notes", value: github.FieldValue{Text: ptr("needs triage")}},
				}, sent)
			},
		},
		{
			name: "malformed date is incompatible",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_3"][colDue] = types.Str("next tuesday")
				return []types.KeyedRow{{Key: "PVTI_3", Row: rows["PVTI_3"]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.ErrorIs(t, err, types.ErrIncompatibleDataType)
				assert.Empty(t, sent)
			},
		},
		{
			name: "iteration resolves completed titles and ids",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_1"][colSprint] = types.Str("Sprint 1")
				rows["PVTI_4"][colSprint] = types.Str("I_2")
				return []types.KeyedRow{
					{Key: "PVTI_1", Row: rows["PVTI_1"]},
					{Key: "PVTI_4", Row: rows["PVTI_4"]},
				}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.NoError(t, err)
				assert.Equal(t, []mutation{
					{op: "update", itemID: "PVTI_1", fieldID: "F_sprint", value: github.FieldValue{IterationID: ptr("I_1")}},
					{op: "update", itemID: "PVTI_4", fieldID: "F_sprint", value: github.FieldValue{IterationID: ptr("I_2")}},
				}, sent)
			},
		},
		{
			name: "unknown iteration is an impossible cast",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_1"][colSprint] = types.Str("Sprint 9")
				return []types.KeyedRow{{Key: "PVTI_1", Row: rows["PVTI_1"]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.ErrorIs(t, err, types.ErrImpossibleCast)
				assert.Empty(t, sent)
			},
		},
		{
			name: "reserved column is readonly",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_1"][colRepository] = types.Str("octo/other")
				return []types.KeyedRow{{Key: "PVTI_1", Row: rows["PVTI_1"]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.ErrorIs(t, err, types.ErrReadonlyColumn)
				assert.Equal(t, "readonly column: Repository", err.Error())
				assert.Empty(t, sent)
			},
		},
		{
			name: "readonly field type is rejected",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_1"][colParent] = types.Str("octo/app#1")
				return []types.KeyedRow{{Key: "PVTI_1", Row: rows["PVTI_1"]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.ErrorIs(t, err, types.ErrReadonlyColumn)
				assert.Contains(t, err.Error(), "Parent issue")
				assert.Empty(t, sent)
			},
		},
		{
			name: "one invalid row rejects the batch",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				rows["PVTI_1"][colPoints] = types.Str("5")
				rows["PVTI_2"][colTitle] = types.Str("Renamed draft")
				return []types.KeyedRow{
					{Key: "PVTI_1", Row: rows["PVTI_1"]},
					{Key: "PVTI_2", Row: rows["PVTI_2"]},
				}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.ErrorIs(t, err, types.ErrReadonlyColumn)
				assert.Empty(t, sent)
			},
		},
		{
			name: "unchanged rows and unknown keys send nothing",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				ghost := rows["PVTI_1"].Clone()
				ghost[colPoints] = types.Str("13")
				return []types.KeyedRow{
					{Key: "PVTI_1", Row: rows["PVTI_1"]},
					{Key: "PVTI_gone", Row: ghost},
				}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.NoError(t, err)
				assert.Empty(t, sent)
			},
		},
		{
			name: "row of the wrong width is incompatible",
			edit: func(rows map[string]types.Row) []types.KeyedRow {
				return []types.KeyedRow{{Key: "PVTI_1", Row: rows["PVTI_1"][:colLabels]}}
			},
			check: func(t *testing.T, err error, sent []mutation) {
				require.ErrorIs(t, err, types.ErrIncompatibleDataType)
				assert.Empty(t, sent)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRemote(t)
			b := newTestBackend(t, r)

			rows := make(map[string]types.Row)
			for _, kr := range scanItems(t, b) {
				rows[kr.Key] = kr.Row
			}

			err := b.Update(context.Background(), types.TableItems, tt.edit(rows))
			tt.check(t, err, r.mutations)
			for _, id := range r.projectIDs {
				assert.Equal(t, testProjectID, id)
			}
		})
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	r := newFakeRemote(t)
	b := newTestBackend(t, r)

	row := rowByKey(t, scanItems(t, b), "PVTI_1")
	row[colPoints] = types.Str("5")
	require.NoError(t, b.Update(context.Background(), types.TableItems, []types.KeyedRow{{Key: "PVTI_1", Row: row}}))
	assert.Equal(t, stateEmpty, b.CacheState())

	// The next read refetches the project.
	scanItems(t, b)
	assert.Equal(t, 2, r.fieldCalls)
	assert.Equal(t, statePopulated, b.CacheState())
}

func TestRejectedUpdateKeepsCache(t *testing.T) {
	r := newFakeRemote(t)
	b := newTestBackend(t, r)

	row := rowByKey(t, scanItems(t, b), "PVTI_1")
	row[colIssue] = types.Int(99)
	err := b.Update(context.Background(), types.TableItems, []types.KeyedRow{{Key: "PVTI_1", Row: row}})
	require.ErrorIs(t, err, types.ErrReadonlyColumn)

	assert.Equal(t, statePopulated, b.CacheState())
	scanItems(t, b)
	assert.Equal(t, 1, r.fieldCalls)
}

func TestUpdateRemoteFailure(t *testing.T) {
	r := newFakeRemote(t)
	r.failOn = 2
	b := newTestBackend(t, r)

	rows := scanItems(t, b)
	row := rowByKey(t, rows, "PVTI_1")
	row[colPoints] = types.Str("5")
	row[colNotes] = types.Str("first")
	row[colDue] = types.Str("2026-12-01")

	err := b.Update(context.Background(), types.TableItems, []types.KeyedRow{{Key: "PVTI_1", Row: row}})
	require.ErrorIs(t, err, errRemoteDown)
	assert.Contains(t, err.Error(), "PVTI_1")
	assert.Len(t, r.mutations, 2)
	assert.Equal(t, stateEmpty, b.CacheState())
}

func TestReadonlyTables(t *testing.T) {
	for _, table := range []string{types.TableOptions, types.TableIterations, "milestones"} {
		t.Run(table, func(t *testing.T) {
			r := newFakeRemote(t)
			b := newTestBackend(t, r)
			scanItems(t, b)

			err := b.Update(context.Background(), table, []types.KeyedRow{{Key: "x", Row: types.Row{types.Str("x")}}})
			require.ErrorIs(t, err, types.ErrReadonlyTable)

			err = b.Delete(context.Background(), table, []string{"x"})
			require.ErrorIs(t, err, types.ErrReadonlyTable)

			assert.Equal(t, 1, r.fieldCalls)
			assert.Empty(t, r.mutations)
			assert.Equal(t, statePopulated, b.CacheState(), "a rejected write keeps the cache")
		})
	}
}

func TestConcurrentScansFillOnce(t *testing.T) {
	const callers = 32
	r := newFakeRemote(t)
	b := newTestBackend(t, r)

	counts := make([]int, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows, err := b.Scan(context.Background(), types.TableItems)
			counts[i], errs[i] = len(rows), err
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 4, counts[i])
	}
	assert.Equal(t, 1, r.fieldCalls)
	assert.Len(t, r.afters, 2)
	assert.Equal(t, statePopulated, b.CacheState())
}

func TestDelete(t *testing.T) {
	r := newFakeRemote(t)
	b := newTestBackend(t, r)
	scanItems(t, b)

	require.NoError(t, b.Delete(context.Background(), types.TableItems, []string{"PVTI_2", "PVTI_3"}))
	assert.Equal(t, []mutation{
		{op: "delete", itemID: "PVTI_2"},
		{op: "delete", itemID: "PVTI_3"},
	}, r.mutations)
	assert.Equal(t, []string{testProjectID, testProjectID}, r.projectIDs[2:])
	assert.Equal(t, stateEmpty, b.CacheState())
}

func TestInvalidate(t *testing.T) {
	r := newFakeRemote(t)
	b := newTestBackend(t, r)

	require.NoError(t, b.Invalidate(context.Background()))
	scanItems(t, b)
	require.NoError(t, b.Invalidate(context.Background()))
	assert.Equal(t, stateEmpty, b.CacheState())
	scanItems(t, b)
	assert.Equal(t, 2, r.fieldCalls)
}
