package project

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/ghsql/internal/github"
	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// fieldUpdate is one remote field write. A nil value clears the field.
type fieldUpdate struct {
	itemID string
	field  types.Field
	value  *github.FieldValue
}

// planUpdates diffs rows against the snapshot and returns the field writes
// they require. Every row is validated before anything is returned, so an
// invalid row rejects the whole batch. Rows whose key is not cached are
// skipped.
func planUpdates(snap *snapshot, rows []types.KeyedRow) ([]fieldUpdate, error) {
	reserved := len(types.ReservedColumns)
	width := reserved + len(snap.fields)

	var plan []fieldUpdate
	for _, kr := range rows {
		old, ok := snap.row(kr.Key)
		if !ok {
			continue
		}
		if len(kr.Row) != width {
			return nil, fmt.Errorf("%w: item %s has %d columns, want %d",
				types.ErrIncompatibleDataType, kr.Key, len(kr.Row), width)
		}

		for i := 0; i < reserved; i++ {
			if !kr.Row[i].Equal(old[i]) {
				return nil, fmt.Errorf("%w: %s", types.ErrReadonlyColumn, types.ReservedColumns[i])
			}
		}

		for j, f := range snap.fields {
			nv := kr.Row[reserved+j]
			if nv.Equal(old[reserved+j]) {
				continue
			}
			fv, err := translateValue(f, nv)
			if err != nil {
				return nil, fmt.Errorf("item %s: %w", kr.Key, err)
			}
			plan = append(plan, fieldUpdate{itemID: kr.Key, field: f, value: fv})
		}
	}
	return plan, nil
}

// translateValue converts a cell to the payload that writes it to f. A Null
// cell yields a nil payload, which clears the field.
func translateValue(f types.Field, v types.Value) (*github.FieldValue, error) {
	switch k := f.Kind.(type) {
	case types.NormalKind:
		if !k.Type.Writable() {
			return nil, fmt.Errorf("%w: %s (%s)", types.ErrReadonlyColumn, f.Name, k.Type)
		}
		if v.IsNull() {
			return nil, nil
		}
		switch k.Type {
		case types.FieldTypeDate:
			d, err := castDate(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			return &github.FieldValue{Date: &d}, nil
		case types.FieldTypeNumber:
			n, err := castFloat(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			return &github.FieldValue{Number: &n}, nil
		default:
			s, err := castText(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			return &github.FieldValue{Text: &s}, nil
		}

	case types.SingleSelectKind:
		if v.IsNull() {
			return nil, nil
		}
		name, err := castText(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		opt, ok := k.OptionByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an option of %s", types.ErrImpossibleCast, name, f.Name)
		}
		return &github.FieldValue{SingleSelectOptionID: &opt.ID}, nil

	case types.IterationKind:
		if v.IsNull() {
			return nil, nil
		}
		s, err := castText(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		it, ok := k.ByTitle(s)
		if !ok {
			it, ok = k.ByID(s)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an iteration of %s", types.ErrImpossibleCast, s, f.Name)
		}
		return &github.FieldValue{IterationID: &it.ID}, nil
	}
	return nil, fmt.Errorf("%w: %s has unsupported kind %T", types.ErrReadonlyColumn, f.Name, f.Kind)
}

func castText(v types.Value) (string, error) {
	switch v.Kind() {
	case types.KindStr, types.KindI64, types.KindF64, types.KindBool, types.KindDate:
		return v.String(), nil
	}
	return "", fmt.Errorf("%w: cannot write %s as text", types.ErrIncompatibleDataType, v.Kind())
}

func castFloat(v types.Value) (float64, error) {
	if f, ok := v.AsFloat(); ok {
		return f, nil
	}
	if i, ok := v.AsInt(); ok {
		return float64(i), nil
	}
	if b, ok := v.AsBool(); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	if s, ok := v.AsStr(); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", types.ErrIncompatibleDataType, s)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: cannot write %s as a number", types.ErrIncompatibleDataType, v.Kind())
}

// castDate returns the value as a calendar date in types.DateLayout.
func castDate(v types.Value) (string, error) {
	if d, ok := v.AsDate(); ok {
		return d.Format(types.DateLayout), nil
	}
	if s, ok := v.AsStr(); ok {
		s = strings.TrimSpace(s)
		if d, err := time.Parse(types.DateLayout, s); err == nil {
			return d.Format(types.DateLayout), nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC().Format(types.DateLayout), nil
		}
		return "", fmt.Errorf("%w: %q is not a date", types.ErrIncompatibleDataType, s)
	}
	return "", fmt.Errorf("%w: cannot write %s as a date", types.ErrIncompatibleDataType, v.Kind())
}
