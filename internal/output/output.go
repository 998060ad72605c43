// Package output renders query results as an aligned text table or as
// JSON lines.
package output

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"

	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// Format selects how rows are rendered.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat accepts a format name or its initial.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "t", "table":
		return FormatTable, nil
	case "j", "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, s)
}

// Print writes labels and rows to w in format f.
func (f Format) Print(w io.Writer, labels []string, rows []types.Row) error {
	bw := bufio.NewWriter(w)
	var err error
	switch f {
	case FormatJSON:
		err = printJSON(bw, labels, rows)
	default:
		err = printTable(bw, labels, rows)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

// printTable writes one line per row with cells padded to the display width
// of their column:
//
//	| id     | Title     |
//	| PVTI_1 | Fix login |
func printTable(w *bufio.Writer, labels []string, rows []types.Row) error {
	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, labels)
	for _, r := range rows {
		line := make([]string, len(labels))
		for i := range line {
			if i < len(r) {
				line[i] = tableCell(r[i])
			}
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(labels))
	for _, line := range cells {
		for i, c := range line {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}

	for _, line := range cells {
		for i, c := range line {
			w.WriteString("| ")
			w.WriteString(runewidth.FillRight(c, widths[i]))
			w.WriteByte(' ')
		}
		if _, err := w.WriteString("|\n"); err != nil {
			return err
		}
	}
	return nil
}

// tableCell renders a value on a single line.
func tableCell(v types.Value) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(v.String())
}

// printJSON writes one JSON object per row with keys in label order.
func printJSON(w *bufio.Writer, labels []string, rows []types.Row) error {
	keys := make([][]byte, len(labels))
	for i, l := range labels {
		k, err := json.Marshal(l)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	var buf bytes.Buffer
	for _, r := range rows {
		buf.Reset()
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(k)
			buf.WriteByte(':')
			v := types.Null
			if i < len(r) {
				v = r[i]
			}
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode %s: %w", labels[i], err)
			}
			buf.Write(data)
		}
		buf.WriteString("}\n")
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
