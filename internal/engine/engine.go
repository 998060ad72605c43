// Package engine executes SQL statements against a types.Storage.
//
// Each statement runs inside a transaction on an in-memory SQLite database
// that is loaded from the storage first and rolled back afterwards. Row
// changes made by the statement are diffed against what was loaded and
// handed back to the storage as Update and Delete calls, so the storage
// stays the only source of truth.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// Statement verbs.
const (
	VerbSelect = "SELECT"
	VerbUpdate = "UPDATE"
	VerbDelete = "DELETE"
)

// queryVerbs produce rows; execVerbs modify them.
var (
	queryVerbs = map[string]bool{"SELECT": true, "VALUES": true}
	execVerbs  = map[string]bool{VerbUpdate: true, VerbDelete: true}
)

// Result is the outcome of one statement. Labels and Rows are set for
// queries; Affected is set for updates and deletes.
type Result struct {
	Verb     string
	Labels   []string
	Rows     []types.Row
	Affected int64
}

// IsQuery reports whether the result carries rows to display.
func (r *Result) IsQuery() bool {
	return r.Labels != nil
}

// Engine runs statements against one storage. Statements are serialized.
type Engine struct {
	storage types.Storage
	db      *sql.DB
	log     *zap.SugaredLogger
}

// Open returns an Engine over storage backed by a private in-memory
// database. Close releases it.
func Open(storage types.Storage, log *zap.SugaredLogger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return &Engine{storage: storage, db: db, log: log}, nil
}

// Close releases the in-memory database.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Execute runs one statement. SELECT and VALUES return rows; UPDATE and
// DELETE are applied to the storage. A WITH clause counts as the statement
// that follows it. Anything else, and any statement that would add rows,
// returns types.ErrUnsupportedStatement.
func (e *Engine) Execute(ctx context.Context, statement string) (*Result, error) {
	stmt := normalize(statement)
	verb := statementVerb(stmt)
	if !queryVerbs[verb] && !execVerbs[verb] {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedStatement, displayVerb(verb))
	}

	log := e.log.With("statement_id", uuid.NewString(), "verb", verb)
	start := time.Now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	// The scratch database never keeps anything.
	defer func() { _ = tx.Rollback() }()

	tables, err := load(ctx, tx, e.storage)
	if err != nil {
		return nil, err
	}

	res := &Result{Verb: verb}
	if queryVerbs[verb] {
		res.Verb = VerbSelect
		res.Labels, res.Rows, err = query(ctx, tx, stmt)
		if err != nil {
			return nil, err
		}
	} else {
		sr, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			return nil, err
		}
		if res.Affected, err = sr.RowsAffected(); err != nil {
			return nil, err
		}
	}

	changes, err := diff(ctx, tx, tables)
	if err != nil {
		return nil, err
	}
	if err := tx.Rollback(); err != nil {
		return nil, fmt.Errorf("rollback: %w", err)
	}

	if err := e.apply(ctx, changes); err != nil {
		return nil, err
	}
	log.Debugw("statement executed",
		"duration", time.Since(start),
		"rows", len(res.Rows),
		"affected", res.Affected)
	return res, nil
}

// apply hands the statement's row changes to the storage, updates first.
func (e *Engine) apply(ctx context.Context, changes []tableChange) error {
	for _, c := range changes {
		if len(c.updated) > 0 {
			e.log.Debugw("propagating update", "table", c.table, "rows", len(c.updated))
			if err := e.storage.Update(ctx, c.table, c.updated); err != nil {
				return err
			}
		}
		if len(c.deleted) > 0 {
			e.log.Debugw("propagating delete", "table", c.table, "rows", len(c.deleted))
			if err := e.storage.Delete(ctx, c.table, c.deleted); err != nil {
				return err
			}
		}
	}
	return nil
}

func query(ctx context.Context, tx *sql.Tx, stmt string) ([]string, []types.Row, error) {
	rows, err := tx.QueryContext(ctx, stmt)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	labels, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}
	declared := make([]types.DataType, len(colTypes))
	for i, ct := range colTypes {
		declared[i] = types.DataType(strings.ToUpper(ct.DatabaseTypeName()))
	}

	out := []types.Row{}
	for rows.Next() {
		raw := make([]any, len(labels))
		ptrs := make([]any, len(labels))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(types.Row, len(raw))
		for i, v := range raw {
			row[i] = decode(v, declared[i])
		}
		out = append(out, row)
	}
	return labels, out, rows.Err()
}

// normalize trims whitespace and trailing semicolons.
func normalize(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "; \t\r\n")
}

// leadingVerb returns the first keyword of stmt in upper case, skipping
// leading comments and parentheses.
func leadingVerb(stmt string) string {
	s := stmt
	for {
		s = strings.TrimLeft(s, " \t\r\n(")
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s, "*/")
			if i < 0 {
				return ""
			}
			s = s[i+2:]
		default:
			end := strings.IndexFunc(s, func(r rune) bool {
				return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
			})
			if end < 0 {
				end = len(s)
			}
			return strings.ToUpper(s[:end])
		}
	}
}

// mainVerbs can follow the common table expressions of a WITH clause.
var mainVerbs = map[string]bool{
	"SELECT": true, "VALUES": true, "UPDATE": true, "DELETE": true, "INSERT": true, "REPLACE": true,
}

// statementVerb is leadingVerb, except that a WITH statement is classified
// by the verb that follows its common table expressions.
func statementVerb(stmt string) string {
	verb := leadingVerb(stmt)
	if verb != "WITH" {
		return verb
	}
	if main := cteMainVerb(stmt); main != "" {
		return main
	}
	return verb
}

// cteMainVerb returns the first of mainVerbs found outside parentheses,
// quotes and comments.
func cteMainVerb(stmt string) string {
	depth := 0
	for i := 0; i < len(stmt); {
		c := stmt[i]
		switch {
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			i++
		case c == '\'' || c == '"' || c == '`' || c == '[':
			closing := c
			if c == '[' {
				closing = ']'
			}
			end := strings.IndexByte(stmt[i+1:], closing)
			if end < 0 {
				return ""
			}
			i += end + 2
		case strings.HasPrefix(stmt[i:], "--"):
			end := strings.IndexByte(stmt[i:], '\n')
			if end < 0 {
				return ""
			}
			i += end + 1
		case strings.HasPrefix(stmt[i:], "/*"):
			end := strings.Index(stmt[i+2:], "*/")
			if end < 0 {
				return ""
			}
			i += end + 4
		case isWordByte(c):
			j := i
			for j < len(stmt) && isWordByte(stmt[j]) {
				j++
			}
			if word := strings.ToUpper(stmt[i:j]); depth == 0 && mainVerbs[word] {
				return word
			}
			i = j
		default:
			i++
		}
	}
	return ""
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func displayVerb(v string) string {
	if v == "" {
		return "empty statement"
	}
	return v
}
