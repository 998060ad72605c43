// Package prompt runs SQL statements typed at an interactive prompt or
// passed on the command line, printing results in the selected format.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/ghsql/internal/engine"
	"github.com/mesh-intelligence/ghsql/internal/output"
)

// Prompt is shown before every interactive statement.
const Prompt = "ghsql> "

// Executor runs one SQL statement.
type Executor interface {
	Execute(ctx context.Context, statement string) (*engine.Result, error)
}

// Session prints statement results to Out and statement errors to Err.
type Session struct {
	Exec   Executor
	Format output.Format
	Out    io.Writer
	Err    io.Writer
	Log    *zap.SugaredLogger

	// Interrupt derives the context of one interactive statement. It
	// defaults to cancelling on os.Interrupt.
	Interrupt func(context.Context) (context.Context, context.CancelFunc)
}

// Run executes one statement and prints its rows, or a one-line summary for
// updates and deletes. Execution errors are returned unprinted.
func (s *Session) Run(ctx context.Context, statement string) error {
	res, err := s.Exec.Execute(ctx, statement)
	if err != nil {
		return err
	}
	if res.IsQuery() {
		return s.Format.Print(s.Out, res.Labels, res.Rows)
	}
	_, err = fmt.Fprintf(s.Out, "%s %d\n", res.Verb, res.Affected)
	return err
}

// report prints a statement failure in the form the prompt shows.
func (s *Session) report(err error) {
	fmt.Fprintf(s.Err, "SQL execution error: %v\n", err)
}

// Batch runs a single statement. A failure is printed and returned.
func (s *Session) Batch(ctx context.Context, statement string) error {
	if err := s.Run(ctx, statement); err != nil {
		s.report(err)
		return err
	}
	return nil
}

// Interactive reads statements until Ctrl-C at the prompt or end of input.
// Ctrl-C while a statement runs cancels that statement only. Failed
// statements are printed and the loop continues. History is loaded from and
// saved to historyFile when it is not empty.
func (s *Session) Interactive(ctx context.Context, historyFile string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(true)

	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
		defer s.saveHistory(line, historyFile)
	}

	return s.loop(ctx, line.Prompt, line.AppendHistory)
}

// loop is the read-execute cycle behind Interactive.
func (s *Session) loop(ctx context.Context, read func(string) (string, error), remember func(string)) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		text, err := read(Prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		remember(text)

		stmtCtx, stop := s.interrupt(ctx)
		err = s.Run(stmtCtx, text)
		interrupted := stmtCtx.Err() != nil && ctx.Err() == nil
		stop()
		switch {
		case err == nil:
		case interrupted:
			fmt.Fprintln(s.Err, "statement interrupted")
			s.logger().Debugw("statement interrupted", "error", err)
		default:
			s.report(err)
		}
	}
}

func (s *Session) interrupt(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Interrupt != nil {
		return s.Interrupt(ctx)
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

func (s *Session) saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger().Warnw("cannot create history directory", "path", path, "error", err)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		s.logger().Warnw("cannot save history", "path", path, "error", err)
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		s.logger().Warnw("cannot save history", "path", path, "error", err)
	}
}

func (s *Session) logger() *zap.SugaredLogger {
	if s.Log == nil {
		return zap.NewNop().Sugar()
	}
	return s.Log
}
