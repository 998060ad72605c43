// Package cli implements the ghsql command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ghsql/internal/engine"
	"github.com/mesh-intelligence/ghsql/internal/logging"
	"github.com/mesh-intelligence/ghsql/internal/output"
	"github.com/mesh-intelligence/ghsql/internal/paths"
	"github.com/mesh-intelligence/ghsql/internal/prompt"
	"github.com/mesh-intelligence/ghsql/pkg/project"
	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// ErrInvalidProjectNumber is returned for a PROJECT_NUMBER argument that is
// not a positive integer.
var ErrInvalidProjectNumber = errors.New("invalid project number")

// rootFlags holds flag values that are not settings keys.
type rootFlags struct {
	configDir string
	execute   string
}

// newStorage builds the backend for a session. Tests replace it.
var newStorage = project.NewBackend

// exitError carries the process exit code for err. Reported errors have
// already been printed.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(code int, err error) error {
	return &exitError{code: code, err: err}
}

// NewRootCmd creates the ghsql command.
func NewRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:   "ghsql [flags] OWNER PROJECT_NUMBER",
		Short: "Query and edit a GitHub project with SQL",
		Long: "ghsql exposes the items of a GitHub Projects board as SQL tables.\n" +
			"Without --execute it opens an interactive prompt.",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, flags)
		},
	}

	d := defaultSettings()
	fs := root.Flags()
	fs.StringVarP(&flags.execute, "execute", "e", "", "SQL statement to execute")
	fs.StringP("output", "o", d.Output, `output format: "table", "json" or their initials`)
	fs.String("transport", d.Transport, `remote transport: "http" or "gh"`)
	fs.String("endpoint", d.Endpoint, "GraphQL endpoint")
	fs.Int("max-pages", d.MaxPages, "item page cap, 0 = unlimited")
	fs.String("log-level", d.LogLevel, "log level written to stderr")
	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")

	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.ExecuteContext(context.Background())
	os.Exit(exitCode(err, root))
}

// exitCode prints err unless it was already reported and maps it to a code.
func exitCode(err error, cmd *cobra.Command) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return exitUserError
	}
	if !ee.reported {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", ee.err)
	}
	return ee.code
}

func run(cmd *cobra.Command, args []string, flags rootFlags) error {
	number, err := strconv.Atoi(args[1])
	if err != nil || number <= 0 {
		return fail(exitUserError, fmt.Errorf("%w: %q", ErrInvalidProjectNumber, args[1]))
	}

	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return fail(exitSysError, fmt.Errorf("resolve config directory: %w", err))
	}
	v, err := loadSettings(configDir, cmd.Flags())
	if err != nil {
		return fail(exitSysError, err)
	}

	format, err := output.ParseFormat(v.GetString(keyOutput))
	if err != nil {
		return fail(exitUserError, err)
	}
	logger, err := logging.New(v.GetString(keyLogLevel), logging.FormatConsole, cmd.ErrOrStderr())
	if err != nil {
		return fail(exitUserError, err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar().With("session", sessionID())

	storage, err := newStorage(projectConfig(v, args[0], number), log)
	if err != nil {
		return fail(exitUserError, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Resolve the project before the first statement so a wrong owner or
	// number fails fast.
	if _, err := storage.FetchSchema(ctx, types.TableItems); err != nil {
		return fail(exitUserError, err)
	}

	eng, err := engine.Open(storage, log.Named("engine"))
	if err != nil {
		return fail(exitSysError, err)
	}
	defer eng.Close()

	session := &prompt.Session{
		Exec:   eng,
		Format: format,
		Out:    cmd.OutOrStdout(),
		Err:    cmd.ErrOrStderr(),
		Log:    log.Named("prompt"),
	}
	if flags.execute != "" {
		if err := session.Batch(ctx, flags.execute); err != nil {
			return &exitError{code: exitUserError, err: err, reported: true}
		}
		return nil
	}
	// Interactively an interrupt cancels only the running statement.
	stop()
	return session.Interactive(cmd.Context(), paths.HistoryFile(configDir))
}

// sessionID tags every log line of one invocation.
func sessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
