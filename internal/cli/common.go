package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/store"
)

// newFormatter builds the formatter for a command. Verbose logs go to stderr
// to avoid corrupting JSON.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// newLogger returns a text logger on w at Info, or Debug with --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// openExisting opens a database that must already exist.
func openExisting(f *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
		}
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, "cannot access database", err)
	}
	return openStore(f, path)
}

// openStore opens (creating if needed) the database at path.
func openStore(f *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	return st, nil
}

// closeStore closes st, logging a failure.
func closeStore(log *slog.Logger, st *store.Store) {
	if err := st.Close(); err != nil {
		log.Error("error closing database", "error", err)
	}
}

// signalContext derives a context from the command that is cancelled on
// SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// parseIDs parses hex node ids given on the command line.
func parseIDs(f *OutputFormatter, flag string, values []string) ([]dag.ID, error) {
	ids := make([]dag.ID, len(values))
	for i, v := range values {
		id, err := dag.ParseID(v)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeInvalidFlag, fmt.Sprintf("invalid --%s %q", flag, v), err)
		}
		ids[i] = id
	}
	return ids, nil
}

// dagErrorDetails exposes the code of a dag.Error for JSON output.
func dagErrorDetails(err error) any {
	var de *dag.Error
	if !errors.As(err, &de) {
		return nil
	}
	details := map[string]string{"code": string(de.Code)}
	if de.Ref != "" {
		details["ref"] = de.Ref
	}
	if !de.Node.IsZero() {
		details["node"] = de.Node.String()
	}
	return details
}
