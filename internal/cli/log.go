package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/issue"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
}

// LogEntry is one message of an issue thread.
type LogEntry struct {
	ID      string   `json:"id"`
	Parents []string `json:"parents,omitempty"`
	Message string   `json:"message"`
}

// LogResult is the output of the log command, newest message first.
type LogResult struct {
	Issue    string     `json:"issue"`
	Messages []LogEntry `json:"messages"`
}

// String renders one line per message: short id and first line of text.
func (r LogResult) String() string {
	var b strings.Builder
	for i, m := range r.Messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		subject, _, _ := strings.Cut(m.Message, "\n")
		fmt.Fprintf(&b, "%s %s", m.ID[:12], subject)
	}
	return b.String()
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log <issue>",
		Short: "Show the messages of an issue",
		Long: `Print the messages of an issue from its local head back to the initial
message, following first parents only.

Example:
  ditgc log --db ./dit.db 3f2a...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLog(opts *LogOptions, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	ids, err := parseIDs(formatter, "issue", []string{arg})
	if err != nil {
		return err
	}

	st, err := openExisting(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(logger, st)

	ctx, stop := signalContext(cmd)
	defer stop()

	iss := issue.New(ids[0])
	head, err := iss.LocalHead(ctx, st)
	if err != nil {
		if errors.Is(err, issue.ErrNoHead) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("issue %s has no local head", iss.ID.Short()), nil)
		}
		return formatter.Fail(ExitFailure, ErrCodeStore, "cannot read head", err)
	}
	target, err := st.PeelToNode(ctx, head)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, "cannot read head", err)
	}

	thread, err := issue.Messages(ctx, st, target)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, "cannot walk messages", err)
	}

	result := LogResult{Issue: iss.ID.String(), Messages: make([]LogEntry, len(thread))}
	for i, n := range thread {
		result.Messages[i] = LogEntry{
			ID:      n.ID.String(),
			Parents: idStrings(n.Parents),
			Message: n.Message,
		}
	}
	return formatter.Success(result)
}

func idStrings(ids []dag.ID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
