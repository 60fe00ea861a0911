package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ditgc/internal/refs"
)

// RefsOptions holds flags for the refs command.
type RefsOptions struct {
	*RootOptions
	Database string
	Prefix   string
}

// RefEntry is one listed reference.
type RefEntry struct {
	Name   string `json:"name"`
	Target string `json:"target"`
	Issue  string `json:"issue"`
	Role   string `json:"role"`
	Remote string `json:"remote,omitempty"`
}

// RefList is the output of the refs command.
type RefList []RefEntry

// String renders the list like git show-ref.
func (l RefList) String() string {
	if len(l) == 0 {
		return "no references"
	}
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s", e.Target, e.Name)
	}
	return b.String()
}

// NewRefsCommand creates the refs command.
func NewRefsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RefsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "refs",
		Short: "List issue references",
		Long: `List the references stored in a database, ordered by name.

Examples:
  ditgc refs --db ./dit.db
  ditgc refs --db ./dit.db --prefix refs/remotes/origin/`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefs(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "refs/", "only list references with this prefix")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRefs(opts *RefsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	st, err := openExisting(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(logger, st)

	ctx, stop := signalContext(cmd)
	defer stop()

	list, err := st.ListRefs(ctx, opts.Prefix)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, "cannot list references", err)
	}

	out := make(RefList, len(list))
	for i, r := range list {
		out[i] = refEntry(r)
	}
	return formatter.Success(out)
}

func refEntry(r refs.Reference) RefEntry {
	return RefEntry{
		Name:   r.Name,
		Target: r.Target.String(),
		Issue:  r.Issue.String(),
		Role:   r.Role.String(),
		Remote: r.Remote,
	}
}
