package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/gc"
	"github.com/roach88/ditgc/internal/issue"
	"github.com/roach88/ditgc/internal/policy"
	"github.com/roach88/ditgc/internal/refs"
	"github.com/roach88/ditgc/internal/store"
)

// GCOptions holds flags for the gc command.
type GCOptions struct {
	*RootOptions
	Database     string
	Issues       []string
	Policy       string
	RemoteRefs   bool
	CollectHeads string
	DryRun       bool

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to gc.UUIDv7Generator.
	RunIDs gc.RunIDGenerator
}

// GCResult is the outcome of a gc run.
type GCResult struct {
	Config    gc.Config    `json:"config"`
	DryRun    bool         `json:"dry_run"`
	Removable []string     `json:"removable"`
	Deleted   []string     `json:"deleted,omitempty"`
	Skipped   []string     `json:"skipped,omitempty"`
	Failed    []RefFailure `json:"failed,omitempty"`
}

// RefFailure is a reference that could not be deleted.
type RefFailure struct {
	Ref   string `json:"ref"`
	Error string `json:"error"`
}

// String renders the result for text output.
func (r GCResult) String() string {
	var b strings.Builder
	verb := "removed"
	if r.DryRun {
		verb = "would remove"
		for _, name := range r.Removable {
			fmt.Fprintf(&b, "%s %s\n", verb, name)
		}
	}
	for _, name := range r.Deleted {
		fmt.Fprintf(&b, "%s %s\n", verb, name)
	}
	for _, name := range r.Skipped {
		fmt.Fprintf(&b, "skipped %s (already moved or deleted)\n", name)
	}
	for _, f := range r.Failed {
		fmt.Fprintf(&b, "failed %s: %s\n", f.Ref, f.Error)
	}
	if r.DryRun {
		fmt.Fprintf(&b, "%d removable reference(s) (%s)", len(r.Removable), r.Config)
	} else {
		fmt.Fprintf(&b, "%d of %d removable reference(s) deleted (%s)", len(r.Deleted), len(r.Removable), r.Config)
	}
	return b.String()
}

// NewGCCommand creates the gc command.
func NewGCCommand(rootOpts *RootOptions) *cobra.Command {
	return newGCCommand(&GCOptions{RootOptions: rootOpts})
}

func newGCCommand(opts *GCOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete redundant issue references",
		Long: `Compute the references that no longer carry information and delete them.

Local leaves already contained in the issue's head are always redundant.
With --remote-refs, leaves and heads mirrored from remotes also make local
leaves redundant. With --collect-heads backed-by-remote-head, a local head
contained in a remote head is removed too. Remote references are never
deleted.

Flags override the values of the policy file.

Examples:
  ditgc gc --db ./dit.db
  ditgc gc --db ./dit.db --issue 3f2a... --dry-run
  ditgc gc --db ./dit.db --policy gc.cue --collect-heads never`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGC(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringArrayVar(&opts.Issues, "issue", nil, "issue id to collect (repeatable; default: all issues with a local head)")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "CUE policy file")
	cmd.Flags().BoolVar(&opts.RemoteRefs, "remote-refs", false, "let remote references subsume local leaves")
	cmd.Flags().StringVar(&opts.CollectHeads, "collect-heads", gc.Never.String(), "head policy (never|backed-by-remote-head)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report removable references without deleting them")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runGC(opts *GCOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := gcConfig(opts, cmd, formatter)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Config: %s", cfg)

	st, err := openExisting(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(logger, st)

	ctx, stop := signalContext(cmd)
	defer stop()

	issues, err := selectIssues(ctx, formatter, st, opts.Issues)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Collecting %d issue(s)", len(issues))

	c := gc.NewCollector(st, issues, cfg,
		gc.WithLogger(logger),
		gc.WithRunIDGenerator(opts.RunIDs),
	)
	removable, err := c.Collect(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeCollect, err.Error(), dagErrorDetails(err))
		return WrapExitError(ExitFailure, ErrCodeCollect+": collection aborted", err)
	}

	result := GCResult{
		Config:    cfg,
		DryRun:    opts.DryRun,
		Removable: refs.Names(removable),
	}
	if !opts.DryRun {
		if err := deleteRemovable(ctx, st, removable, &result); err != nil {
			_ = formatter.Success(result)
			return WrapExitError(ExitFailure, "deletion interrupted", err)
		}
	}

	if err := formatter.Success(result); err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d deletion(s) failed", ErrCodeDelete, len(result.Failed)))
	}
	return nil
}

// gcConfig loads the policy file, if any, and applies the flags that were
// set explicitly on top of it.
func gcConfig(opts *GCOptions, cmd *cobra.Command, f *OutputFormatter) (gc.Config, error) {
	cfg := gc.DefaultConfig()
	if opts.Policy != "" {
		loaded, err := policy.Load(opts.Policy)
		if err != nil {
			var pe *policy.Error
			if errors.As(err, &pe) {
				return gc.Config{}, f.Fail(ExitCommandError, ErrCodeInvalidPolicy, "invalid policy", err)
			}
			return gc.Config{}, f.Fail(ExitCommandError, ErrCodeLoadFailed, "cannot load policy", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("remote-refs") {
		cfg.ConsiderRemoteRefs = opts.RemoteRefs
	}
	if cmd.Flags().Changed("collect-heads") {
		hp, err := gc.ParseHeadPolicy(opts.CollectHeads)
		if err != nil {
			return gc.Config{}, f.Fail(ExitCommandError, ErrCodeInvalidFlag, "invalid --collect-heads", err)
		}
		cfg.CollectHeads = hp
	}
	return cfg, nil
}

// selectIssues resolves --issue values, or lists every issue with a local
// head when none were given.
func selectIssues(ctx context.Context, f *OutputFormatter, st *store.Store, values []string) ([]issue.Issue, error) {
	if len(values) == 0 {
		issues, err := issue.List(ctx, st)
		if err != nil {
			return nil, f.Fail(ExitFailure, ErrCodeStore, "cannot list issues", err)
		}
		return issues, nil
	}

	ids, err := parseIDs(f, "issue", values)
	if err != nil {
		return nil, err
	}
	issues := make([]issue.Issue, 0, len(ids))
	seen := make(map[dag.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		iss, err := issue.Find(ctx, st, id)
		if err != nil {
			if errors.Is(err, issue.ErrNoHead) {
				return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("issue %s not found", id.Short()), nil)
			}
			return nil, f.Fail(ExitFailure, ErrCodeStore, "cannot look up issue", err)
		}
		issues = append(issues, iss)
	}
	return issues, nil
}

// deleteRemovable drains a deleting iterator into result. References that
// moved or vanished since collection are skipped; other failures are
// recorded and deletion continues. Only cancellation stops it early.
func deleteRemovable(ctx context.Context, st *store.Store, removable []refs.Reference, result *GCResult) error {
	result.Deleted = []string{}
	it := gc.NewDeletingIter(st, removable)
	for {
		ref, err := it.Next(ctx)
		switch {
		case errors.Is(err, gc.Done):
			return nil
		case err == nil:
			result.Deleted = append(result.Deleted, ref.Name)
		case ctx.Err() != nil:
			return err
		case gc.IsMissing(err):
			result.Skipped = append(result.Skipped, ref.Name)
		default:
			result.Failed = append(result.Failed, RefFailure{Ref: ref.Name, Error: err.Error()})
		}
	}
}
