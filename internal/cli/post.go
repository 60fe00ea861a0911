package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ditgc/internal/issue"
)

// PostOptions holds flags for the post command.
type PostOptions struct {
	*RootOptions
	Database string
	Issue    string
	Parents  []string
	Message  string
}

// PostResult describes the message written by the post command.
type PostResult struct {
	ID  string `json:"id"`
	Ref string `json:"ref"`
}

// String renders the result for text output.
func (r PostResult) String() string {
	return fmt.Sprintf("%s %s", r.ID, r.Ref)
}

// NewPostCommand creates the post command.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Write a message",
		Long: `Write a message and point a reference at it.

Without --issue the message starts a new issue and becomes its head.
With --issue the message is a reply and a leaf reference of that issue
is created for it.

Examples:
  ditgc post --db ./dit.db -m "Crash on startup"
  ditgc post --db ./dit.db --issue 3f2a... --parent 3f2a... -m "Cannot reproduce"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Issue, "issue", "", "issue to reply to")
	cmd.Flags().StringArrayVar(&opts.Parents, "parent", nil, "parent message id (repeatable, first parent first)")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "message text (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func runPost(opts *PostOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	parents, err := parseIDs(formatter, "parent", opts.Parents)
	if err != nil {
		return err
	}

	var iss *issue.Issue
	if opts.Issue != "" {
		ids, err := parseIDs(formatter, "issue", []string{opts.Issue})
		if err != nil {
			return err
		}
		i := issue.New(ids[0])
		iss = &i
	}

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(logger, st)

	ctx, stop := signalContext(cmd)
	defer stop()

	node, ref, err := issue.CreateMessage(ctx, st, iss, opts.Message, parents)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, "cannot write message", err)
	}
	logger.Debug("message posted", "id", node.ID.Short(), "ref", ref.Name)

	return formatter.Success(PostResult{ID: node.ID.String(), Ref: ref.Name})
}
