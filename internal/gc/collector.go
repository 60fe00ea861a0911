package gc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/issue"
	"github.com/roach88/ditgc/internal/reach"
	"github.com/roach88/ditgc/internal/refs"
	"github.com/roach88/ditgc/internal/walk"
)

// ErrConsumed is returned when a Collector is run a second time.
var ErrConsumed = errors.New("gc: collector already consumed")

const tracerName = "github.com/roach88/ditgc/gc"

// Store is the DAG store and reference directory a collection runs against.
type Store interface {
	walk.Resolver
	reach.Peeler
	issue.Directory
	RefDeleter
}

// RunIDGenerator produces the id attached to every log line of a run.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRunIDGenerator replaces the UUIDv7 run id generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(c *Collector) {
		if g != nil {
			c.runIDs = g
		}
	}
}

// Collector computes the removable references of a set of issues.
//
// A Collector is single use: its traversals are drained by Collect and
// cannot be rerun. Build a new one for every run.
type Collector struct {
	store  Store
	issues []issue.Issue
	cfg    Config

	logger *slog.Logger
	runIDs RunIDGenerator

	consumed bool
}

// NewCollector prepares a run over issues. The issues slice is copied and an
// issue listed more than once is kept at its first position only.
func NewCollector(st Store, issues []issue.Issue, cfg Config, opts ...Option) *Collector {
	c := &Collector{
		store:  st,
		issues: make([]issue.Issue, 0, len(issues)),
		cfg:    cfg,
		logger: slog.Default(),
		runIDs: UUIDv7Generator{},
	}
	seen := make(map[dag.ID]struct{}, len(issues))
	for _, iss := range issues {
		if _, ok := seen[iss.ID]; ok {
			continue
		}
		seen[iss.ID] = struct{}{}
		c.issues = append(c.issues, iss)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the configuration of the run.
func (c *Collector) Config() Config {
	return c.cfg
}

// leafPlan accumulates the shared leaves pass across issues.
type leafPlan struct {
	seeds []dag.ID
	watch []refs.Reference
}

// Collect returns the references that can be deleted: redundant local heads
// in issue order, followed by redundant local leaves in traversal order.
//
// Any failure aborts the whole batch and no references are returned.
func (c *Collector) Collect(ctx context.Context) (removable []refs.Reference, retErr error) {
	if c.consumed {
		return nil, ErrConsumed
	}
	c.consumed = true

	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	runID := c.runIDs.Generate()
	log := c.logger.With("run_id", runID)
	start := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "gc.collect",
		trace.WithAttributes(
			attribute.String("gc.run_id", runID),
			attribute.Int("gc.issues", len(c.issues)),
			attribute.Bool("gc.consider_remote_refs", c.cfg.ConsiderRemoteRefs),
			attribute.String("gc.collect_heads", c.cfg.CollectHeads.String()),
		),
	)
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(codes.Error, retErr.Error())
		} else {
			span.SetAttributes(attribute.Int("gc.removable", len(removable)))
		}
		span.End()
	}()

	log.Info("gc starting", "issues", len(c.issues), "config", c.cfg.String())

	var heads []refs.Reference
	plan := &leafPlan{}
	for _, iss := range c.issues {
		head, err := c.planIssue(ctx, log, iss, plan)
		if err != nil {
			log.Error("gc aborted", "issue", iss.ID.Short(), "error", err)
			span.AddEvent("gc.issue_failed", trace.WithAttributes(attribute.String("gc.issue", iss.String())))
			return nil, fmt.Errorf("issue %s: %w", iss.ID.Short(), err)
		}
		heads = append(heads, head...)
	}

	leaves, err := c.drainLeaves(ctx, log, plan)
	if err != nil {
		log.Error("gc aborted", "pass", "leaves", "error", err)
		return nil, err
	}

	removable = append(heads, leaves...)
	log.Info("gc computed",
		"removable", len(removable),
		"heads", len(heads),
		"leaves", len(leaves),
		"duration", time.Since(start),
	)
	return removable, nil
}

// planIssue adds the issue's share of the leaves pass to plan and runs its
// head pass, returning the head if it is redundant.
func (c *Collector) planIssue(ctx context.Context, log *slog.Logger, iss issue.Issue, plan *leafPlan) ([]refs.Reference, error) {
	head, err := iss.LocalHead(ctx, c.store)
	if err != nil {
		return nil, err
	}
	headTarget, err := c.store.PeelToNode(ctx, head)
	if err != nil {
		return nil, err
	}
	// Anything the head contains is subsumed.
	plan.seeds = append(plan.seeds, headTarget)

	leaves, err := iss.LocalRefs(ctx, c.store, refs.Leaf)
	if err != nil {
		return nil, err
	}
	for _, leaf := range leaves {
		target, err := c.store.PeelToNode(ctx, leaf)
		if err != nil {
			return nil, err
		}
		node, err := c.store.ResolveNode(ctx, target)
		if err != nil {
			return nil, err
		}
		// Seed the parents, not the leaf itself, so a leaf never justifies
		// its own removal.
		plan.seeds = append(plan.seeds, node.Parents...)
		plan.watch = append(plan.watch, leaf)
	}

	var remoteHeads, remoteLeaves []refs.Reference
	if c.cfg.ConsiderRemoteRefs || c.cfg.CollectHeads == BackedByRemoteHead {
		remoteHeads, remoteLeaves, err = iss.RemoteRefsByRole(ctx, c.store)
		if err != nil {
			return nil, err
		}
	}

	if c.cfg.ConsiderRemoteRefs {
		for _, r := range slices.Concat(remoteLeaves, remoteHeads) {
			target, err := c.store.PeelToNode(ctx, r)
			if err != nil {
				return nil, err
			}
			plan.seeds = append(plan.seeds, target)
		}
	}

	log.Debug("issue planned",
		"issue", iss.ID.Short(),
		"leaves", len(leaves),
		"seeds", len(plan.seeds),
	)

	return c.headPass(ctx, head, remoteHeads)
}

// headPass checks the local head against its own traversal, seeded per
// policy. Under Never the traversal has no seeds and nothing can fire.
func (c *Collector) headPass(ctx context.Context, head refs.Reference, remoteHeads []refs.Reference) ([]refs.Reference, error) {
	w := walk.New(c.store, walk.Options{})

	if c.cfg.CollectHeads == BackedByRemoteHead {
		for _, r := range remoteHeads {
			target, err := c.store.PeelToNode(ctx, r)
			if err != nil {
				return nil, err
			}
			if err := w.Push(ctx, target); err != nil {
				return nil, err
			}
		}
	}

	idx := reach.New(w, c.store)
	if err := idx.WatchRef(ctx, head); err != nil {
		return nil, err
	}
	return idx.Collect(ctx)
}

func (c *Collector) drainLeaves(ctx context.Context, log *slog.Logger, plan *leafPlan) ([]refs.Reference, error) {
	w := walk.New(c.store, walk.Options{})
	if err := w.Push(ctx, plan.seeds...); err != nil {
		return nil, err
	}

	idx := reach.New(w, c.store)
	if err := idx.WatchRefs(ctx, plan.watch); err != nil {
		return nil, err
	}
	out, err := idx.Collect(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("leaves pass drained", "visited", idx.Visited(), "kept", idx.Watched())
	return out, nil
}

// Deleter computes the removable set and returns an iterator that deletes
// it one reference at a time.
func (c *Collector) Deleter(ctx context.Context) (*DeletingIter, error) {
	removable, err := c.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return NewDeletingIter(c.store, removable), nil
}
