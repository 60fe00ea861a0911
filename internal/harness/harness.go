package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/gc"
	"github.com/roach88/ditgc/internal/policy"
	"github.com/roach88/ditgc/internal/store"
	"github.com/roach88/ditgc/internal/testutil"
)

// Harness runs one scenario against one store.
type Harness struct {
	store   *store.Store
	fixture *Fixture
	runIDs  *testutil.FixedRunIDGenerator
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Create fresh in-memory database
//  2. Write the scenario's nodes and references
//  3. Collect removable references with the scenario's config
//  4. Delete them when the scenario asks for it
//  5. Evaluate assertions
//
// A collection failure is part of the result, not an error: scenarios
// assert on it with the error assertion. Errors are returned only for
// scenarios that cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	fixture, err := Build(ctx, st, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to build fixture: %w", err)
	}

	h := &Harness{
		store:   st,
		fixture: fixture,
		runIDs:  testutil.NewFixedRunIDGenerator(scenario.RunID),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	cfg, err := scenarioConfig(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	if err := h.collect(ctx, scenario, cfg, result); err != nil {
		return nil, err
	}

	remaining, err := st.ListRefs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list remaining refs: %w", err)
	}
	result.Remaining = fixture.RefLabels(remaining)
	sort.Strings(result.Remaining)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	if result.ErrorCode != "" && !hasAssertion(scenario.Assertions, AssertError) {
		result.AddError(fmt.Sprintf("collection failed with %s", result.ErrorCode))
	}

	return result, nil
}

func scenarioConfig(s *Scenario) (gc.Config, error) {
	if s.Policy == "" {
		return s.Config, nil
	}
	cfg, err := policy.Parse([]byte(s.Policy), s.Name+".cue")
	if err != nil {
		return gc.Config{}, fmt.Errorf("scenario policy: %w", err)
	}
	return cfg, nil
}

// collect runs the collector and, if requested, the deleting iterator.
func (h *Harness) collect(ctx context.Context, s *Scenario, cfg gc.Config, result *Result) error {
	issues, err := h.fixture.Issues(ctx, h.store, s.Issues)
	if err != nil {
		return err
	}

	c := gc.NewCollector(h.store, issues, cfg,
		gc.WithLogger(h.logger),
		gc.WithRunIDGenerator(h.runIDs),
	)
	removable, err := c.Collect(ctx)
	if err != nil {
		result.ErrorCode = errorCode(err)
		h.logger.Info("collection failed", "error", err)
		return nil
	}
	result.Removable = h.fixture.RefLabels(removable)

	if !s.Delete && s.DeleteLimit == 0 {
		return nil
	}

	it := gc.NewDeletingIter(h.store, removable)
	result.Deleted = []string{}
	for s.DeleteLimit == 0 || len(result.Deleted) < s.DeleteLimit {
		ref, err := it.Next(ctx)
		if errors.Is(err, gc.Done) {
			break
		}
		if err != nil {
			result.AddError(fmt.Sprintf("delete %s: %v", h.fixture.RefLabel(ref), err))
			continue
		}
		result.Deleted = append(result.Deleted, h.fixture.RefLabel(ref))
	}
	return nil
}

// errorCode returns the code of the outermost dag.Error in err.
func errorCode(err error) string {
	var de *dag.Error
	if errors.As(err, &de) {
		return string(de.Code)
	}
	return "UNKNOWN"
}

func hasAssertion(list []Assertion, typ string) bool {
	for _, a := range list {
		if a.Type == typ {
			return true
		}
	}
	return false
}
