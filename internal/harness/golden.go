package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ditgc/internal/dag"
)

// Snapshot captures the outcome of a scenario for golden comparison.
type Snapshot struct {
	ScenarioName string
	Removable    []string
	Deleted      []string
	Remaining    []string
	ErrorCode    string
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. Optional parts are omitted so a golden file only shows what
// the scenario exercised.
func (s *Snapshot) toCanonicalMap() map[string]any {
	result := map[string]any{
		"scenario":  s.ScenarioName,
		"remaining": nonNil(s.Remaining),
	}
	if s.ErrorCode != "" {
		result["error"] = s.ErrorCode
	} else {
		result["removable"] = nonNil(s.Removable)
	}
	if s.Deleted != nil {
		result["deleted"] = s.Deleted
	}
	return result
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// SnapshotOf builds the snapshot of a result.
func SnapshotOf(name string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: name,
		Removable:    result.Removable,
		Deleted:      result.Deleted,
		Remaining:    result.Remaining,
		ErrorCode:    result.ErrorCode,
	}
}

// MarshalSnapshot renders a snapshot as canonical JSON.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return dag.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its outcome against a golden
// file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcome doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(SnapshotOf(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
