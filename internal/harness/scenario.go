package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ditgc/internal/gc"
)

// Scenario defines a garbage collection scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the collection config. Ignored when Policy is set.
	Config gc.Config `yaml:"config,omitempty"`

	// Policy is an inline CUE policy, parsed with package policy.
	Policy string `yaml:"policy,omitempty"`

	// Nodes are written in order; parents must be defined earlier.
	Nodes []NodeStep `yaml:"nodes"`

	// Refs are created after all nodes.
	Refs []RefStep `yaml:"refs"`

	// Issues lists the issues to collect, by label of their initial
	// message. Empty means every issue with a local head.
	Issues []string `yaml:"issues,omitempty"`

	// Delete drains the deleting iterator after collection.
	Delete bool `yaml:"delete,omitempty"`

	// DeleteLimit stops deletion after this many references. Zero means
	// no limit. Implies Delete.
	DeleteLimit int `yaml:"delete_limit,omitempty"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is the fixed run id for log output. If empty, defaults to
	// "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// NodeStep writes one message.
type NodeStep struct {
	// Label names the node within the scenario.
	Label string `yaml:"label"`

	// Parents are labels of earlier nodes, first parent first.
	Parents []string `yaml:"parents,omitempty"`

	// Message is the message text. Defaults to Label.
	Message string `yaml:"message,omitempty"`
}

// RefStep creates one reference.
type RefStep struct {
	// Kind is one of local-head, local-leaf, remote-head, remote-leaf.
	Kind string `yaml:"kind"`

	// Issue is the label of the issue's initial message.
	Issue string `yaml:"issue"`

	// Target is the label of the node the reference points at.
	Target string `yaml:"target"`

	// Remote names the remote for remote kinds.
	Remote string `yaml:"remote,omitempty"`
}

// Reference kinds.
const (
	KindLocalHead  = "local-head"
	KindLocalLeaf  = "local-leaf"
	KindRemoteHead = "remote-head"
	KindRemoteLeaf = "remote-leaf"
)

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Refs are reference labels (removable, removable_contains, remaining).
	Refs []string `yaml:"refs,omitempty"`

	// Count is the expected number of removable references.
	Count int `yaml:"count,omitempty"`

	// Code is the expected dag error code (error).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertRemovable         = "removable"
	AssertRemovableContains = "removable_contains"
	AssertRemovableCount    = "removable_count"
	AssertRemaining         = "remaining"
	AssertError             = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and labels are
// consistent. Graph-level problems (unknown parents) are reported here too,
// so a bad fixture never reaches the store.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Nodes) == 0 {
		return fmt.Errorf("nodes list is required and must be non-empty")
	}
	if s.DeleteLimit < 0 {
		return fmt.Errorf("delete_limit must be non-negative")
	}

	defined := make(map[string]bool, len(s.Nodes))
	for i, n := range s.Nodes {
		if n.Label == "" {
			return fmt.Errorf("nodes[%d]: label is required", i)
		}
		if defined[n.Label] {
			return fmt.Errorf("nodes[%d]: label %q defined twice", i, n.Label)
		}
		for _, p := range n.Parents {
			if !defined[p] {
				return fmt.Errorf("nodes[%d]: parent %q must be defined before %q", i, p, n.Label)
			}
		}
		defined[n.Label] = true
	}

	for i, r := range s.Refs {
		if err := validateRef(r, defined); err != nil {
			return fmt.Errorf("refs[%d]: %w", i, err)
		}
	}

	for i, label := range s.Issues {
		if !defined[label] {
			return fmt.Errorf("issues[%d]: unknown node %q", i, label)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateRef(r RefStep, defined map[string]bool) error {
	switch r.Kind {
	case KindLocalHead, KindLocalLeaf:
		if r.Remote != "" {
			return fmt.Errorf("remote is not allowed for %s", r.Kind)
		}
	case KindRemoteHead, KindRemoteLeaf:
		if r.Remote == "" {
			return fmt.Errorf("remote is required for %s", r.Kind)
		}
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown kind %q", r.Kind)
	}
	if !defined[r.Issue] {
		return fmt.Errorf("unknown issue %q", r.Issue)
	}
	if !defined[r.Target] {
		return fmt.Errorf("unknown target %q", r.Target)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRemovable, AssertRemaining:
		// An empty list is a valid expectation.
	case AssertRemovableContains:
		if len(a.Refs) == 0 {
			return fmt.Errorf("assertions[%d]: refs list is required for removable_contains", index)
		}
	case AssertRemovableCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for removable_count", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
