package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ditgc/internal/gc"
)

const minimalScenario = `
name: minimal
description: "One issue, one leaf"
config:
  consider_remote_refs: true
  collect_heads: backed-by-remote-head
nodes:
  - label: A
  - label: B
    parents: [A]
    message: "first reply"
refs:
  - kind: local-head
    issue: A
    target: B
  - kind: remote-leaf
    remote: origin
    issue: A
    target: B
delete_limit: 2
assertions:
  - type: removable_count
    count: 0
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, gc.Config{ConsiderRemoteRefs: true, CollectHeads: gc.BackedByRemoteHead}, s.Config)
	require.Len(t, s.Nodes, 2)
	assert.Equal(t, []string{"A"}, s.Nodes[1].Parents)
	assert.Equal(t, "first reply", s.Nodes[1].Message)
	require.Len(t, s.Refs, 2)
	assert.Equal(t, KindRemoteLeaf, s.Refs[1].Kind)
	assert.Equal(t, "origin", s.Refs[1].Remote)
	assert.Equal(t, 2, s.DeleteLimit)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, AssertRemovableCount, s.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "misspelled key"
nodes:
  - label: A
assertion:
  - type: removable
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_UnknownHeadPolicy(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: bad
description: "bad policy"
config:
  collect_heads: always
nodes:
  - label: A
`))
	require.Error(t, err)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: x\nnodes: [{label: A}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\nnodes: [{label: A}]\n",
			want: "description is required",
		},
		{
			name: "no nodes",
			yaml: "name: x\ndescription: x\n",
			want: "nodes list is required",
		},
		{
			name: "duplicate label",
			yaml: "name: x\ndescription: x\nnodes: [{label: A}, {label: A}]\n",
			want: `label "A" defined twice`,
		},
		{
			name: "parent defined later",
			yaml: "name: x\ndescription: x\nnodes: [{label: B, parents: [A]}, {label: A}]\n",
			want: `parent "A" must be defined before "B"`,
		},
		{
			name: "unknown ref kind",
			yaml: "name: x\ndescription: x\nnodes: [{label: A}]\nrefs: [{kind: tag, issue: A, target: A}]\n",
			want: `unknown kind "tag"`,
		},
		{
			name: "remote kind without remote",
			yaml: "name: x\ndescription: x\nnodes: [{label: A}]\nrefs: [{kind: remote-head, issue: A, target: A}]\n",
			want: "remote is required",
		},
		{
			name: "local kind with remote",
			yaml: "name: x\ndescription: x\nnodes: [{label: A}]\nrefs: [{kind: local-head, remote: origin, issue: A, target: A}]\n",
			want: "remote is not allowed",
		},
		{
			name: "unknown target",
			yaml: "name: x\ndescription: x\nnodes: [{label: A}]\nrefs: [{kind: local-leaf, issue: A, target: Z}]\n",
			want: `unknown target "Z"`,
		},
		{
			name: "unknown issue",
			yaml: "name: x\ndescription: x\nnodes: [{label: A}]\nissues: [Z]\n",
			want: `issues[0]: unknown node "Z"`,
		},
		{
			name: "negative delete limit",
			yaml: "name: x\ndescription: x\nnodes: [{label: A}]\ndelete_limit: -1\n",
			want: "delete_limit must be non-negative",
		},
		{
			name: "error without code",
			yaml: "name: x\ndescription: x\nnodes: [{label: A}]\nassertions: [{type: error}]\n",
			want: "code is required",
		},
		{
			name: "contains without refs",
			yaml: "name: x\ndescription: x\nnodes: [{label: A}]\nassertions: [{type: removable_contains}]\n",
			want: "refs list is required",
		},
		{
			name: "unknown assertion",
			yaml: "name: x\ndescription: x\nnodes: [{label: A}]\nassertions: [{type: trace_contains}]\n",
			want: `unknown assertion type "trace_contains"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
