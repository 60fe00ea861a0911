package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/harness"
	"github.com/roach88/ditgc/internal/refs"
	"github.com/roach88/ditgc/internal/store"
)

// threadYAML is issue A with messages A <- B <- C, its head at C, leaves at
// B and C, and a head mirrored from origin at C.
const threadYAML = `
name: thread
description: "three message thread"
nodes:
  - label: A
  - label: B
    parents: [A]
  - label: C
    parents: [B]
refs:
  - kind: local-head
    issue: A
    target: C
  - kind: local-leaf
    issue: A
    target: B
  - kind: local-leaf
    issue: A
    target: C
  - kind: remote-head
    remote: origin
    issue: A
    target: C
`

// seedDB writes a scenario graph into a new database file and closes it.
func seedDB(t *testing.T, yaml string) (string, *harness.Fixture) {
	t.Helper()
	s, err := harness.ParseScenario([]byte(yaml))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dit.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	f, err := harness.Build(context.Background(), st, s)
	require.NoError(t, err)
	return path, f
}

// mustID returns the id of a labeled node.
func mustID(t *testing.T, f *harness.Fixture, label string) dag.ID {
	t.Helper()
	v, ok := f.ID(label)
	require.True(t, ok, "unknown label %q", label)
	return v
}

// id returns the hex id of a labeled node.
func id(t *testing.T, f *harness.Fixture, label string) string {
	t.Helper()
	return mustID(t, f, label).String()
}

// leafName is the name of issue's local leaf at target.
func leafName(t *testing.T, f *harness.Fixture, issue, target string) string {
	t.Helper()
	return refs.LocalLeafName(mustID(t, f, issue), mustID(t, f, target))
}

// refNames lists the reference names in the database at path.
func refNames(t *testing.T, path string) []string {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	list, err := st.ListRefs(context.Background(), "")
	require.NoError(t, err)
	return refs.Names(list)
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// decodeData unmarshals the data of a JSON CLIResponse into v.
func decodeData(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var resp struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if v != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
	return resp.CLIResponse
}
