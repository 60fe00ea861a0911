package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/refs"
)

func TestImport_WritesGraph(t *testing.T) {
	dir := t.TempDir()
	scenario := filepath.Join(dir, "thread.yaml")
	require.NoError(t, os.WriteFile(scenario, []byte(threadYAML), 0o644))
	path := filepath.Join(dir, "dit.db")

	out, _, err := execute(t, "import", "--db", path, "--format", "json", scenario)
	require.NoError(t, err)

	var result ImportResult
	decodeData(t, out, &result)
	assert.Equal(t, "thread", result.Scenario)
	assert.Equal(t, 4, result.Refs)
	require.Len(t, result.Nodes, 3)
	assert.Equal(t, dag.MustMessageID("A", nil).String(), result.Nodes["A"])

	a := dag.MustParseID(result.Nodes["A"])
	assert.Contains(t, refNames(t, path), refs.LocalHeadName(a))
}

func TestImport_Idempotent(t *testing.T) {
	dir := t.TempDir()
	scenario := filepath.Join(dir, "thread.yaml")
	require.NoError(t, os.WriteFile(scenario, []byte(threadYAML), 0o644))
	path := filepath.Join(dir, "dit.db")

	_, _, err := execute(t, "import", "--db", path, scenario)
	require.NoError(t, err)
	before := refNames(t, path)

	out, _, err := execute(t, "import", "--db", path, scenario)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 3 node(s) and 4 reference(s) from thread")
	assert.Equal(t, before, refNames(t, path))
}

func TestImport_BadScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(scenario, []byte("name: bad\n"), 0o644))

	out, _, err := execute(t, "import", "--db", filepath.Join(dir, "dit.db"), scenario)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeLoadFailed)
}
