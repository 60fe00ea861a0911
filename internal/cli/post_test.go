package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/refs"
)

func TestPost_NewIssueThenReply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dit.db")

	out, _, err := execute(t, "post", "--db", path, "--format", "json", "-m", "Crash on startup")
	require.NoError(t, err)
	var first PostResult
	decodeData(t, out, &first)
	root := dag.MustParseID(first.ID)
	assert.Equal(t, refs.LocalHeadName(root), first.Ref)

	out, _, err = execute(t, "post", "--db", path, "--format", "json",
		"--issue", first.ID, "--parent", first.ID, "-m", "Cannot reproduce")
	require.NoError(t, err)
	var reply PostResult
	decodeData(t, out, &reply)
	assert.Equal(t, refs.LocalLeafName(root, dag.MustParseID(reply.ID)), reply.Ref)

	assert.ElementsMatch(t, []string{first.Ref, reply.Ref}, refNames(t, path))

	// The reply is not in the head yet, so nothing is removable.
	out, _, err = execute(t, "gc", "--db", path, "--dry-run", "--format", "json")
	require.NoError(t, err)
	var result GCResult
	decodeData(t, out, &result)
	assert.Empty(t, result.Removable)
}

func TestPost_UnknownParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dit.db")
	ghost := dag.MustMessageID("ghost", nil)

	_, _, err := execute(t, "post", "--db", path, "--parent", ghost.String(), "-m", "orphan")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, dag.IsLookupError(err))
}

func TestPost_MessageRequired(t *testing.T) {
	_, _, err := execute(t, "post", "--db", filepath.Join(t.TempDir(), "dit.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"message"`)
}
