package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ditgc/internal/dag"
)

var (
	issueID = dag.MustMessageID("initial", nil)
	replyID = dag.MustMessageID("reply", []dag.ID{issueID})
)

func TestParse_LocalHead(t *testing.T) {
	ref, err := Parse(LocalHeadName(issueID), replyID)
	require.NoError(t, err)

	assert.Equal(t, Local, ref.Scope)
	assert.Equal(t, Head, ref.Role)
	assert.Equal(t, issueID, ref.Issue)
	assert.Equal(t, replyID, ref.Target)
	assert.Empty(t, ref.Remote)
}

func TestParse_LocalLeaf(t *testing.T) {
	ref, err := Parse(LocalLeafName(issueID, replyID), replyID)
	require.NoError(t, err)

	assert.Equal(t, Local, ref.Scope)
	assert.Equal(t, Leaf, ref.Role)
	assert.Equal(t, issueID, ref.Issue)
}

func TestParse_RemoteRefs(t *testing.T) {
	head, err := Parse(RemoteHeadName("origin", issueID), issueID)
	require.NoError(t, err)
	assert.Equal(t, Remote, head.Scope)
	assert.Equal(t, Head, head.Role)
	assert.Equal(t, "origin", head.Remote)

	leaf, err := Parse(RemoteLeafName("upstream", issueID, replyID), replyID)
	require.NoError(t, err)
	assert.Equal(t, Remote, leaf.Scope)
	assert.Equal(t, Leaf, leaf.Role)
	assert.Equal(t, "upstream", leaf.Remote)
}

func TestParse_RejectsForeignLayouts(t *testing.T) {
	cases := []string{
		"refs/heads/main",
		"refs/dit/not-an-id/head",
		"refs/dit/" + issueID.String() + "/tail",
		"refs/dit/" + issueID.String() + "/leaves/xyz",
		"refs/dit/" + issueID.String() + "/leaves",
		"refs/remotes/origin/" + issueID.String() + "/head",
	}
	for _, name := range cases {
		_, err := Parse(name, issueID)
		assert.Error(t, err, name)
	}
}

func TestRemoteNames_NFCNormalized(t *testing.T) {
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"
	assert.Equal(t, RemoteHeadName(composed, issueID), RemoteHeadName(decomposed, issueID))
	assert.Equal(t, RemotePrefix+composed+"/dit/", RemoteIssuesPrefix(decomposed))
}

func TestParse_RejectsDecomposedRemote(t *testing.T) {
	decomposed := "cafe\u0301"
	name := RemotePrefix + decomposed + "/dit/" + issueID.String() + "/head"

	_, err := Parse(name, issueID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NFC")

	ref, err := Parse(RemoteHeadName(decomposed, issueID), issueID)
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", ref.Remote)
}

func TestValidateRemote(t *testing.T) {
	assert.NoError(t, ValidateRemote("origin"))
	assert.Error(t, ValidateRemote(""))
	assert.Error(t, ValidateRemote("a/b"))
	assert.Error(t, ValidateRemote(".."))
}

func TestScopeRoleStrings(t *testing.T) {
	assert.Equal(t, "local", Local.String())
	assert.Equal(t, "remote", Remote.String())
	assert.Equal(t, "head", Head.String())
	assert.Equal(t, "leaf", Leaf.String())
}

func TestNames(t *testing.T) {
	refs := []Reference{
		MustParse(LocalHeadName(issueID), issueID),
		MustParse(LocalLeafName(issueID, replyID), replyID),
	}
	assert.Equal(t, []string{LocalHeadName(issueID), LocalLeafName(issueID, replyID)}, Names(refs))
	assert.Equal(t, LocalIssuePrefix(issueID)+"head", refs[0].String())
}
