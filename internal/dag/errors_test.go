package dag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Predicates(t *testing.T) {
	id := MustMessageID("x", nil)

	lookup := NewLookupError(id, errors.New("no rows"))
	assert.True(t, IsLookupError(lookup))
	assert.False(t, IsPeelError(lookup))

	peel := NewPeelError("refs/dit/x/head", id, lookup)
	assert.True(t, IsPeelError(peel))
	assert.True(t, IsLookupError(peel), "codes are found through nested Errors")

	wrapped := fmt.Errorf("collect: %w", NewTraversalError(lookup))
	assert.True(t, IsTraversalError(wrapped))
	assert.True(t, IsLookupError(wrapped))
	assert.False(t, IsDeletionError(wrapped))

	assert.True(t, IsDeletionError(NewDeletionError("refs/dit/x/head", nil)))
	assert.False(t, IsLookupError(errors.New("plain")))
	assert.False(t, IsLookupError(nil))
}

func TestError_Message(t *testing.T) {
	id := MustMessageID("x", nil)

	err := NewLookupError(id, errors.New("no rows"))
	assert.Equal(t, fmt.Sprintf("LOOKUP_FAILED: cannot resolve node (node=%s): no rows", id), err.Error())

	del := NewDeletionError("refs/dit/a/head", nil)
	assert.Equal(t, "DELETION_FAILED: cannot delete reference (ref=refs/dit/a/head)", del.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewDeletionError("r", cause)
	assert.ErrorIs(t, err, cause)
}

func TestError_RefLookup(t *testing.T) {
	err := NewRefLookupError("refs/dit/a/head", errors.New("missing"))
	assert.True(t, IsLookupError(err))
	assert.Equal(t, "LOOKUP_FAILED: cannot resolve reference (ref=refs/dit/a/head): missing", err.Error())
}
