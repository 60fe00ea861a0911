package dag

import (
	"errors"
	"fmt"
)

// Error is a failure while resolving, peeling, traversing or deleting.
//
// Categories:
//   - Lookup: a node id or reference could not be resolved
//   - Peel: a reference does not resolve to a stored node
//   - Traversal: an ancestry walk failed part way through
//   - Deletion: a reference could not be removed
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node identifies the affected node, if any.
	Node ID

	// Ref names the affected reference, if any.
	Ref string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeLookup indicates an id or reference could not be resolved.
	ErrCodeLookup ErrorCode = "LOOKUP_FAILED"

	// ErrCodePeel indicates a reference does not point at a node.
	ErrCodePeel ErrorCode = "PEEL_FAILED"

	// ErrCodeTraversal indicates the underlying ancestry walk failed.
	ErrCodeTraversal ErrorCode = "TRAVERSAL_FAILED"

	// ErrCodeDeletion indicates a reference could not be deleted.
	ErrCodeDeletion ErrorCode = "DELETION_FAILED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Ref != "" {
		msg += fmt.Sprintf(" (ref=%s)", e.Ref)
	} else if !e.Node.IsZero() {
		msg += fmt.Sprintf(" (node=%s)", e.Node)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// IsLookupError reports whether err, or any error it wraps, is a lookup failure.
func IsLookupError(err error) bool {
	return hasCode(err, ErrCodeLookup)
}

// IsPeelError reports whether err, or any error it wraps, is a peel failure.
func IsPeelError(err error) bool {
	return hasCode(err, ErrCodePeel)
}

// IsTraversalError reports whether err, or any error it wraps, is a traversal failure.
func IsTraversalError(err error) bool {
	return hasCode(err, ErrCodeTraversal)
}

// IsDeletionError reports whether err, or any error it wraps, is a deletion failure.
func IsDeletionError(err error) bool {
	return hasCode(err, ErrCodeDeletion)
}

// NewLookupError creates an Error for an unresolvable node.
func NewLookupError(id ID, cause error) *Error {
	return &Error{
		Code:    ErrCodeLookup,
		Message: "cannot resolve node",
		Node:    id,
		Err:     cause,
	}
}

// NewRefLookupError creates an Error for a reference that could not be found.
func NewRefLookupError(ref string, cause error) *Error {
	return &Error{
		Code:    ErrCodeLookup,
		Message: "cannot resolve reference",
		Ref:     ref,
		Err:     cause,
	}
}

// NewPeelError creates an Error for a reference that does not peel to a node.
func NewPeelError(ref string, target ID, cause error) *Error {
	return &Error{
		Code:    ErrCodePeel,
		Message: "reference does not resolve to a node",
		Node:    target,
		Ref:     ref,
		Err:     cause,
	}
}

// NewTraversalError wraps a failure raised while walking ancestry.
func NewTraversalError(cause error) *Error {
	return &Error{
		Code:    ErrCodeTraversal,
		Message: "ancestry traversal failed",
		Err:     cause,
	}
}

// NewDeletionError creates an Error for a reference that could not be deleted.
func NewDeletionError(ref string, cause error) *Error {
	return &Error{
		Code:    ErrCodeDeletion,
		Message: "cannot delete reference",
		Ref:     ref,
		Err:     cause,
	}
}
