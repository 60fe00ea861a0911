// Package issue groups references and messages by the thread they belong to.
//
// An issue is identified by the id of its initial message. Its references
// live in the reference directory (see package refs for the layout): exactly
// one local head, any number of local leaves, and optionally heads and
// leaves mirrored from remotes.
package issue

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/refs"
	"github.com/roach88/ditgc/internal/store"
)

// ErrNoHead means no head reference exists for an issue, locally or remotely.
var ErrNoHead = errors.New("issue has no head reference")

// Directory is the read side of the reference directory.
type Directory interface {
	ReadRef(ctx context.Context, name string) (refs.Reference, error)
	ListRefs(ctx context.Context, prefix string) ([]refs.Reference, error)
}

// Issue is a message thread rooted at its initial message.
type Issue struct {
	ID dag.ID
}

// New returns the issue rooted at id. It does not check that the issue exists;
// use Find for that.
func New(id dag.ID) Issue {
	return Issue{ID: id}
}

// String returns the issue id in hex.
func (i Issue) String() string {
	return i.ID.String()
}

// LocalHead returns the issue's local head. A missing head is a
// LOOKUP_FAILED dag.Error.
func (i Issue) LocalHead(ctx context.Context, dir Directory) (refs.Reference, error) {
	name := refs.LocalHeadName(i.ID)
	ref, err := dir.ReadRef(ctx, name)
	if errors.Is(err, store.ErrRefNotFound) {
		return refs.Reference{}, dag.NewRefLookupError(name, fmt.Errorf("%w: %s", ErrNoHead, i.ID.Short()))
	}
	if err != nil {
		return refs.Reference{}, dag.NewRefLookupError(name, err)
	}
	return ref, nil
}

// LocalRefs returns the issue's local references of the given role, ordered
// by name.
func (i Issue) LocalRefs(ctx context.Context, dir Directory, role refs.Role) ([]refs.Reference, error) {
	list, err := dir.ListRefs(ctx, refs.LocalIssuePrefix(i.ID))
	if err != nil {
		return nil, fmt.Errorf("issue %s: local refs: %w", i.ID.Short(), err)
	}
	return filter(list, func(r refs.Reference) bool {
		return r.Scope == refs.Local && r.Issue == i.ID && r.Role == role
	}), nil
}

// RemoteRefs returns the references of the given role mirrored from any
// remote, ordered by name.
func (i Issue) RemoteRefs(ctx context.Context, dir Directory, role refs.Role) ([]refs.Reference, error) {
	heads, leaves, err := i.RemoteRefsByRole(ctx, dir)
	if err != nil {
		return nil, err
	}
	if role == refs.Head {
		return heads, nil
	}
	return leaves, nil
}

// RemoteRefsByRole lists the references mirrored from any remote once and
// splits them into heads and leaves, each ordered by name.
func (i Issue) RemoteRefsByRole(ctx context.Context, dir Directory) (heads, leaves []refs.Reference, err error) {
	list, err := dir.ListRefs(ctx, refs.RemotePrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("issue %s: remote refs: %w", i.ID.Short(), err)
	}
	for _, r := range list {
		if r.Scope != refs.Remote || r.Issue != i.ID {
			continue
		}
		switch r.Role {
		case refs.Head:
			heads = append(heads, r)
		case refs.Leaf:
			leaves = append(leaves, r)
		}
	}
	return heads, leaves, nil
}

// Heads returns every head of the issue: the local one first, if present,
// then remote heads by name.
func (i Issue) Heads(ctx context.Context, dir Directory) ([]refs.Reference, error) {
	var heads []refs.Reference

	local, err := dir.ReadRef(ctx, refs.LocalHeadName(i.ID))
	switch {
	case err == nil:
		heads = append(heads, local)
	case !errors.Is(err, store.ErrRefNotFound):
		return nil, fmt.Errorf("issue %s: heads: %w", i.ID.Short(), err)
	}

	remote, err := i.RemoteRefs(ctx, dir, refs.Head)
	if err != nil {
		return nil, err
	}
	return append(heads, remote...), nil
}

// List returns the issues that have a local head, ordered by id.
func List(ctx context.Context, dir Directory) ([]Issue, error) {
	list, err := dir.ListRefs(ctx, refs.LocalPrefix)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issuesOf(list), nil
}

// ListRemote returns the issues that have a head mirrored from remote.
func ListRemote(ctx context.Context, dir Directory, remote string) ([]Issue, error) {
	if err := refs.ValidateRemote(remote); err != nil {
		return nil, err
	}
	list, err := dir.ListRefs(ctx, refs.RemoteIssuesPrefix(remote))
	if err != nil {
		return nil, fmt.Errorf("list issues of %s: %w", remote, err)
	}
	return issuesOf(list), nil
}

// Find returns the issue rooted at id, provided a head exists for it
// somewhere. Otherwise the error wraps ErrNoHead.
func Find(ctx context.Context, dir Directory, id dag.ID) (Issue, error) {
	iss := New(id)
	heads, err := iss.Heads(ctx, dir)
	if err != nil {
		return Issue{}, err
	}
	if len(heads) == 0 {
		return Issue{}, fmt.Errorf("find issue %s: %w", id.Short(), ErrNoHead)
	}
	return iss, nil
}

func issuesOf(list []refs.Reference) []Issue {
	var out []Issue
	for _, r := range list {
		if r.Role == refs.Head {
			out = append(out, New(r.Issue))
		}
	}
	return out
}

func filter(list []refs.Reference, keep func(refs.Reference) bool) []refs.Reference {
	out := list[:0]
	for _, r := range list {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
