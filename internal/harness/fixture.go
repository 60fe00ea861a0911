package harness

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/issue"
	"github.com/roach88/ditgc/internal/refs"
	"github.com/roach88/ditgc/internal/store"
)

// Fixture is a scenario graph written to a store, with its labels.
type Fixture struct {
	ids    map[string]dag.ID
	labels map[dag.ID]string
}

// Build writes the scenario's nodes and references into st.
func Build(ctx context.Context, st *store.Store, s *Scenario) (*Fixture, error) {
	f := &Fixture{
		ids:    make(map[string]dag.ID, len(s.Nodes)),
		labels: make(map[dag.ID]string, len(s.Nodes)),
	}

	for _, n := range s.Nodes {
		parents := make([]dag.ID, len(n.Parents))
		for i, p := range n.Parents {
			id, ok := f.ids[p]
			if !ok {
				return nil, fmt.Errorf("node %q: unknown parent %q", n.Label, p)
			}
			parents[i] = id
		}

		msg := n.Message
		if msg == "" {
			msg = n.Label
		}
		node, err := st.WriteNode(ctx, msg, parents)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Label, err)
		}
		if prev, dup := f.labels[node.ID]; dup {
			return nil, fmt.Errorf("node %q has the same content as %q", n.Label, prev)
		}
		f.ids[n.Label] = node.ID
		f.labels[node.ID] = n.Label
	}

	for _, r := range s.Refs {
		name, err := f.refName(r)
		if err != nil {
			return nil, err
		}
		if err := st.SetRef(ctx, name, f.ids[r.Target]); err != nil {
			return nil, fmt.Errorf("ref %s: %w", f.RefLabel(refs.MustParse(name, f.ids[r.Target])), err)
		}
	}

	return f, nil
}

func (f *Fixture) refName(r RefStep) (string, error) {
	iss, ok := f.ids[r.Issue]
	if !ok {
		return "", fmt.Errorf("ref: unknown issue %q", r.Issue)
	}
	target, ok := f.ids[r.Target]
	if !ok {
		return "", fmt.Errorf("ref: unknown target %q", r.Target)
	}

	switch r.Kind {
	case KindLocalHead:
		return refs.LocalHeadName(iss), nil
	case KindLocalLeaf:
		return refs.LocalLeafName(iss, target), nil
	case KindRemoteHead:
		if err := refs.ValidateRemote(r.Remote); err != nil {
			return "", err
		}
		return refs.RemoteHeadName(r.Remote, iss), nil
	case KindRemoteLeaf:
		if err := refs.ValidateRemote(r.Remote); err != nil {
			return "", err
		}
		return refs.RemoteLeafName(r.Remote, iss, target), nil
	default:
		return "", fmt.Errorf("ref: unknown kind %q", r.Kind)
	}
}

// ID returns the id of a labeled node.
func (f *Fixture) ID(label string) (dag.ID, bool) {
	id, ok := f.ids[label]
	return id, ok
}

// Label returns the label of id, or its short hex form for unknown ids.
func (f *Fixture) Label(id dag.ID) string {
	if l, ok := f.labels[id]; ok {
		return l
	}
	return id.Short()
}

// RefLabel renders a reference with labels in place of ids.
func (f *Fixture) RefLabel(r refs.Reference) string {
	var b strings.Builder
	if r.Scope == refs.Remote {
		b.WriteString(r.Remote)
		b.WriteByte(':')
	}
	b.WriteString(f.Label(r.Issue))
	if r.Role == refs.Head {
		b.WriteString("/head")
		return b.String()
	}
	b.WriteString("/leaves/")
	if msg, err := dag.ParseID(path.Base(r.Name)); err == nil {
		b.WriteString(f.Label(msg))
	} else {
		b.WriteString(path.Base(r.Name))
	}
	return b.String()
}

// RefLabels renders every reference in list, in order.
func (f *Fixture) RefLabels(list []refs.Reference) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = f.RefLabel(r)
	}
	return out
}

// Issues resolves issue labels. With no labels it lists every issue that
// has a local head.
func (f *Fixture) Issues(ctx context.Context, dir issue.Directory, labels []string) ([]issue.Issue, error) {
	if len(labels) == 0 {
		return issue.List(ctx, dir)
	}
	out := make([]issue.Issue, len(labels))
	for i, l := range labels {
		id, ok := f.ids[l]
		if !ok {
			return nil, fmt.Errorf("unknown issue %q", l)
		}
		out[i] = issue.New(id)
	}
	return out, nil
}
