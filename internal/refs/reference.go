// Package refs models the mutable named pointers that mark issue tips.
//
// Reference names follow a fixed layout:
//
//	refs/dit/<issue>/head                               local head
//	refs/dit/<issue>/leaves/<message>                   local leaf
//	refs/remotes/<remote>/dit/<issue>/head              remote head
//	refs/remotes/<remote>/dit/<issue>/leaves/<message>  remote leaf
//
// <issue> and <message> are hex node ids. Remote names are NFC normalized.
package refs

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ditgc/internal/dag"
)

// Name prefixes.
const (
	LocalPrefix  = "refs/dit/"
	RemotePrefix = "refs/remotes/"
)

// Scope says whether a reference is ours or mirrors a remote.
type Scope int

const (
	Local Scope = iota
	Remote
)

func (s Scope) String() string {
	switch s {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// Role says whether a reference is an issue head or a reply leaf.
type Role int

const (
	Head Role = iota
	Leaf
)

func (r Role) String() string {
	switch r {
	case Head:
		return "head"
	case Leaf:
		return "leaf"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Reference is a named pointer to a node, with its name decoded.
type Reference struct {
	Name   string
	Target dag.ID
	Issue  dag.ID
	Scope  Scope
	Role   Role
	Remote string // empty for local references
}

// String returns the reference name.
func (r Reference) String() string {
	return r.Name
}

// LocalHeadName returns the name of an issue's local head.
func LocalHeadName(issue dag.ID) string {
	return LocalPrefix + issue.String() + "/head"
}

// LocalLeafName returns the name of a local leaf for message.
func LocalLeafName(issue, message dag.ID) string {
	return LocalPrefix + issue.String() + "/leaves/" + message.String()
}

// RemoteHeadName returns the name of an issue's head as mirrored from remote.
func RemoteHeadName(remote string, issue dag.ID) string {
	return RemotePrefix + norm.NFC.String(remote) + "/dit/" + issue.String() + "/head"
}

// RemoteLeafName returns the name of a leaf as mirrored from remote.
func RemoteLeafName(remote string, issue, message dag.ID) string {
	return RemotePrefix + norm.NFC.String(remote) + "/dit/" + issue.String() + "/leaves/" + message.String()
}

// LocalIssuePrefix is the prefix shared by all local references of an issue.
func LocalIssuePrefix(issue dag.ID) string {
	return LocalPrefix + issue.String() + "/"
}

// RemoteIssuesPrefix is the prefix shared by all references mirrored from remote.
func RemoteIssuesPrefix(remote string) string {
	return RemotePrefix + norm.NFC.String(remote) + "/dit/"
}

// ValidateRemote checks that name can be embedded in a reference name.
func ValidateRemote(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("remote name is empty")
	case strings.Contains(name, "/"):
		return fmt.Errorf("remote name %q contains '/'", name)
	case name == "." || name == "..":
		return fmt.Errorf("remote name %q is reserved", name)
	}
	return nil
}

// Parse decodes a reference name. target is carried through unchanged.
func Parse(name string, target dag.ID) (Reference, error) {
	ref := Reference{Name: name, Target: target}

	var rest string
	switch {
	case strings.HasPrefix(name, LocalPrefix):
		ref.Scope = Local
		rest = strings.TrimPrefix(name, LocalPrefix)
	case strings.HasPrefix(name, RemotePrefix):
		ref.Scope = Remote
		remote, tail, ok := strings.Cut(strings.TrimPrefix(name, RemotePrefix), "/dit/")
		if !ok {
			return Reference{}, fmt.Errorf("parse ref %q: missing /dit/ segment", name)
		}
		if err := ValidateRemote(remote); err != nil {
			return Reference{}, fmt.Errorf("parse ref %q: %w", name, err)
		}
		// Name builders only emit the NFC form.
		if !norm.NFC.IsNormalString(remote) {
			return Reference{}, fmt.Errorf("parse ref %q: remote %q is not NFC normalized", name, remote)
		}
		ref.Remote = remote
		rest = tail
	default:
		return Reference{}, fmt.Errorf("parse ref %q: not an issue reference", name)
	}

	parts := strings.Split(rest, "/")
	issue, err := dag.ParseID(parts[0])
	if err != nil {
		return Reference{}, fmt.Errorf("parse ref %q: issue: %w", name, err)
	}
	ref.Issue = issue

	switch {
	case len(parts) == 2 && parts[1] == "head":
		ref.Role = Head
	case len(parts) == 3 && parts[1] == "leaves":
		if _, err := dag.ParseID(parts[2]); err != nil {
			return Reference{}, fmt.Errorf("parse ref %q: leaf: %w", name, err)
		}
		ref.Role = Leaf
	default:
		return Reference{}, fmt.Errorf("parse ref %q: unknown layout", name)
	}

	return ref, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParse(name string, target dag.ID) Reference {
	ref, err := Parse(name, target)
	if err != nil {
		panic(err)
	}
	return ref
}

// Names returns the names of refs, in order.
func Names(refs []Reference) []string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return names
}
