package gc

import (
	"fmt"
)

// HeadPolicy decides when a local head may be collected.
type HeadPolicy int

const (
	// Never keeps every local head.
	Never HeadPolicy = iota

	// BackedByRemoteHead collects a local head whose target is an ancestor of
	// (or equal to) the target of a remote head of the same issue.
	BackedByRemoteHead
)

// String returns the policy name as accepted by ParseHeadPolicy.
func (p HeadPolicy) String() string {
	switch p {
	case Never:
		return "never"
	case BackedByRemoteHead:
		return "backed-by-remote-head"
	default:
		return fmt.Sprintf("HeadPolicy(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p HeadPolicy) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("invalid head policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *HeadPolicy) UnmarshalText(b []byte) error {
	parsed, err := ParseHeadPolicy(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p HeadPolicy) valid() bool {
	return p == Never || p == BackedByRemoteHead
}

// ParseHeadPolicy parses "never" or "backed-by-remote-head".
func ParseHeadPolicy(s string) (HeadPolicy, error) {
	switch s {
	case "never":
		return Never, nil
	case "backed-by-remote-head":
		return BackedByRemoteHead, nil
	default:
		return Never, fmt.Errorf("unknown head policy %q (want never or backed-by-remote-head)", s)
	}
}

// Config controls a collection run. The zero value is the default: remote
// references are ignored and heads are never collected.
type Config struct {
	// ConsiderRemoteRefs lets a local leaf be subsumed by the ancestry of the
	// issue's remote heads and leaves, not just its local ones.
	ConsiderRemoteRefs bool `json:"consider_remote_refs" yaml:"consider_remote_refs"`

	// CollectHeads decides when the local head itself is redundant.
	CollectHeads HeadPolicy `json:"collect_heads" yaml:"collect_heads"`
}

// DefaultConfig returns the zero Config.
func DefaultConfig() Config {
	return Config{}
}

// Validate reports a head policy outside the known values.
func (c Config) Validate() error {
	if !c.CollectHeads.valid() {
		return fmt.Errorf("invalid config: %s", c.CollectHeads)
	}
	return nil
}

// String renders the config for logs.
func (c Config) String() string {
	return fmt.Sprintf("consider_remote_refs=%t collect_heads=%s", c.ConsiderRemoteRefs, c.CollectHeads)
}
