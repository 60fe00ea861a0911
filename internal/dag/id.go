package dag

import (
	"encoding/hex"
	"fmt"
)

// IDSize is the width of a node id in bytes.
const IDSize = 32

// ID is a content-derived node identifier.
type ID [IDSize]byte

// ZeroID is the id of no node.
var ZeroID ID

// ParseID decodes a 64 character lowercase hex string.
func ParseID(s string) (ID, error) {
	var id ID
	if len(s) != hex.EncodedLen(IDSize) {
		return ZeroID, fmt.Errorf("parse id %q: want %d hex characters, got %d", s, hex.EncodedLen(IDSize), len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return ZeroID, fmt.Errorf("parse id %q: %w", s, err)
	}
	return id, nil
}

// MustParseID is like ParseID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the lowercase hex encoding.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 12 hex characters, for log output.
func (id ID) Short() string {
	return id.String()[:12]
}

// IsZero reports whether id is the zero id.
func (id ID) IsZero() bool {
	return id == ZeroID
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
