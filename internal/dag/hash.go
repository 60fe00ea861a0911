package dag

import (
	"crypto/sha256"
	"fmt"
)

// DomainMessage separates message ids from any other hash in the store.
// The version suffix enables future algorithm migration.
const DomainMessage = "ditgc/message/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) ID {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)

	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// MessageID computes the content-addressed id of a message.
// Parent order is part of the identity. Seq is not: the same message written
// twice is the same node.
func MessageID(message string, parents []ID) (ID, error) {
	parentHex := make([]string, len(parents))
	for i, p := range parents {
		parentHex[i] = p.String()
	}

	canonical, err := MarshalCanonical(map[string]any{
		"message": message,
		"parents": parentHex,
	})
	if err != nil {
		return ZeroID, fmt.Errorf("MessageID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainMessage, canonical), nil
}

// MustMessageID is like MessageID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustMessageID(message string, parents []ID) ID {
	id, err := MessageID(message, parents)
	if err != nil {
		panic(err)
	}
	return id
}
