package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/ditgc/internal/dag"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustWriteNode writes a node and fails the test on error.
func mustWriteNode(t *testing.T, s *Store, message string, parents ...dag.ID) dag.Node {
	t.Helper()
	node, err := s.WriteNode(context.Background(), message, parents)
	if err != nil {
		t.Fatalf("WriteNode(%q) failed: %v", message, err)
	}
	return node
}
