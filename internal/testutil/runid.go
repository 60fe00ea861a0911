package testutil

// FixedRunIDGenerator returns the same GC run id every time.
//
// This keeps log output and golden snapshots byte-identical across runs.
// If id is empty, Generate returns "test-run-default".
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator that always returns id.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
//
// Implements gc.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
