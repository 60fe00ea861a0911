package dag

// Node is an immutable message in an issue thread.
type Node struct {
	ID      ID     `json:"id"`
	Parents []ID   `json:"parents"`
	Message string `json:"message"`
	Seq     int64  `json:"seq"` // Logical clock, assigned by the store
}

// IsRoot reports whether the node starts a thread.
func (n Node) IsRoot() bool {
	return len(n.Parents) == 0
}

// FirstParent returns the first parent, if any.
func (n Node) FirstParent() (ID, bool) {
	if len(n.Parents) == 0 {
		return ZeroID, false
	}
	return n.Parents[0], true
}
