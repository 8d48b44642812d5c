package models

// ThreadInfo is the list-rendering view of a thread: its id, a short
// preview derived from the first user message, and whether it is the
// currently active thread.
type ThreadInfo struct {
	ID      string `json:"id"`
	Preview string `json:"preview"`
	Active  bool   `json:"active,omitempty"`
}
