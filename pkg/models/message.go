package models

// Role identifies message authorship.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a thread's history. Messages are immutable
// once appended; a thread's sequence only grows.
type Message struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	// Content is the free-text body of a user message.
	Content string `json:"content,omitempty"`
	// Answer and Sources carry an assistant reply. Sources are opaque
	// document references and may be empty.
	Answer  string   `json:"answer,omitempty"`
	Sources []string `json:"sources,omitempty"`
	// TS is the creation timestamp (ns).
	TS int64 `json:"ts"`
}

// IsUser reports whether the message was authored by the user.
func (m Message) IsUser() bool { return m.Role == RoleUser }
