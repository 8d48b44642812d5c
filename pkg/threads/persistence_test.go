package threads

import (
	"path/filepath"
	"testing"

	"docchat/pkg/store"
)

// TestRoundTripAcrossReload persists a conversation, closes the database
// to simulate a reload, and verifies the identical ordered sequence comes
// back in a fresh store.
func TestRoundTripAcrossReload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	kv, err := store.OpenPebble(dir)
	if err != nil {
		t.Fatalf("OpenPebble: %v", err)
	}

	s := New(kv)
	if _, _, err := s.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	id := s.Active()
	sent := []struct {
		role, content, answer string
		sources               []string
	}{
		{role: "user", content: "What is VIT and how does it work?"},
		{role: "assistant", answer: "Vision Transformer splits images into patches.", sources: []string{"paper.pdf#3", "paper.pdf#4"}},
		{role: "user", content: "Compare it with a CNN."},
	}
	for _, m := range sent {
		if m.role == "user" {
			if _, err := s.Append(id, userMsg(m.content)); err != nil {
				t.Fatalf("Append: %v", err)
			}
		} else {
			if _, err := s.Append(id, botMsg(m.answer, m.sources...)); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	kv2, err := store.OpenPebble(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv2.Close()

	s2 := New(kv2)
	active, ids, err := s2.Bootstrap()
	if err != nil {
		t.Fatalf("Bootstrap after reload: %v", err)
	}
	if active != id {
		t.Fatalf("active thread changed across reload: %q -> %q", id, active)
	}
	if len(ids) != 1 {
		t.Fatalf("thread list changed across reload: %v", ids)
	}

	got := s2.Messages()
	if len(got) != len(sent) {
		t.Fatalf("expected %d messages; got %d", len(sent), len(got))
	}
	for i, m := range sent {
		if got[i].Role != m.role || got[i].Content != m.content || got[i].Answer != m.answer {
			t.Fatalf("message %d mismatch: %+v", i, got[i])
		}
		if len(got[i].Sources) != len(m.sources) {
			t.Fatalf("message %d sources mismatch: %+v", i, got[i].Sources)
		}
	}
}
