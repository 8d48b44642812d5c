package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestPebbleBasicOps(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	kv, err := OpenPebble(dir)
	if err != nil {
		t.Fatalf("OpenPebble: %v", err)
	}
	defer kv.Close()

	if _, err := kv.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound; got %v", err)
	}
	if err := kv.Set("chat_threads", []byte(`["a"]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := kv.Get("chat_threads")
	if err != nil || string(v) != `["a"]` {
		t.Fatalf("Get: %q err=%v", v, err)
	}
	if err := kv.Delete("chat_threads"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := kv.Get("chat_threads"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete; got %v", err)
	}
	// deleting a missing key is not an error
	if err := kv.Delete("chat_threads"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestPebbleKeysPrefix(t *testing.T) {
	kv, err := OpenPebble(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("OpenPebble: %v", err)
	}
	defer kv.Close()

	for _, k := range []string{"thread_a", "thread_b", "current_thread_id", "chat_threads"} {
		if err := kv.Set(k, []byte("x")); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	keys, err := kv.Keys("thread_")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "thread_a" || keys[1] != "thread_b" {
		t.Fatalf("unexpected keys: %v", keys)
	}
	all, err := kv.Keys("")
	if err != nil || len(all) != 4 {
		t.Fatalf("all keys: %v err=%v", all, err)
	}
}

// TestPebbleReopen verifies values survive a close/reopen cycle.
func TestPebbleReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	kv, err := OpenPebble(dir)
	if err != nil {
		t.Fatalf("OpenPebble: %v", err)
	}
	if err := kv.Set("k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	kv2, err := OpenPebble(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv2.Close()
	v, err := kv2.Get("k")
	if err != nil || string(v) != "v" {
		t.Fatalf("Get after reopen: %q err=%v", v, err)
	}
}

func TestMemoryMatchesContract(t *testing.T) {
	kv := NewMemory()
	if _, err := kv.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound; got %v", err)
	}
	if err := kv.Set("a", []byte("1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// returned slices are copies
	v, _ := kv.Get("a")
	v[0] = 'X'
	v2, _ := kv.Get("a")
	if string(v2) != "1" {
		t.Fatalf("stored value mutated through returned slice")
	}
	keys, _ := kv.Keys("")
	if len(keys) != 1 || keys[0] != "a" {
		t.Fatalf("Keys: %v", keys)
	}
}
