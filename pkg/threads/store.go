package threads

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"docchat/pkg/logger"
	"docchat/pkg/models"
	"docchat/pkg/store"
)

// Persisted key layout. Thread ids already carry a "thread_" prefix, so a
// per-thread history key reads "thread_thread_<ms>_<rand>"; that mirrors
// the layout docchat inherited and migrating it would orphan existing
// stores.
const (
	threadListKey   = "chat_threads"
	activeThreadKey = "current_thread_id"
	historyPrefix   = "thread_"
)

// PreviewSentinel is reported for threads with no user message yet.
const PreviewSentinel = "New conversation"

// previewRunes is the preview prefix length, counted in runes so that
// multi-byte text never gets split mid-character.
const previewRunes = 30

var (
	// ErrNotReady is returned when an operation runs before Bootstrap.
	ErrNotReady = errors.New("thread store not bootstrapped")
	// ErrUnknownThread is returned when an id is not in the thread list.
	ErrUnknownThread = errors.New("unknown thread id")
)

// Store owns the set of conversation threads, their persisted histories
// and the active-thread pointer. It serializes all operations behind a
// mutex and guarantees the active pointer always references a member of
// the thread list once Bootstrap has completed.
type Store struct {
	kv store.KV

	mu     sync.Mutex
	ready  bool
	ids    []string // most-recent-first
	active string
	msgs   []models.Message // in-memory view of the active thread
}

// New returns a Store over the given persistence boundary. Callers must
// invoke Bootstrap before any other operation.
func New(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Bootstrap restores the persisted thread list and active pointer. When
// the persisted active id is a member of the list it is restored as-is
// and its history loaded; otherwise a fresh empty thread is synthesized,
// prepended and persisted. After Bootstrap the list is never empty and
// exactly one member is active. Repeated calls return the current state.
func (s *Store) Bootstrap() (string, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return s.active, append([]string(nil), s.ids...), nil
	}

	s.ids = s.loadIDs()
	active := s.loadActive()

	if active != "" && contains(s.ids, active) {
		s.active = active
		s.msgs = s.loadHistory(active)
	} else {
		id := GenThreadID()
		s.ids = append([]string{id}, s.ids...)
		s.active = id
		s.msgs = nil
		if err := s.persistList(); err != nil {
			return "", nil, err
		}
		if err := s.persistActive(); err != nil {
			return "", nil, err
		}
		if err := s.persistHistory(id, nil); err != nil {
			return "", nil, err
		}
		logger.Info("thread_bootstrapped", "thread", id)
	}

	s.ready = true
	return s.active, append([]string(nil), s.ids...), nil
}

// Create generates a fresh thread, prepends it to the list, makes it
// active and persists an empty history for it.
func (s *Store) Create() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return "", ErrNotReady
	}
	id, err := s.createLocked()
	if err != nil {
		return "", err
	}
	logger.Info("thread_created", "thread", id)
	return id, nil
}

func (s *Store) createLocked() (string, error) {
	id := GenThreadID()
	s.ids = append([]string{id}, s.ids...)
	s.active = id
	s.msgs = nil
	if err := s.persistList(); err != nil {
		return "", err
	}
	if err := s.persistActive(); err != nil {
		return "", err
	}
	if err := s.persistHistory(id, nil); err != nil {
		return "", err
	}
	return id, nil
}

// Switch makes the given thread active and returns its persisted history.
func (s *Store) Switch(id string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, ErrNotReady
	}
	if !contains(s.ids, id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownThread, id)
	}
	if err := s.switchLocked(id); err != nil {
		return nil, err
	}
	return append([]models.Message(nil), s.msgs...), nil
}

func (s *Store) switchLocked(id string) error {
	s.active = id
	s.msgs = s.loadHistory(id)
	return s.persistActive()
}

// Delete removes the thread and erases its persisted history. When the
// deleted thread was active, the most recently created remaining thread
// is promoted; when none remain a fresh empty thread is synthesized, so
// the list is never left empty.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return ErrNotReady
	}
	if !contains(s.ids, id) {
		return fmt.Errorf("%w: %s", ErrUnknownThread, id)
	}

	kept := make([]string, 0, len(s.ids)-1)
	for _, v := range s.ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	s.ids = kept
	if err := s.persistList(); err != nil {
		return err
	}
	if err := s.kv.Delete(historyPrefix + id); err != nil {
		return err
	}

	if id == s.active {
		if len(s.ids) > 0 {
			if err := s.switchLocked(s.ids[0]); err != nil {
				return err
			}
		} else {
			if _, err := s.createLocked(); err != nil {
				return err
			}
		}
	}
	logger.Info("thread_deleted", "thread", id, "active", s.active)
	return nil
}

// Append adds msg to the identified thread's history, in memory and in
// the persistent store, and returns the full updated sequence. The id may
// name a thread other than the active one: replies arriving after the
// user switched threads are filed under the thread captured at send time.
func (s *Store) Append(id string, msg models.Message) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, ErrNotReady
	}
	if !contains(s.ids, id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownThread, id)
	}
	hist := s.loadHistory(id)
	hist = append(hist, msg)
	if err := s.persistHistory(id, hist); err != nil {
		return nil, err
	}
	if id == s.active {
		s.msgs = hist
	}
	logger.Debug("message_appended", "thread", id, "msg", msg.ID, "role", msg.Role)
	return append([]models.Message(nil), hist...), nil
}

// Preview returns a short prefix of the thread's first user message for
// list rendering, or PreviewSentinel when no user message exists. It is
// recomputed from persisted state on every call so it reflects the latest
// content even when the in-memory view is stale.
func (s *Store) Preview(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.loadHistory(id) {
		if m.IsUser() {
			r := []rune(m.Content)
			if len(r) > previewRunes {
				r = r[:previewRunes]
			}
			return string(r) + "..."
		}
	}
	return PreviewSentinel
}

// Active returns the current active thread id, or "" before Bootstrap.
func (s *Store) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ThreadIDs returns the thread list, most-recent-first.
func (s *Store) ThreadIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

// Messages returns the in-memory view of the active thread's history.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.msgs...)
}

// History returns the persisted history of the given thread.
func (s *Store) History(id string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, ErrNotReady
	}
	if !contains(s.ids, id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownThread, id)
	}
	return s.loadHistory(id), nil
}

// TrimHistory truncates a thread's persisted history to at most max of
// its newest messages and reports how many were dropped. The kept
// sequence always starts on a user message: a cut landing between a
// question and its reply would leave an orphaned assistant message at the
// head, so the cut advances past any leading replies. Used by retention;
// a thread with max or fewer messages is left untouched.
func (s *Store) TrimHistory(id string, max int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return 0, ErrNotReady
	}
	if !contains(s.ids, id) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownThread, id)
	}
	hist := s.loadHistory(id)
	if max < 0 || len(hist) <= max {
		return 0, nil
	}
	cut := len(hist) - max
	for cut < len(hist) && !hist[cut].IsUser() {
		cut++
	}
	dropped := cut
	hist = hist[cut:]
	if err := s.persistHistory(id, hist); err != nil {
		return 0, err
	}
	if id == s.active {
		s.msgs = hist
	}
	return dropped, nil
}

// Infos returns the list-rendering view of all threads.
func (s *Store) Infos() []models.ThreadInfo {
	s.mu.Lock()
	ids := append([]string(nil), s.ids...)
	active := s.active
	s.mu.Unlock()

	out := make([]models.ThreadInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.ThreadInfo{
			ID:      id,
			Preview: s.Preview(id),
			Active:  id == active,
		})
	}
	return out
}

// --- persistence helpers; callers hold s.mu ---

func (s *Store) loadIDs() []string {
	b, err := s.kv.Get(threadListKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("thread_list_load_failed", "error", err)
		}
		return nil
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		logger.Warn("thread_list_corrupt", "error", err)
		return nil
	}
	return ids
}

func (s *Store) loadActive() string {
	b, err := s.kv.Get(activeThreadKey)
	if err != nil {
		return ""
	}
	var id string
	if err := json.Unmarshal(b, &id); err != nil {
		logger.Warn("active_thread_corrupt", "error", err)
		return ""
	}
	return id
}

func (s *Store) loadHistory(id string) []models.Message {
	b, err := s.kv.Get(historyPrefix + id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("history_load_failed", "thread", id, "error", err)
		}
		return nil
	}
	var msgs []models.Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		logger.Warn("history_corrupt", "thread", id, "error", err)
		return nil
	}
	return msgs
}

func (s *Store) persistList() error {
	b, err := json.Marshal(s.ids)
	if err != nil {
		return err
	}
	return s.kv.Set(threadListKey, b)
}

func (s *Store) persistActive() error {
	b, err := json.Marshal(s.active)
	if err != nil {
		return err
	}
	return s.kv.Set(activeThreadKey, b)
}

func (s *Store) persistHistory(id string, msgs []models.Message) error {
	if msgs == nil {
		msgs = []models.Message{}
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return s.kv.Set(historyPrefix+id, b)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
