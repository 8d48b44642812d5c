package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"docchat/pkg/logger"
)

// Pebble is the production KV backed by a cockroachdb/pebble database.
// All writes are synced so that a completed call is durable across a
// process crash.
type Pebble struct {
	db   *pebble.DB
	path string
}

// OpenPebble opens (or creates) a pebble database at the given path.
func OpenPebble(path string) (*Pebble, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("pebble_opened", "path", path)
	return &Pebble{db: db, path: path}, nil
}

// Path returns the on-disk location of the database.
func (p *Pebble) Path() string { return p.path }

// Get returns the value for key or ErrNotFound.
func (p *Pebble) Get(key string) ([]byte, error) {
	if p.db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.OpenPebble first")
	}
	v, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		logger.Error("get_key_failed", "key", key, "error", err)
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	opsTotal.WithLabelValues("get").Inc()
	return out, nil
}

// Set stores value under key with a synced write.
func (p *Pebble) Set(key string, value []byte) error {
	if p.db == nil {
		return fmt.Errorf("pebble not opened; call store.OpenPebble first")
	}
	if err := p.db.Set([]byte(key), value, pebble.Sync); err != nil {
		opsFailed.WithLabelValues("set").Inc()
		logger.Error("set_key_failed", "key", key, "error", err)
		return err
	}
	opsTotal.WithLabelValues("set").Inc()
	logger.Debug("set_key_ok", "key", key, "len", len(value))
	return nil
}

// Delete removes key with a synced write.
func (p *Pebble) Delete(key string) error {
	if p.db == nil {
		return fmt.Errorf("pebble not opened; call store.OpenPebble first")
	}
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		opsFailed.WithLabelValues("delete").Inc()
		logger.Error("delete_key_failed", "key", key, "error", err)
		return err
	}
	opsTotal.WithLabelValues("delete").Inc()
	return nil
}

// Keys returns all keys starting with prefix in lexical order.
func (p *Pebble) Keys(prefix string) ([]string, error) {
	if p.db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.OpenPebble first")
	}
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	pfx := []byte(prefix)
	var out []string
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if len(pfx) > 0 && !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		k := append([]byte(nil), iter.Key()...)
		out = append(out, string(k))
	}
	return out, iter.Error()
}

// Close closes the underlying pebble DB.
func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	if err := p.db.Close(); err != nil {
		return err
	}
	p.db = nil
	logger.Info("pebble_closed", "path", p.path)
	return nil
}
