package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/eth2030/stateless/log"
)

// Pebble is a Storage on a pebble database.
type Pebble struct {
	mu        sync.RWMutex
	db        *pebble.DB
	closed    bool
	maxStates int
}

// OpenPebble opens (or creates) a pebble database in dir.
func OpenPebble(dir string, maxSyncStates int) (*Pebble, error) {
	if dir == "" {
		return nil, errors.New("storage: pebble backend needs a directory")
	}
	return openPebble(dir, &pebble.Options{}, maxSyncStates)
}

// NewMemPebble opens a pebble database on an in-memory filesystem.
func NewMemPebble(maxSyncStates int) (*Pebble, error) {
	return openPebble("", &pebble.Options{FS: vfs.NewMem()}, maxSyncStates)
}

func openPebble(dir string, opts *pebble.Options, maxSyncStates int) (*Pebble, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open pebble %s: %w", dir, err)
	}
	log.Default().Module("storage").Debug("pebble store opened", "dir", dir)
	return &Pebble{db: db, maxStates: limit(maxSyncStates)}, nil
}

func (p *Pebble) Get(key string) ([]byte, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, false, ErrClosed
	}
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: pebble get %s: %w", key, err)
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (p *Pebble) Set(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("storage: pebble set %s: %w", key, err)
	}
	return nil
}

func (p *Pebble) Delete(key string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("storage: pebble delete %s: %w", key, err)
	}
	return nil
}

func (p *Pebble) MaxSyncStates() int { return p.maxStates }

// Close closes the database. Further calls return ErrClosed.
func (p *Pebble) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
