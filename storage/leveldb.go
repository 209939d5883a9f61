package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/eth2030/stateless/log"
)

// LevelDB is a Storage on a goleveldb database.
type LevelDB struct {
	mu        sync.RWMutex
	db        *leveldb.DB
	closed    bool
	maxStates int
}

// OpenLevelDB opens (or creates) a leveldb database in dir.
func OpenLevelDB(dir string, maxSyncStates int) (*LevelDB, error) {
	if dir == "" {
		return nil, errors.New("storage: leveldb backend needs a directory")
	}
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("storage: open leveldb %s: %w", dir, err)
	}
	log.Default().Module("storage").Debug("leveldb store opened", "dir", dir)
	return &LevelDB{db: db, maxStates: limit(maxSyncStates)}, nil
}

// NewMemLevelDB opens a leveldb database backed by memory.
func NewMemLevelDB(maxSyncStates int) (*LevelDB, error) {
	db, err := leveldb.Open(lvlstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open leveldb: %w", err)
	}
	return &LevelDB{db: db, maxStates: limit(maxSyncStates)}, nil
}

func (l *LevelDB) Get(key string) ([]byte, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, false, ErrClosed
	}
	v, err := l.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: leveldb get %s: %w", key, err)
	}
	return v, true, nil
}

func (l *LevelDB) Set(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	if err := l.db.Put([]byte(key), value, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("storage: leveldb put %s: %w", key, err)
	}
	return nil
}

func (l *LevelDB) Delete(key string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	if err := l.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("storage: leveldb delete %s: %w", key, err)
	}
	return nil
}

func (l *LevelDB) MaxSyncStates() int { return l.maxStates }

// Close closes the database. Further calls return ErrClosed.
func (l *LevelDB) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}
