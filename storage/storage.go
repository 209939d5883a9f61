// Package storage provides the key/value plugin the verifier uses to keep
// sync-committee state between verifications. Backends guard their own
// state; callers take no locks.
package storage

import (
	"errors"
	"fmt"
	"io"
	"regexp"
)

// DefaultMaxSyncStates is the number of committee periods kept when a
// backend is opened without an explicit limit.
const DefaultMaxSyncStates = 3

var (
	ErrInvalidKey     = errors.New("storage: invalid key")
	ErrUnknownBackend = errors.New("storage: unknown backend")
	ErrClosed         = errors.New("storage: closed")
)

// Storage is the persistence contract. Get reports found=false with a nil
// error for a missing key.
type Storage interface {
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	// MaxSyncStates bounds how many committee periods are retained.
	MaxSyncStates() int
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// checkKey rejects keys that are empty, too long or unsafe as file names.
func checkKey(key string) error {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func limit(n int) int {
	if n <= 0 {
		return DefaultMaxSyncStates
	}
	return n
}

// Open returns the backend named by backend ("memory", "file", "pebble" or
// "leveldb"). path is ignored by the memory backend.
func Open(backend, path string, maxSyncStates int) (Storage, error) {
	switch backend {
	case "", "memory":
		return NewMemory(maxSyncStates), nil
	case "file":
		return NewFile(path, maxSyncStates)
	case "pebble":
		return OpenPebble(path, maxSyncStates)
	case "leveldb":
		return OpenLevelDB(path, maxSyncStates)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Close releases s if the backend holds resources.
func Close(s Storage) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
