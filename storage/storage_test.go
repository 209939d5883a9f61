package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	file, err := NewFile(t.TempDir(), 2)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	peb, err := NewMemPebble(2)
	if err != nil {
		t.Fatalf("NewMemPebble: %v", err)
	}
	lvl, err := NewMemLevelDB(2)
	if err != nil {
		t.Fatalf("NewMemLevelDB: %v", err)
	}
	t.Cleanup(func() {
		peb.Close()
		lvl.Close()
	})
	return map[string]Storage{
		"memory":  NewMemory(2),
		"file":    file,
		"pebble":  peb,
		"leveldb": lvl,
	}
}

func TestBackends_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, found, err := s.Get("states"); err != nil || found {
				t.Fatalf("Get(missing) = found %v, err %v", found, err)
			}
			want := []byte{1, 2, 3}
			if err := s.Set("states", want); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, found, err := s.Get("states")
			if err != nil || !found {
				t.Fatalf("Get = found %v, err %v", found, err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("value mismatch (-want +got):\n%s", diff)
			}

			// Overwrite, then delete twice.
			if err := s.Set("states", []byte{9}); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, _, _ = s.Get("states")
			if diff := cmp.Diff([]byte{9}, got); diff != "" {
				t.Fatalf("overwrite mismatch (-want +got):\n%s", diff)
			}
			if err := s.Delete("states"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := s.Delete("states"); err != nil {
				t.Fatalf("Delete(missing): %v", err)
			}
			if _, found, _ := s.Get("states"); found {
				t.Fatal("key still present after Delete")
			}
			if s.MaxSyncStates() != 2 {
				t.Fatalf("MaxSyncStates = %d, want 2", s.MaxSyncStates())
			}
		})
	}
}

func TestBackends_RejectBadKeys(t *testing.T) {
	for name, s := range backends(t) {
		for _, key := range []string{"", "..", "a/b", "sync 1"} {
			if err := s.Set(key, []byte{1}); !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("%s: Set(%q) err = %v, want ErrInvalidKey", name, key, err)
			}
		}
	}
}

func TestMemory_CopiesValues(t *testing.T) {
	m := NewMemory(0)
	v := []byte{1, 2}
	m.Set("k", v)
	v[0] = 7
	got, _, _ := m.Get("k")
	if got[0] != 1 {
		t.Fatal("Set kept a reference to the caller's slice")
	}
	got[1] = 7
	again, _, _ := m.Get("k")
	if again[1] != 2 {
		t.Fatal("Get returned the stored slice")
	}
	if m.MaxSyncStates() != DefaultMaxSyncStates {
		t.Fatalf("MaxSyncStates = %d, want default %d", m.MaxSyncStates(), DefaultMaxSyncStates)
	}
	if diff := cmp.Diff([]string{"k"}, m.Keys()); diff != "" {
		t.Fatalf("Keys mismatch (-want +got):\n%s", diff)
	}
}

func TestFile_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Set("sync_1220", []byte("keys")); err != nil {
		t.Fatal(err)
	}
	if b, err := os.ReadFile(filepath.Join(dir, "sync_1220")); err != nil || string(b) != "keys" {
		t.Fatalf("on-disk value = %q, %v", b, err)
	}
	g, err := NewFile(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if b, found, err := g.Get("sync_1220"); err != nil || !found || string(b) != "keys" {
		t.Fatalf("reopened Get = %q, %v, %v", b, found, err)
	}
}

func TestPebble_ClosedStore(t *testing.T) {
	p, err := NewMemPebble(0)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Get("k"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after Close err = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{"memory", "file", "pebble", "leveldb"} {
		s, err := Open(backend, filepath.Join(dir, backend), 4)
		if err != nil {
			t.Fatalf("Open(%s): %v", backend, err)
		}
		if s.MaxSyncStates() != 4 {
			t.Fatalf("%s: MaxSyncStates = %d", backend, s.MaxSyncStates())
		}
		if err := Close(s); err != nil {
			t.Fatalf("%s: Close: %v", backend, err)
		}
	}
	if _, err := Open("redis", dir, 0); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("Open(redis) err = %v", err)
	}
}
