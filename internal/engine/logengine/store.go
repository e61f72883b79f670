// Package logengine implements kvd's primary storage backend: an
// append-only log file, an in-memory key-to-offset index layered over it,
// and a Store that exposes the get/set/remove contract behind a mutex and
// triggers compaction to bound the log's growth.
package logengine

import (
	"errors"
	"fmt"
	"sync"

	"kvd/internal/engine"
	"kvd/pkg/fs"
)

// storeState is the state shared by every clone of a Store: the guarded
// indexed log plus the directory it lives in (needed again during
// compaction). Cloning a Store shares this pointer rather than copying it,
// matching the original's Arc<Mutex<IndexedLogFile>> clone semantics.
type storeState struct {
	mu   sync.Mutex
	fsys fs.FS
	dir  string
	il   *indexedLog
}

// Store is the log-structured engine. It satisfies internal/engine.Engine.
type Store struct {
	s *storeState
}

var _ engine.Engine = (*Store)(nil)

// Open opens dir (creating "db" inside it if necessary), scans the log, and
// builds the index. The returned Store is ready to serve requests.
func Open(fsys fs.FS, dir string) (*Store, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %q: %w: %w", dir, engine.ErrOpenFile, err)
	}

	il, err := openIndexedLog(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("open store at %q: %w", dir, err)
	}

	return &Store{s: &storeState{fsys: fsys, dir: dir, il: il}}, nil
}

// Get returns the live value for key, or ("", false, nil) if key has no
// live record (absent, or the latest record is a Remove tombstone).
// engine.ErrKeyNotFound from the index is swallowed, not surfaced.
func (st *Store) Get(key string) (string, bool, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	cmd, err := st.s.il.read(key)
	if err != nil {
		if isKeyNotFound(err) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("get %q: %w", key, err)
	}

	value, live := cmd.value()
	if !live {
		return "", false, nil
	}

	return value, true, nil
}

// Set appends a Set record for key, then runs compaction if the predicate
// num_writes > 2*|index| holds.
func (st *Store) Set(key, value string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if err := st.s.il.write(setCommand(key, value)); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	if st.s.il.shouldCompact() {
		if err := st.s.compact(); err != nil {
			return fmt.Errorf("compact after set %q: %w", key, err)
		}
	}

	return nil
}

// Remove appends a Remove tombstone for key. It probes the index only for
// key presence, not liveness: engine.ErrKeyNotFound is returned only when
// key is absent from the index, i.e. it was never written or a compaction
// has since dropped its tombstone. Removing a key whose tombstone is still
// indexed succeeds and appends a second tombstone, matching the
// index-presence check the engine is specified against rather than a
// liveness check.
func (st *Store) Remove(key string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if _, err := st.s.il.read(key); err != nil {
		if isKeyNotFound(err) {
			return fmt.Errorf("remove %q: %w", key, engine.ErrKeyNotFound)
		}

		return fmt.Errorf("remove %q: %w", key, err)
	}

	if err := st.s.il.write(removeCommand(key)); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	return nil
}

// Clone returns a handle sharing the same guarded state as st.
func (st *Store) Clone() engine.Engine {
	return &Store{s: st.s}
}

// Close releases the underlying file handles.
func (st *Store) Close() error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	return st.s.il.close()
}

func isKeyNotFound(err error) bool {
	return errors.Is(err, engine.ErrKeyNotFound)
}
