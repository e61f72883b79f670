package logengine

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"kvd/internal/engine"
)

// shouldCompact reports the compaction predicate: num_writes > 2 * |index|.
func (il *indexedLog) shouldCompact() bool {
	return il.numWrites() > 2*il.size()
}

// compact rebuilds the log so that it holds exactly one Set per live key,
// then atomically replaces the live "db" file with the result and rebuilds
// the index from the freshly installed file.
//
// Must be called with the Store's mutex already held; it is held for the
// whole duration, serializing compaction against all other engine callers -
// the simplest design that preserves invariants against the append-only log.
//
// Atomicity relies on atomic.WriteFile's write-to-temp-file-then-rename
// behavior within the live directory, which in turn relies on the
// filesystem providing atomic same-directory rename. On filesystems without
// that guarantee (some networked filesystems), this is not crash-consistent;
// this repo does not attempt a marker-file-and-reconciliation fallback.
func (s *storeState) compact() error {
	liveDBPath := filepath.Join(s.dir, logFileName)

	tmpDir := filepath.Join(s.dir, ".compact-"+uuid.NewString())

	if err := s.fsys.MkdirAll(tmpDir, 0o755); err != nil {
		return fmt.Errorf("create compaction temp dir %q: %w: %w", tmpDir, engine.ErrOpenFile, err)
	}

	defer func() { _ = s.fsys.RemoveAll(tmpDir) }()

	tmpLog, err := openIndexedLog(s.fsys, tmpDir)
	if err != nil {
		return fmt.Errorf("open compaction temp log: %w", err)
	}

	for key := range s.il.index {
		cmd, err := s.il.read(key)
		if err != nil {
			_ = tmpLog.close()

			return fmt.Errorf("read live record for %q during compaction: %w", key, err)
		}

		if cmd.Set == nil {
			// Tombstone: the key is not live, omit it from the compacted log.
			continue
		}

		if err := tmpLog.write(cmd); err != nil {
			_ = tmpLog.close()

			return fmt.Errorf("write compacted record for %q: %w", key, err)
		}
	}

	if err := tmpLog.close(); err != nil {
		return fmt.Errorf("close compaction temp log: %w", err)
	}

	tmpDBFile, err := s.fsys.Open(filepath.Join(tmpDir, logFileName))
	if err != nil {
		return fmt.Errorf("reopen compacted log for install: %w: %w", engine.ErrOpenFile, err)
	}

	installErr := atomic.WriteFile(liveDBPath, tmpDBFile)

	_ = tmpDBFile.Close()

	if installErr != nil {
		return fmt.Errorf("install compacted log over %q: %w: %w", liveDBPath, engine.ErrFileMove, installErr)
	}

	if err := s.il.close(); err != nil {
		return fmt.Errorf("close pre-compaction log: %w", err)
	}

	reopened, err := openIndexedLog(s.fsys, s.dir)
	if err != nil {
		return fmt.Errorf("reopen store after compaction: %w", err)
	}

	s.il = reopened

	return nil
}
