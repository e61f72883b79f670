package logengine

import (
	"fmt"

	"kvd/internal/engine"
	"kvd/pkg/fs"
)

// indexedLog layers a key -> offset index over a logFile, providing
// read/write of logical commands. A key is present in the index if and only
// if some record in the log mentions it; the offset always points to the
// latest such record, whether a Set or a Remove tombstone.
type indexedLog struct {
	log   *logFile
	index map[string]int64
}

// openIndexedLog opens the log file in dir and rebuilds the index from it
// with a single sequential scan.
func openIndexedLog(fsys fs.FS, dir string) (*indexedLog, error) {
	log, err := openLogFile(fsys, dir)
	if err != nil {
		return nil, err
	}

	il := &indexedLog{log: log, index: make(map[string]int64)}

	if err := il.rebuildIndex(); err != nil {
		_ = log.close()

		return nil, err
	}

	return il, nil
}

// rebuildIndex zeroes the index and numWrites, scans the log from offset 0,
// and for each record inserts (cmd.key -> start offset). Later inserts
// overwrite earlier ones, so the final mapping reflects the last occurrence
// of each key. On decode error the index is left untouched - no half-built
// index is ever published.
func (il *indexedLog) rebuildIndex() error {
	index := make(map[string]int64)
	numWrites := 0

	err := il.log.scanFrom(0, func(start int64, cmd command) error {
		index[cmd.key()] = start
		numWrites++

		return nil
	})
	if err != nil {
		return err
	}

	il.index = index
	il.log.numWrites = numWrites

	return nil
}

// read returns the command at the offset recorded for key, or
// engine.ErrKeyNotFound if key is absent from the index.
func (il *indexedLog) read(key string) (command, error) {
	offset, ok := il.index[key]
	if !ok {
		return command{}, fmt.Errorf("read %q: %w", key, engine.ErrKeyNotFound)
	}

	return il.log.readAt(offset)
}

// write appends cmd via the log file, then points index[cmd.key] at the
// offset the append returned.
func (il *indexedLog) write(cmd command) error {
	offset, err := il.log.append(cmd)
	if err != nil {
		return err
	}

	il.index[cmd.key()] = offset

	return nil
}

func (il *indexedLog) numWrites() int {
	return il.log.numWrites
}

func (il *indexedLog) size() int {
	return len(il.index)
}

func (il *indexedLog) close() error {
	return il.log.close()
}
