package logengine

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"kvd/internal/engine"
	"kvd/pkg/fs"
)

// logFileName is the single regular file a log-structured store's directory
// holds: a concatenation of JSON-encoded command records with no framing
// between them.
const logFileName = "db"

// logFile is an append-only sequence of command records on disk, plus a
// sequential reader positioned by byte offset. Writes always go to the
// current end of file; an existing prefix is never rewritten in place.
//
// All operations require the caller to hold the Store's mutex; logFile
// itself does no locking.
type logFile struct {
	fsys fs.FS
	path string

	write fs.File // append-only write handle
	read  fs.File // independent read handle, repositioned per call

	position  int64
	numWrites int
}

// openLogFile opens (creating if necessary) the log file "db" inside dir and
// positions the write handle at the current end of file.
func openLogFile(fsys fs.FS, dir string) (*logFile, error) {
	path := filepath.Join(dir, logFileName)

	writeFile, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q for writing: %w: %w", path, engine.ErrOpenFile, err)
	}

	position, err := writeFile.Seek(0, io.SeekEnd)
	if err != nil {
		_ = writeFile.Close()

		return nil, fmt.Errorf("seek log file %q end: %w: %w", path, engine.ErrSeekFile, err)
	}

	readFile, err := fsys.Open(path)
	if err != nil {
		_ = writeFile.Close()

		return nil, fmt.Errorf("open log file %q for reading: %w: %w", path, engine.ErrOpenFile, err)
	}

	return &logFile{
		fsys:     fsys,
		path:     path,
		write:    writeFile,
		read:     readFile,
		position: position,
	}, nil
}

// append serializes cmd and writes it at the current end of file, flushing
// before returning. It returns the offset at which the record starts.
func (l *logFile) append(cmd command) (int64, error) {
	data, err := cmd.encode()
	if err != nil {
		return 0, err
	}

	offset := l.position

	n, err := l.write.Write(data)
	if err != nil {
		return 0, fmt.Errorf("append to log file %q: %w: %w", l.path, engine.ErrWriteFile, err)
	}

	l.position = offset + int64(n)

	err = l.write.Sync()
	if err != nil {
		return 0, fmt.Errorf("flush log file %q: %w: %w", l.path, engine.ErrFileFlush, err)
	}

	l.numWrites++

	return offset, nil
}

// readAt seeks the read handle to offset and decodes a single record there.
func (l *logFile) readAt(offset int64) (command, error) {
	_, err := l.read.Seek(offset, io.SeekStart)
	if err != nil {
		return command{}, fmt.Errorf("seek log file %q to %d: %w: %w", l.path, offset, engine.ErrSeekFile, err)
	}

	dec := json.NewDecoder(l.read)

	var cmd command

	err = dec.Decode(&cmd)
	if err != nil {
		return command{}, fmt.Errorf("decode record at %d in %q: %w: %w", offset, l.path, engine.ErrDeserialize, err)
	}

	return cmd, nil
}

// scanFrom seeks the read handle to offset and invokes fn for each decoded
// record, passing the byte offset at which that record started (the
// decoder's cumulative offset before the record was read). It stops at EOF
// or the first error returned by fn or encountered while decoding.
func (l *logFile) scanFrom(offset int64, fn func(start int64, cmd command) error) error {
	_, err := l.read.Seek(offset, io.SeekStart)
	if err != nil {
		return fmt.Errorf("seek log file %q to %d: %w: %w", l.path, offset, engine.ErrSeekFile, err)
	}

	reader := bufio.NewReader(l.read)
	dec := json.NewDecoder(reader)

	start := offset

	for {
		var cmd command

		err := dec.Decode(&cmd)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("decode record at %d in %q: %w: %w", start, l.path, engine.ErrDeserialize, err)
		}

		if err := fn(start, cmd); err != nil {
			return err
		}

		start = offset + dec.InputOffset()
	}
}

// close releases both file handles.
func (l *logFile) close() error {
	writeErr := l.write.Close()
	readErr := l.read.Close()

	return errors.Join(writeErr, readErr)
}
