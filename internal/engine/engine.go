// Package engine defines the storage backend capability set shared by the
// log-structured primary engine and the sqlite-backed alt engine, plus the
// sentinel errors the server converts into wire responses.
package engine

import "errors"

// Engine is the capability set a storage backend must satisfy to be served
// over the wire. Two implementations exist: logengine.Store (the primary,
// log-structured backend) and sqliteengine.Store (the alt backend).
//
// Clone must return a handle sharing the same underlying guarded state, not
// a deep copy - the server calls Clone once per accepted connection so every
// clone observes the same live data.
type Engine interface {
	// Get returns the value for key and true if it is present (its latest
	// record is a Set), or "", false, nil if absent.
	Get(key string) (string, bool, error)

	// Set persists value for key, replacing any prior value.
	Set(key, value string) error

	// Remove deletes key. Returns ErrKeyNotFound if key is not present.
	Remove(key string) error

	// Clone returns a handle over the same underlying state, safe for
	// concurrent use from another goroutine.
	Clone() Engine

	// Close releases any resources held by the engine.
	Close() error
}

// Sentinel errors. Each error kind from the storage engine is one of these
// values, wrapped with context via fmt.Errorf("...: %w", err) at each layer.
// Callers should use errors.Is to check for a specific kind.
var (
	// ErrOpenFile indicates the log file could not be opened.
	ErrOpenFile = errors.New("open file")

	// ErrWriteFile indicates a write to the log file failed.
	ErrWriteFile = errors.New("write file")

	// ErrSeekFile indicates a seek on the log file failed.
	ErrSeekFile = errors.New("seek file")

	// ErrFileFlush indicates a flush/sync of the log file failed.
	ErrFileFlush = errors.New("file flush")

	// ErrFileMove indicates the atomic rename during compaction failed.
	// The live log is left intact.
	ErrFileMove = errors.New("file move")

	// ErrSerialize indicates a command record could not be encoded.
	ErrSerialize = errors.New("serialize")

	// ErrDeserialize indicates a command record could not be decoded.
	// Surfaced during rebuild_index, this indicates log corruption.
	ErrDeserialize = errors.New("deserialize")

	// ErrKeyNotFound indicates the key has no live record.
	//
	// Get swallows this error and returns (_, false, nil) instead. Remove
	// surfaces it to the caller, and the server maps it to the wire
	// error "Key not found".
	ErrKeyNotFound = errors.New("key not found")

	// ErrClosedStream indicates a client disconnected before sending a
	// complete request.
	ErrClosedStream = errors.New("closed stream")

	// ErrEngineMismatch indicates the requested engine does not match the
	// engine persisted in the directory's .engine marker file.
	ErrEngineMismatch = errors.New("engine mismatch")
)

// KeyNotFoundMessage is the exact wire error string sent for a Remove
// request against an absent key. cmd/kvd does not match on it: its rm
// command treats any Err response as a failure and prints the message.
const KeyNotFoundMessage = "Key not found"
