package logengine

import (
	"encoding/json"
	"fmt"

	"kvd/internal/engine"
)

// command is the log's unit of persistence: either a Set{k,v} or a
// Remove{k}. It mirrors the on-disk JSON shape byte-for-byte:
//
//	{"Set":{"k":"a","v":"1"}}
//	{"Remove":{"k":"a"}}
type command struct {
	Set    *setBody    `json:"Set,omitempty"`
	Remove *removeBody `json:"Remove,omitempty"`
}

type setBody struct {
	K string `json:"k"`
	V string `json:"v"`
}

type removeBody struct {
	K string `json:"k"`
}

func setCommand(k, v string) command {
	return command{Set: &setBody{K: k, V: v}}
}

func removeCommand(k string) command {
	return command{Remove: &removeBody{K: k}}
}

// key returns the command's key regardless of variant.
func (c command) key() string {
	if c.Set != nil {
		return c.Set.K
	}

	return c.Remove.K
}

// value reports the live value of c, or ("", false) if c is a tombstone.
func (c command) value() (string, bool) {
	if c.Set != nil {
		return c.Set.V, true
	}

	return "", false
}

func (c command) encode() ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrSerialize, err)
	}

	return b, nil
}
