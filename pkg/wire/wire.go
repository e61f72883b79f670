// Package wire implements the framed request/response codec exchanged on
// each connection: one self-delimited JSON object per direction, matching
// spec.md's on-the-wire shapes byte-for-byte (e.g. {"Get":"a"},
// {"Ok":{"Get":"1"}}, {"Err":{"Server":"Key not found"}}).
//
// The tagged-union encoding is grounded on pkg/jsonx.Field[T]'s tri-state
// UnmarshalJSON pattern (edirooss-zmux-server), adapted here to distinguish
// "Get" returning a value from "Get" returning null.
package wire

import (
	"encoding/json"
	"fmt"
)

// ReqKind identifies which request variant a Req holds.
type ReqKind int

const (
	ReqGet ReqKind = iota
	ReqSet
	ReqRemove
)

// Req is a tagged union over the three request variants. Exactly one of Key
// (for Get/Remove) or Key+Value (for Set) is meaningful, selected by Kind.
type Req struct {
	Kind  ReqKind
	Key   string
	Value string
}

// GetReq builds a Get request.
func GetReq(key string) Req { return Req{Kind: ReqGet, Key: key} }

// SetReq builds a Set request.
func SetReq(key, value string) Req { return Req{Kind: ReqSet, Key: key, Value: value} }

// RemoveReq builds a Remove request.
func RemoveReq(key string) Req { return Req{Kind: ReqRemove, Key: key} }

// MarshalJSON encodes r as {"Get":"k"}, {"Set":["k","v"]}, or {"Remove":"k"}.
func (r Req) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ReqGet:
		return json.Marshal(struct {
			Get string `json:"Get"`
		}{r.Key})
	case ReqSet:
		return json.Marshal(struct {
			Set [2]string `json:"Set"`
		}{[2]string{r.Key, r.Value}})
	case ReqRemove:
		return json.Marshal(struct {
			Remove string `json:"Remove"`
		}{r.Key})
	default:
		return nil, fmt.Errorf("wire: marshal req: unknown kind %d", r.Kind)
	}
}

// UnmarshalJSON decodes one of the three request shapes into r.
func (r *Req) UnmarshalJSON(b []byte) error {
	var wire struct {
		Get    *string    `json:"Get"`
		Set    *[2]string `json:"Set"`
		Remove *string    `json:"Remove"`
	}

	if err := json.Unmarshal(b, &wire); err != nil {
		return fmt.Errorf("wire: unmarshal req: %w", err)
	}

	switch {
	case wire.Get != nil:
		r.Kind, r.Key, r.Value = ReqGet, *wire.Get, ""
	case wire.Set != nil:
		r.Kind, r.Key, r.Value = ReqSet, wire.Set[0], wire.Set[1]
	case wire.Remove != nil:
		r.Kind, r.Key, r.Value = ReqRemove, *wire.Remove, ""
	default:
		return fmt.Errorf("wire: unmarshal req: no recognized variant in %s", b)
	}

	return nil
}

// optionString distinguishes a present string value from an explicit JSON
// null, the way Rust's Option<String> is represented on the wire.
type optionString struct {
	value   string
	present bool
}

func someString(v string) optionString { return optionString{value: v, present: true} }
func noString() optionString           { return optionString{} }

func (o optionString) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}

	return json.Marshal(o.value)
}

func (o *optionString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = optionString{}

		return nil
	}

	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("wire: unmarshal option string: %w", err)
	}

	*o = optionString{value: v, present: true}

	return nil
}

// SuccKind identifies which success response variant a SuccResp holds.
type SuccKind int

const (
	SuccGet SuccKind = iota
	SuccSet
	SuccRemove
)

// SuccResp is a tagged union over the three success response variants.
type SuccResp struct {
	Kind SuccKind

	// GetValue is meaningful only when Kind == SuccGet.
	GetValue    string
	GetValueSet bool
}

// GetSucc builds a successful Get response. present is false when the key
// had no live record.
func GetSucc(value string, present bool) SuccResp {
	return SuccResp{Kind: SuccGet, GetValue: value, GetValueSet: present}
}

// SetSucc builds a successful Set response.
func SetSucc() SuccResp { return SuccResp{Kind: SuccSet} }

// RemoveSucc builds a successful Remove response.
func RemoveSucc() SuccResp { return SuccResp{Kind: SuccRemove} }

// MarshalJSON encodes a SuccResp as {"Get":<value-or-null>}, the bare string
// "Set", or the bare string "Remove".
func (s SuccResp) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SuccGet:
		opt := noString()
		if s.GetValueSet {
			opt = someString(s.GetValue)
		}

		return json.Marshal(struct {
			Get optionString `json:"Get"`
		}{opt})
	case SuccSet:
		return json.Marshal("Set")
	case SuccRemove:
		return json.Marshal("Remove")
	default:
		return nil, fmt.Errorf("wire: marshal succ resp: unknown kind %d", s.Kind)
	}
}

// UnmarshalJSON decodes either a bare variant string ("Set", "Remove") or a
// {"Get": ...} object into s.
func (s *SuccResp) UnmarshalJSON(b []byte) error {
	var bare string
	if err := json.Unmarshal(b, &bare); err == nil {
		switch bare {
		case "Set":
			*s = SuccResp{Kind: SuccSet}

			return nil
		case "Remove":
			*s = SuccResp{Kind: SuccRemove}

			return nil
		default:
			return fmt.Errorf("wire: unmarshal succ resp: unknown variant %q", bare)
		}
	}

	var wire struct {
		Get json.RawMessage `json:"Get"`
	}

	if err := json.Unmarshal(b, &wire); err != nil {
		return fmt.Errorf("wire: unmarshal succ resp: %w", err)
	}

	if wire.Get == nil {
		return fmt.Errorf("wire: unmarshal succ resp: no recognized variant in %s", b)
	}

	var opt optionString
	if err := opt.UnmarshalJSON(wire.Get); err != nil {
		return fmt.Errorf("wire: unmarshal succ resp: %w", err)
	}

	*s = SuccResp{Kind: SuccGet, GetValue: opt.value, GetValueSet: opt.present}

	return nil
}

// WireError is the single error variant the server sends: a human-readable
// message describing an engine-side failure.
type WireError struct {
	Server string `json:"Server"`
}

// Resp is a tagged union over the server's result: Ok(SuccResp) or
// Err(WireError).
type Resp struct {
	Ok  *SuccResp
	Err *WireError
}

// OkResp builds a successful response.
func OkResp(succ SuccResp) Resp { return Resp{Ok: &succ} }

// ErrResp builds a failure response carrying message.
func ErrResp(message string) Resp { return Resp{Err: &WireError{Server: message}} }

// MarshalJSON encodes r as {"Ok":...} or {"Err":...}.
func (r Resp) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(struct {
			Err *WireError `json:"Err"`
		}{r.Err})
	}

	return json.Marshal(struct {
		Ok *SuccResp `json:"Ok"`
	}{r.Ok})
}

// UnmarshalJSON decodes {"Ok":...} or {"Err":...} into r.
func (r *Resp) UnmarshalJSON(b []byte) error {
	var wire struct {
		Ok  *SuccResp  `json:"Ok"`
		Err *WireError `json:"Err"`
	}

	if err := json.Unmarshal(b, &wire); err != nil {
		return fmt.Errorf("wire: unmarshal resp: %w", err)
	}

	if wire.Ok == nil && wire.Err == nil {
		return fmt.Errorf("wire: unmarshal resp: no recognized variant in %s", b)
	}

	r.Ok, r.Err = wire.Ok, wire.Err

	return nil
}
