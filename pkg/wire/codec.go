package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrClosedStream indicates the peer disconnected before a complete message
// arrived.
var ErrClosedStream = errors.New("wire: closed stream")

// DecodeReq reads exactly one framed Req from r.
func DecodeReq(r io.Reader) (Req, error) {
	var req Req

	dec := json.NewDecoder(r)

	err := dec.Decode(&req)
	if errors.Is(err, io.EOF) {
		return Req{}, ErrClosedStream
	}

	if err != nil {
		return Req{}, fmt.Errorf("wire: decode req: %w", err)
	}

	return req, nil
}

// EncodeResp writes exactly one framed Resp to w.
func EncodeResp(w io.Writer, resp Resp) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("wire: encode resp: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("wire: write resp: %w", err)
	}

	return nil
}

// DecodeResp reads exactly one framed Resp from r.
func DecodeResp(r io.Reader) (Resp, error) {
	var resp Resp

	dec := json.NewDecoder(r)

	err := dec.Decode(&resp)
	if errors.Is(err, io.EOF) {
		return Resp{}, ErrClosedStream
	}

	if err != nil {
		return Resp{}, fmt.Errorf("wire: decode resp: %w", err)
	}

	return resp, nil
}

// EncodeReq writes exactly one framed Req to w.
func EncodeReq(w io.Writer, req Req) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("wire: encode req: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("wire: write req: %w", err)
	}

	return nil
}
