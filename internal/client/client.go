// Package client implements the TCP client used by cmd/kvd: connect, write
// one request, read one response, close.
package client

import (
	"fmt"
	"net"
	"time"

	"kvd/pkg/wire"
)

// dialTimeout bounds how long Call waits to establish the TCP connection.
const dialTimeout = 5 * time.Second

// Call connects to addr, sends req, reads and returns the response, then
// closes the connection. One request, one response, per spec.md §6.
func Call(addr string, req wire.Req) (wire.Resp, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return wire.Resp{}, fmt.Errorf("connect to %q: %w", addr, err)
	}

	defer func() { _ = conn.Close() }()

	if err := wire.EncodeReq(conn, req); err != nil {
		return wire.Resp{}, fmt.Errorf("send request to %q: %w", addr, err)
	}

	resp, err := wire.DecodeResp(conn)
	if err != nil {
		return wire.Resp{}, fmt.Errorf("read response from %q: %w", addr, err)
	}

	return resp, nil
}
