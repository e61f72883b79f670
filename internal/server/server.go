// Package server binds a TCP listener and dispatches each accepted
// connection as a job to a thread pool, where it is decoded, applied to the
// engine, and answered - one request and one response per connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kvd/internal/engine"
	"kvd/pkg/pool"
	"kvd/pkg/wire"
)

// Server binds a listener, accepts connections, and submits each to pool as
// a job that decodes one request, dispatches it to a clone of eng, and
// writes one response.
type Server struct {
	eng    engine.Engine
	pool   pool.Pool
	logger *zap.Logger
}

// New returns a Server that dispatches onto eng via pool, logging
// accept/dispatch/panic events with logger.
func New(eng engine.Engine, p pool.Pool, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{eng: eng, pool: p, logger: logger}
}

// Listen binds addr and returns the listener, leaving Serve to the caller so
// callers can log the bound address (useful when addr has an ephemeral
// port) before blocking in the accept loop.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %q: %w", addr, err)
	}

	return ln, nil
}

// Serve accepts connections from ln until ctx is canceled or Accept fails.
// Each accepted connection is cloned off the engine and submitted to the
// pool; Serve handles no request itself and waits on the pool only as long
// as pool.Spawn does.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("accept: %w", err)
		}

		connEngine := s.eng.Clone()
		connID := uuid.NewString()

		s.pool.Spawn(func() {
			s.handleConn(connID, connEngine, conn)
		})
	}
}

// handleConn decodes one request, dispatches it, writes one response, and
// closes conn. A premature EOF before a request arrives is logged and the
// connection dropped without crashing the server, matching spec.md's
// ClosedStream contract.
func (s *Server) handleConn(connID string, eng engine.Engine, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	req, err := wire.DecodeReq(conn)
	if err != nil {
		if errors.Is(err, wire.ErrClosedStream) {
			s.logger.Debug("closed stream before request", zap.String("conn", connID))

			return
		}

		s.logger.Warn("decode request failed", zap.String("conn", connID), zap.Error(err))

		return
	}

	resp := dispatch(eng, req)

	if err := wire.EncodeResp(conn, resp); err != nil {
		s.logger.Warn("encode response failed", zap.String("conn", connID), zap.Error(err))
	}
}

// dispatch invokes the engine operation for req and converts any error to a
// wire.Resp Err(message) via the error's Error() string, per spec.md §7,
// except that Remove on an absent key sends engine.KeyNotFoundMessage.
func dispatch(eng engine.Engine, req wire.Req) wire.Resp {
	switch req.Kind {
	case wire.ReqGet:
		value, ok, err := eng.Get(req.Key)
		if err != nil {
			return wire.ErrResp(err.Error())
		}

		return wire.OkResp(wire.GetSucc(value, ok))

	case wire.ReqSet:
		if err := eng.Set(req.Key, req.Value); err != nil {
			return wire.ErrResp(err.Error())
		}

		return wire.OkResp(wire.SetSucc())

	case wire.ReqRemove:
		if err := eng.Remove(req.Key); err != nil {
			if errors.Is(err, engine.ErrKeyNotFound) {
				return wire.ErrResp(engine.KeyNotFoundMessage)
			}

			return wire.ErrResp(err.Error())
		}

		return wire.OkResp(wire.RemoveSucc())

	default:
		return wire.ErrResp(fmt.Sprintf("unknown request kind %d", req.Kind))
	}
}
