package server_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kvd/internal/client"
	"kvd/internal/engine/logengine"
	"kvd/internal/server"
	"kvd/pkg/fs"
	"kvd/pkg/pool"
	"kvd/pkg/wire"
)

func startTestServer(t *testing.T) string {
	t.Helper()

	st, err := logengine.Open(fs.NewReal(), t.TempDir())
	require.NoError(t, err)

	p := pool.NewShared(4)

	ln, err := server.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	srv := server.New(st, p, zap.NewNop())

	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = srv.Serve(ctx, ln)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		_ = p.Close()
		_ = st.Close()
	})

	return ln.Addr().String()
}

func TestServer_GetSetRemoveRoundTrip(t *testing.T) {
	t.Parallel()

	addr := startTestServer(t)

	resp, err := client.Call(addr, wire.SetReq("key1", "value1"))
	require.NoError(t, err)
	require.Equal(t, wire.OkResp(wire.SetSucc()), resp)

	resp, err = client.Call(addr, wire.GetReq("key1"))
	require.NoError(t, err)
	require.Equal(t, wire.OkResp(wire.GetSucc("value1", true)), resp)

	resp, err = client.Call(addr, wire.RemoveReq("key1"))
	require.NoError(t, err)
	require.Equal(t, wire.OkResp(wire.RemoveSucc()), resp)

	resp, err = client.Call(addr, wire.GetReq("key1"))
	require.NoError(t, err)
	require.Equal(t, wire.OkResp(wire.GetSucc("", false)), resp)
}

func TestServer_RemoveAbsentKey_ReturnsKeyNotFoundWireError(t *testing.T) {
	t.Parallel()

	addr := startTestServer(t)

	resp, err := client.Call(addr, wire.RemoveReq("nope"))
	require.NoError(t, err)
	require.Equal(t, wire.ErrResp("Key not found"), resp)
}
