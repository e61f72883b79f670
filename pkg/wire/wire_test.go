package wire_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"kvd/pkg/wire"
)

func TestReq_MarshalJSON_MatchesWireShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  wire.Req
		want string
	}{
		{"get", wire.GetReq("a"), `{"Get":"a"}`},
		{"set", wire.SetReq("a", "1"), `{"Set":["a","1"]}`},
		{"remove", wire.RemoveReq("a"), `{"Remove":"a"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := json.Marshal(tt.req)
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestReq_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, req := range []wire.Req{wire.GetReq("a"), wire.SetReq("a", "1"), wire.RemoveReq("a")} {
		data, err := json.Marshal(req)
		require.NoError(t, err)

		var decoded wire.Req

		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, req, decoded)
	}
}

func TestResp_MarshalJSON_MatchesWireShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp wire.Resp
		want string
	}{
		{"get hit", wire.OkResp(wire.GetSucc("1", true)), `{"Ok":{"Get":"1"}}`},
		{"get miss", wire.OkResp(wire.GetSucc("", false)), `{"Ok":{"Get":null}}`},
		{"set", wire.OkResp(wire.SetSucc()), `{"Ok":"Set"}`},
		{"remove", wire.OkResp(wire.RemoveSucc()), `{"Ok":"Remove"}`},
		{"err", wire.ErrResp("Key not found"), `{"Err":{"Server":"Key not found"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := json.Marshal(tt.resp)
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestDecodeReq_EncodeResp_RoundTripOverBuffer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, wire.EncodeReq(&buf, wire.SetReq("k", "v")))

	req, err := wire.DecodeReq(&buf)
	require.NoError(t, err)
	require.Equal(t, wire.SetReq("k", "v"), req)
}

func TestDecodeReq_EmptyStreamReturnsClosedStream(t *testing.T) {
	t.Parallel()

	_, err := wire.DecodeReq(bytes.NewReader(nil))
	require.ErrorIs(t, err, wire.ErrClosedStream)
}
