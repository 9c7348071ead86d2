package server

import (
	"testing"

	"github.com/ValentinKolb/kvs/rpc/common"
	"github.com/ValentinKolb/kvs/rpc/serializer"
	"github.com/ValentinKolb/kvs/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureTransport keeps the registered handler so requests can be fed to the server directly
type captureTransport struct {
	handler transport.ServerHandleFunc
}

func (c *captureTransport) RegisterHandler(handler transport.ServerHandleFunc) { c.handler = handler }
func (c *captureTransport) Listen(common.ServerConfig) error                  { return nil }
func (c *captureTransport) Addr() string                                      { return "capture" }
func (c *captureTransport) Close() error                                      { return nil }

func newTestServer(t *testing.T, shards ...uint64) (*captureTransport, serializer.IRPCSerializer) {
	t.Helper()
	return newConfiguredTestServer(t, common.ServerConfig{Shards: shards})
}

func newConfiguredTestServer(t *testing.T, config common.ServerConfig) (*captureTransport, serializer.IRPCSerializer) {
	t.Helper()
	ct := &captureTransport{}
	codec := serializer.NewBinarySerializer()
	s := NewRPCServer(config, ct, codec)
	require.NoError(t, s.Serve())
	require.NotNil(t, ct.handler)
	return ct, codec
}

func call(t *testing.T, ct *captureTransport, codec serializer.IRPCSerializer, shard uint64, req *common.Message) common.Message {
	t.Helper()
	data, err := codec.Serialize(*req)
	require.NoError(t, err)

	var resp common.Message
	require.NoError(t, codec.Deserialize(ct.handler(shard, data), &resp))
	return resp
}

func TestHandleStoreRequests(t *testing.T) {
	ct, codec := newTestServer(t, 100, 200)

	resp := call(t, ct, codec, 100, common.NewSetRequest("Holberton", []byte("100")))
	assert.False(t, resp.IsError())
	assert.Equal(t, common.MsgTKVSet, resp.MsgType)

	resp = call(t, ct, codec, 100, common.NewGetRequest("Holberton"))
	assert.True(t, resp.Ok)
	assert.Equal(t, "100", string(resp.Value))

	// shards do not share data
	resp = call(t, ct, codec, 200, common.NewGetRequest("Holberton"))
	assert.False(t, resp.IsError())
	assert.False(t, resp.Ok)

	resp = call(t, ct, codec, 100, common.NewDeleteRequest("Holberton"))
	assert.False(t, resp.IsError())

	resp = call(t, ct, codec, 100, common.NewGetRequest("Holberton"))
	assert.False(t, resp.Ok)
}

func TestHandleErrors(t *testing.T) {
	ct, codec := newTestServer(t, 100)

	resp := call(t, ct, codec, 7, common.NewGetRequest("Holberton"))
	assert.True(t, resp.IsError())
	assert.Contains(t, resp.Err, "shard 7 not found")

	var undecodable common.Message
	require.NoError(t, codec.Deserialize(ct.handler(100, []byte{}), &undecodable))
	assert.True(t, undecodable.IsError())

	resp = call(t, ct, codec, 100, &common.Message{MsgType: common.MsgTSuccess})
	assert.True(t, resp.IsError())
	assert.Contains(t, resp.Err, "unsupported message type")
}

func TestHandleEmptyKey(t *testing.T) {
	ct, codec := newTestServer(t, 100)

	resp := call(t, ct, codec, 100, common.NewSetRequest("", []byte("x")))
	assert.False(t, resp.IsError())

	resp = call(t, ct, codec, 100, common.NewGetRequest(""))
	assert.False(t, resp.IsError())
	assert.True(t, resp.Ok)
	assert.Equal(t, "x", string(resp.Value))
}

func TestBoundedShards(t *testing.T) {
	ct, codec := newConfiguredTestServer(t, common.ServerConfig{
		Shards:   []uint64{100, 200},
		MaxItems: 2,
		Eviction: "fifo",
	})

	for _, key := range []string{"A", "B", "C"} {
		resp := call(t, ct, codec, 100, common.NewSetRequest(key, []byte(key)))
		require.False(t, resp.IsError())
	}

	resp := call(t, ct, codec, 100, common.NewGetRequest("A"))
	assert.False(t, resp.Ok, "the first key of a full fifo shard is discarded")
	resp = call(t, ct, codec, 100, common.NewGetRequest("C"))
	assert.True(t, resp.Ok)

	// every shard has its own bound
	for _, key := range []string{"X", "Y"} {
		resp = call(t, ct, codec, 200, common.NewSetRequest(key, []byte(key)))
		require.False(t, resp.IsError())
	}
	resp = call(t, ct, codec, 200, common.NewGetRequest("X"))
	assert.True(t, resp.Ok)
	resp = call(t, ct, codec, 100, common.NewGetRequest("B"))
	assert.True(t, resp.Ok)
}

func TestServeWithoutShards(t *testing.T) {
	s := NewRPCServer(common.ServerConfig{}, &captureTransport{}, serializer.NewBinarySerializer())
	assert.Error(t, s.Serve())

	s = NewRPCServer(common.ServerConfig{Shards: []uint64{1, 1}}, &captureTransport{}, serializer.NewBinarySerializer())
	assert.Error(t, s.Serve())

	s = NewRPCServer(common.ServerConfig{Shards: []uint64{1}, MaxItems: 4, Eviction: "random"}, &captureTransport{}, serializer.NewBinarySerializer())
	assert.ErrorContains(t, s.Serve(), "unknown eviction policy")
}
