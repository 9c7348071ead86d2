package transport

import (
	"context"
	"github.com/ValentinKolb/kvs/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request is received
// It takes a shardId and a request as parameters and returns a response
type ServerHandleFunc func(shardId uint64, req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer
// It must accept a RPCServerConfig as a parameter
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and listens for incoming requests.
	// It blocks until Close is called or the listener fails.
	Listen(config common.ServerConfig) error
	// Addr returns the address the transport is listening on, nil before Listen
	Addr() string
	// Close stops listening and closes all connections
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// Reply is a single event delivered by a client transport.
// Either Data carries the raw reply for RequestID, or Err is set.
// An Err with RequestID 0 means the connection itself broke and no further replies will follow.
type Reply struct {
	RequestID uint64
	Data      []byte
	Err       error
}

// IRPCClientTransport is the interface for the RPC client transport.
// It owns one logical connection to the store; sending and receiving are decoupled,
// replies are published on the Replies channel in the order the server wrote them.
type IRPCClientTransport interface {
	// Connect establishes the connection with the given configuration.
	// A successful return is the acknowledgement that the connection is usable.
	Connect(ctx context.Context, config common.ClientConfig) error
	// Send writes a request tagged with requestID. It does not wait for the reply.
	Send(shardId uint64, requestID uint64, req []byte) error
	// Replies returns the event source for replies. The channel stays the same across reconnects.
	Replies() <-chan Reply
	// Pipelining reports whether more than one request may be in flight at a time
	Pipelining() bool
	// Close closes the transport connection
	Close() error
}
