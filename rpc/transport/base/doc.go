// Package base provides the foundation for the socket transports of kvs
// (TCP, Unix sockets). It implements the frame protocol and the client and
// server loops, and is extended with protocol-specific connectors.
//
// Frame format (all integers big endian):
//
//	[8 byte shardID][8 byte requestID][4 byte payload length][payload]
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     (dialing, listening, socket options).
//
//   - clientTransport: Owns one connection. Send writes a frame and returns
//     immediately; a reader goroutine publishes every reply frame as a
//     transport.Reply on the Replies channel. When the connection breaks, a
//     single Reply with Err set is published and the reader stops. Nothing is
//     retried and nothing reconnects on its own.
//
//   - serverTransport: Accepts connections and hands each frame to the
//     registered handler. The reply carries the request id of the request.
//     With one worker per connection (the default) replies are written in
//     request order; more workers trade ordering for throughput.
//
// Performance Optimizations:
//
//   - Buffer Pooling: The server uses a sync.Pool to reuse read buffers.
//
//   - Frame Batching: Frames are written with net.Buffers, combining header
//     and payload into a single write.
//
// Thread Safety:
//
//	All public methods are thread-safe. Writes on a connection are serialized
//	with a mutex.
package base
