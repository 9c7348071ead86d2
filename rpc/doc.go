// Package rpc provides the communication layer between a kvs session and the
// key-value store it talks to.
//
// The package is organized into several subpackages:
//
//   - common: The Message protocol, configuration structures and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP). Client transports deliver replies as events so that
//     the session can correlate them with the commands it issued.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB).
//
//   - client: A blocking store facade on top of a session.
//
//   - server: The RPC server that answers set, get and delete requests from local stores.
package rpc
