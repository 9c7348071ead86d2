// Package common provides core data structures and utilities shared across
// kvs. It defines the message protocol, the configuration structures and the
// logging setup used by the session, the transports and the server.
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication between a session
//     and the store, with factory methods for set, get and delete requests and
//     responses.
//
//   - MessageType: Enumeration of the supported operations and control messages.
//
//   - ServerConfig / ClientConfig: Configuration for the RPC server and for a
//     client session (endpoint, shard, timeouts, socket options, pipelining).
//
//   - Logger: Custom logger factory plugged into dragonboat's logger package,
//     so every package obtains its logger with logger.GetLogger(name).
package common
