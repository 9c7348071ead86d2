// Package server implements the RPC server of kvs: the store a session talks to.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface for adapters that translate a request Message
//     into calls on a store.IStore and build the response Message.
//
//   - NewIStoreServerAdapter: The adapter for set, get and delete requests.
//
//   - NewRPCServer: Creates a server with the given transport and serializer. Every
//     configured shard id gets its own local store (lstore).
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards:        []uint64{100},
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	  Transport:     common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	}
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Requests for an unknown shard and requests that cannot be decoded are answered
// with an error message instead of closing the connection.
package server
