// Package client implements the blocking client API of kvs.
//
// Key Components:
//
//   - NewSessionStore: Wraps a session.Session into a store.IStore. Each call issues
//     one command on the session and waits for its future, so code written against
//     store.IStore works unchanged against a remote store.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  ShardID:       100,
//	  TimeoutSecond: 5,
//	  Transport:     common.ClientTransportConfig{Endpoint: "localhost:8080"},
//	}
//
//	s := session.New(tcp.NewTCPClientTransport(), serializer.NewBinarySerializer(), config)
//	if err := s.Connect(ctx); err != nil {
//	  return err
//	}
//	defer s.Close()
//
//	kv := client.NewSessionStore(s, config.Timeout())
//	_ = kv.Set("Holberton", []byte("100"))
//	value, found, _ := kv.Get("Holberton")
//
// Thread Safety:
//
//	The store is as thread-safe as the session it wraps, which is safe for concurrent use.
//	The session is not connected or closed by the store.
package client
