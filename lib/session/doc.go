// Package session implements the client side session of kvs: one logical connection
// to a store, its lifecycle and the commands issued on it.
//
// Key Components:
//
//   - Session: Owns the connection to the store. Tracks the connection state
//     (Disconnected, Connecting, Ready, Failed), issues Put, Get and Delete commands
//     and dispatches the replies of the transport to the command that issued them.
//
//   - Future: The completion handle of a command. It is resolved exactly once,
//     either with a Result or with an error.
//
//   - PendingTable: Correlates in-flight commands with their replies by request id.
//     Lookups are destructive, so a command can never be resolved twice.
//
// Commands are only accepted while the session is Ready, otherwise they fail
// synchronously with ErrNotConnected. The session never reconnects on its own:
// after a transport failure the state is Failed until Connect is called again.
//
// Usage Example:
//
//	s := session.New(tcp.NewTCPClientTransport(), serializer.NewBinarySerializer(), config)
//	s.OnStateChange(func(from, to session.State, err error) {
//	  log.Printf("%s -> %s", from, to)
//	})
//
//	if err := s.Connect(ctx); err != nil {
//	  return err
//	}
//	defer s.Close()
//
//	f, err := s.Put("Holberton", "100")
//	if err != nil {
//	  return err
//	}
//	if _, err := f.Wait(ctx); err != nil {
//	  return err
//	}
//
// When the transport supports pipelining and the config enables it, commands are
// written as soon as they are issued. Otherwise the session keeps exactly one
// command on the wire and sends the next one once the previous reply arrived.
package session
