// Package unix implements a transport layer for kvs using Unix domain sockets,
// for a session and a store running on the same machine.
//
// The package only contributes the connectors: dialing, listening (a stale
// socket file is removed first) and socket buffer sizes. Framing and reply
// correlation come from the base package.
package unix
