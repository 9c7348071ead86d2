// Package tcp implements the TCP socket transport for kvs. It provides the
// TCP specific connectors for the base package: dialing and listening, plus
// the socket options (TCP_NODELAY, keep-alive, linger, buffer sizes) taken
// from common.TCPConf and common.SocketConf.
//
// Framing, reply correlation and the reply event stream are inherited from
// the base package.
package tcp
