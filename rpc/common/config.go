package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Shared socket configuration
// --------------------------------------------------------------------------

// SocketConf holds the socket buffer sizes (in bytes, 0 = OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the settings for the server transport layer
type ServerTransportConfig struct {
	// Endpoint is the address the server listens on (host:port, socket path or http url)
	Endpoint string
	// WorkersPerConn limits the number of requests processed concurrently per connection
	WorkersPerConn int
	// BufferSize is the size of the pooled read buffers
	BufferSize int
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters for the RPC server.
type ServerConfig struct {
	// Shards is the list of shard ids served by this server, each backed by a local store
	Shards []uint64

	// TimeoutSecond is the read/write deadline per connection (0 = no deadline)
	TimeoutSecond int64

	// MaxItems bounds the number of keys per shard (0 = unbounded)
	MaxItems int

	// Eviction names the policy a full shard uses to discard a key (fifo, lifo, lru, mru)
	Eviction string

	Transport ServerTransportConfig

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))

	addSection("Storage")
	if c.MaxItems > 0 {
		addField("Max Items", strconv.Itoa(c.MaxItems))
		addField("Eviction", c.Eviction)
	} else {
		addField("Max Items", "unbounded")
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Shards")
	for i, shard := range c.Shards {
		addField(strconv.Itoa(i), strconv.FormatUint(shard, 10))
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the settings for the client transport layer
type ClientTransportConfig struct {
	// Endpoint is the address of the store (host:port, socket path or http url)
	Endpoint string
	SocketConf
	TCPConf
}

// ClientConfig configures a session and its transport
type ClientConfig struct {
	// ShardID is the shard on the server all commands of the session are addressed to
	ShardID uint64
	// TimeoutSecond bounds dialing and each read/write on the connection (0 = no timeout)
	TimeoutSecond int
	// Pipelining allows more than one command in flight, if the transport supports it
	Pipelining bool
	Transport  ClientTransportConfig
}

// Timeout is TimeoutSecond as a duration
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Shard", strconv.FormatUint(c.ShardID, 10))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Pipelining", strconv.FormatBool(c.Pipelining))

	return sb.String()
}
