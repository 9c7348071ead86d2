package base

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/kvs/rpc/common"
	"github.com/ValentinKolb/kvs/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"sync"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

// replyBufferSize is the capacity of the reply event channel
const replyBufferSize = 64

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(ctx context.Context, endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientConnection represents a single net connection and its reader goroutine
type clientConnection struct {
	conn     net.Conn
	endpoint string
	writeMu  sync.Mutex    // Serializes frame writes
	stopCh   chan struct{} // Closed when the connection is closed on purpose
	stopOnce sync.Once
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
	replies   chan transport.Reply
	mu        sync.Mutex // Protects conn and config
	conn      *clientConnection
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
		replies:   make(chan transport.Reply, replyBufferSize),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(ctx context.Context, config common.ClientConfig) error {
	if config.Transport.Endpoint == "" {
		return fmt.Errorf("no endpoint provided")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Drop a previous connection, its reader stops without publishing an error
	if t.conn != nil {
		t.conn.close()
		t.conn = nil
	}
	t.config = config

	conn, err := t.connector.Connect(ctx, config.Transport.Endpoint, config.Timeout())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", config.Transport.Endpoint, err)
	}

	if err := t.connector.UpgradeConnection(conn, config); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %w", config.Transport.Endpoint, err)
	}

	c := &clientConnection{
		conn:     conn,
		endpoint: config.Transport.Endpoint,
		stopCh:   make(chan struct{}),
	}
	t.conn = c

	go t.readResponses(c)

	Logger.Infof("Connected to %s using %s transport", c.endpoint, t.connector.GetName())
	return nil
}

func (t *clientTransport) Send(shardId uint64, requestID uint64, req []byte) error {
	t.mu.Lock()
	c := t.conn
	timeout := t.config.Timeout()
	t.mu.Unlock()

	if c == nil {
		return fmt.Errorf("connection is closed")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}

	return writeFrame(c.conn, shardId, requestID, req)
}

func (t *clientTransport) Replies() <-chan transport.Reply {
	return t.replies
}

func (t *clientTransport) Pipelining() bool {
	return true
}

func (t *clientTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		t.conn.close()
		t.conn = nil
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// close stops the reader goroutine and closes the socket
func (c *clientConnection) close() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		_ = c.conn.Close()
	})
}

// stopped reports whether the connection was closed on purpose
func (c *clientConnection) stopped() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

// publish hands a reply to the consumer unless the connection was closed meanwhile
func (t *clientTransport) publish(c *clientConnection, reply transport.Reply) bool {
	select {
	case t.replies <- reply:
		return true
	case <-c.stopCh:
		return false
	}
}

// readResponses reads reply frames in a loop and publishes them as events.
// No read deadline is set: an idle session keeps its connection, timeouts are enforced by the caller.
func (t *clientTransport) readResponses(c *clientConnection) {
	for {
		_, requestID, data, err := readFrame(c.conn, nil)
		if err != nil {
			if c.stopped() {
				return
			}
			Logger.Errorf("Connection to %s lost: %v", c.endpoint, err)
			t.publish(c, transport.Reply{Err: fmt.Errorf("connection to %s lost: %w", c.endpoint, err)})
			c.close()
			return
		}

		if !t.publish(c, transport.Reply{RequestID: requestID, Data: data}) {
			return
		}
	}
}
