package util

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/kvs/lib/session"
	"github.com/ValentinKolb/kvs/rpc/common"
	"github.com/ValentinKolb/kvs/rpc/serializer"
	"github.com/ValentinKolb/kvs/rpc/server"
	"github.com/ValentinKolb/kvs/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// attemptCounter counts how often a session entered Connecting
type attemptCounter struct {
	mu sync.Mutex
	n  int
}

func (c *attemptCounter) observe(_, to session.State, _ error) {
	if to != session.StateConnecting {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *attemptCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func newTCPSession(t *testing.T, endpoint string) (*session.Session, *attemptCounter) {
	t.Helper()
	s := session.New(tcp.NewTCPClientTransport(), serializer.NewBinarySerializer(), common.ClientConfig{
		ShardID:       100,
		TimeoutSecond: 1,
		Transport:     common.ClientTransportConfig{Endpoint: endpoint},
	})
	t.Cleanup(func() { _ = s.Close() })

	attempts := &attemptCounter{}
	s.OnStateChange(attempts.observe)
	return s, attempts
}

// freeAddr returns a local tcp address nothing listens on
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestConnectSessionGivesUpAfterRetries(t *testing.T) {
	s, attempts := newTCPSession(t, freeAddr(t))

	err := ConnectSession(context.Background(), s, 2)
	var terr *session.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "connect", terr.Op)

	assert.Equal(t, 3, attempts.count(), "one attempt plus two retries")
	assert.Equal(t, session.StateFailed, s.State())
}

func TestConnectSessionRetriesUntilServerIsUp(t *testing.T) {
	addr := freeAddr(t)
	s, attempts := newTCPSession(t, addr)

	srv := server.NewRPCServer(common.ServerConfig{
		Shards:    []uint64{100},
		Transport: common.ServerTransportConfig{Endpoint: addr, WorkersPerConn: 1},
	}, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())
	t.Cleanup(func() {
		srv.Addr()
		_ = srv.Close()
	})

	go func() {
		time.Sleep(300 * time.Millisecond)
		_ = srv.Serve()
	}()

	require.NoError(t, ConnectSession(context.Background(), s, 20))
	assert.Equal(t, session.StateReady, s.State())
	assert.Greater(t, attempts.count(), 1, "the first attempt runs before the server listens")
}

func TestConnectSessionStopsOnClosedSession(t *testing.T) {
	s, attempts := newTCPSession(t, freeAddr(t))
	require.NoError(t, s.Close())

	err := ConnectSession(context.Background(), s, 5)
	assert.ErrorIs(t, err, session.ErrSessionClosed)
	assert.Equal(t, 0, attempts.count())
}

func TestConnectSessionHonorsContext(t *testing.T) {
	s, _ := newTCPSession(t, freeAddr(t))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.Error(t, ConnectSession(ctx, s, 1000))
	assert.Less(t, time.Since(start), 5*time.Second)
}
