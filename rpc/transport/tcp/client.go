package tcp

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/kvs/rpc/common"
	"github.com/ValentinKolb/kvs/rpc/transport"
	"github.com/ValentinKolb/kvs/rpc/transport/base"
	"net"
	"strings"
	"time"
)

// NewTCPClientTransport creates a client transport dialing host:port endpoints over TCP
func NewTCPClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(tcpDialer{})
}

// tcpDialer is the base.IClientConnector for TCP
type tcpDialer struct{}

func (tcpDialer) GetName() string { return "tcp" }

// Connect dials the endpoint. Keep-alive is left to UpgradeConnection, so it is only enabled when configured.
func (tcpDialer) Connect(ctx context.Context, endpoint string, timeout time.Duration) (net.Conn, error) {
	// accept the url form used by the http transport as well
	endpoint = strings.TrimPrefix(endpoint, "tcp://")

	d := net.Dialer{Timeout: timeout, KeepAlive: -1}
	conn, err := d.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("tcp dial %s: %w", endpoint, err)
	}
	return conn, nil
}

func (tcpDialer) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	return applySocketOptions(conn, config.Transport.SocketConf, config.Transport.TCPConf)
}
