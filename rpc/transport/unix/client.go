package unix

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/kvs/rpc/common"
	"github.com/ValentinKolb/kvs/rpc/transport"
	"github.com/ValentinKolb/kvs/rpc/transport/base"
	"net"
	"os"
	"time"
)

// NewUnixClientTransport creates a client transport connecting to a socket file
func NewUnixClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(socketDialer{})
}

// socketDialer is the base.IClientConnector for unix domain sockets
type socketDialer struct{}

func (socketDialer) GetName() string { return "unix" }

func (socketDialer) Connect(ctx context.Context, socketPath string, timeout time.Duration) (net.Conn, error) {
	info, err := os.Stat(socketPath)
	if err != nil {
		return nil, fmt.Errorf("no kvs socket at %s: %w", socketPath, err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return nil, fmt.Errorf("%s is not a socket", socketPath)
	}

	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "unix", socketPath)
}

func (socketDialer) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	return applyBufferSizes(conn, config.Transport.SocketConf)
}
