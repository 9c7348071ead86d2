package demo

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ValentinKolb/kvs/rpc/common"
	"github.com/ValentinKolb/kvs/rpc/serializer"
	"github.com/ValentinKolb/kvs/rpc/server"
	"github.com/ValentinKolb/kvs/rpc/transport/tcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer runs a tcp server with shard 100 and returns its address
func startServer(t *testing.T) string {
	t.Helper()

	srv := server.NewRPCServer(common.ServerConfig{
		Shards:        []uint64{100},
		TimeoutSecond: 5,
		Transport: common.ServerTransportConfig{
			Endpoint:       "127.0.0.1:0",
			WorkersPerConn: 1,
		},
	}, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()
	t.Cleanup(func() {
		_ = srv.Close()
		select {
		case <-errCh:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	addr := srv.Addr()
	require.NotEmpty(t, addr, "server failed to listen")
	return addr
}

func TestRunPrintsRepliesInIssueOrder(t *testing.T) {
	for _, pipelining := range []bool{false, true} {
		t.Run(fmt.Sprintf("pipelining=%v", pipelining), func(t *testing.T) {
			t.Cleanup(viper.Reset)
			addr := startServer(t)

			viper.Set("transport", "tcp")
			viper.Set("serializer", "binary")
			viper.Set("endpoint", addr)
			viper.Set("shard", 100)
			viper.Set("timeout", 5)
			viper.Set("pipelining", pipelining)

			var out bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&out)
			cmd.SetContext(context.Background())

			require.NoError(t, run(cmd, nil))
			assert.Equal(t, "(nil)\nReply: OK\n100\n", out.String())

			// a second run against the same store prints the same replies
			out.Reset()
			require.NoError(t, run(cmd, nil))
			assert.Equal(t, "(nil)\nReply: OK\n100\n", out.String())
		})
	}
}

func TestRunWithoutServer(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("transport", "tcp")
	viper.Set("serializer", "binary")
	viper.Set("endpoint", "127.0.0.1:1")
	viper.Set("shard", 100)
	viper.Set("timeout", 1)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	assert.Error(t, run(cmd, nil))
	assert.Empty(t, out.String(), "nothing is printed without a connection")
}
