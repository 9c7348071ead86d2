package kv

import (
	"context"
	"github.com/ValentinKolb/kvs/cmd/util"
	"github.com/ValentinKolb/kvs/lib/session"
	"github.com/ValentinKolb/kvs/lib/store"
	"github.com/ValentinKolb/kvs/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	kvSession *session.Session
	rpcStore  store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient opens a session and wraps it into a blocking store client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	if kvSession, err = util.NewSession(); err != nil {
		return err
	}

	config := util.GetClientConfig()
	if err := util.ConnectSession(context.Background(), kvSession, viper.GetInt("connect-retries")); err != nil {
		return err
	}

	rpcStore = client.NewSessionStore(kvSession, config.Timeout())
	return nil
}

// closeKVClient closes the session opened by setupKVClient
func closeKVClient(_ *cobra.Command, _ []string) error {
	if kvSession == nil {
		return nil
	}
	return kvSession.Close()
}
