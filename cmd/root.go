package cmd

import (
	"fmt"
	"github.com/ValentinKolb/kvs/cmd/demo"
	"github.com/ValentinKolb/kvs/cmd/kv"
	"github.com/ValentinKolb/kvs/cmd/serve"
	"github.com/ValentinKolb/kvs/cmd/util"
	"github.com/ValentinKolb/kvs/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvs",
		Short: "key-value store client sessions",
		Long: fmt.Sprintf(`kvs (v%s)

A key-value store with an asynchronous client session: one connection,
explicit connect, futures for every put and get.`, Version),
		SilenceUsage:       true,
		PersistentPreRunE:  initLogging,
		PersistentPostRunE: dumpMetrics,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvs",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvs v%s\n", Version)
		},
	}
)

func init() {
	// run the persistent hooks of all parents, not only the closest one
	cobra.EnableTraverseRunHooks = true
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(demo.DemoCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("level at which logs will be output (debug, info, warn, error)"))
	key = "metrics"
	RootCmd.PersistentFlags().Bool(key, false, util.WrapString("print the collected metrics in prometheus text format when the command is done"))

	_ = viper.BindPFlags(RootCmd.PersistentFlags())
}

// initLogging applies the configured log level to all loggers
func initLogging(_ *cobra.Command, _ []string) error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// dumpMetrics writes all metrics to stdout if --metrics is set
func dumpMetrics(_ *cobra.Command, _ []string) error {
	if viper.GetBool("metrics") {
		fmt.Println()
		metrics.WritePrometheus(os.Stdout, false)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
