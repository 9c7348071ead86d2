package demo

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/kvs/cmd/util"
	"github.com/ValentinKolb/kvs/lib/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// DemoCmd runs the school example against a server
	DemoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Run a short example session against a kvs server",
		Long: `Connects to the server and issues three commands without waiting in between:
reads the value of the school "Holberton", sets "HolbertonSanFrancisco" to 100
and reads it back. The replies are printed in the order the commands were issued.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
		RunE: run,
	}
)

func init() {
	util.SetupRPCClientFlags(DemoCmd)
}

// step is one issued command and how its reply is printed
type step struct {
	future *session.Future
	print  func(session.Result)
}

func run(cmd *cobra.Command, _ []string) error {
	s, err := util.NewSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := util.ConnectSession(ctx, s, viper.GetInt("connect-retries")); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	steps := make([]step, 0, 3)

	display := func(school string) error {
		f, err := s.Get(school)
		if err != nil {
			return err
		}
		steps = append(steps, step{f, func(res session.Result) {
			if !res.Found {
				fmt.Fprintln(out, "(nil)")
				return
			}
			fmt.Fprintln(out, res.Value)
		}})
		return nil
	}

	setNewSchool := func(school, value string) error {
		f, err := s.Put(school, value)
		if err != nil {
			return err
		}
		steps = append(steps, step{f, func(session.Result) { fmt.Fprintln(out, "Reply: OK") }})
		return nil
	}

	if err := display("Holberton"); err != nil {
		return err
	}
	if err := setNewSchool("HolbertonSanFrancisco", "100"); err != nil {
		return err
	}
	if err := display("HolbertonSanFrancisco"); err != nil {
		return err
	}

	timeout := util.GetClientConfig().Timeout()
	for _, st := range steps {
		waitCtx, cancel := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			waitCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		res, err := st.future.Wait(waitCtx)
		cancel()
		if err != nil {
			return err
		}
		st.print(res)
	}
	return nil
}
