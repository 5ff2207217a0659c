package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func Execute() error {
	return execute(newRootCmd())
}

// execute runs root and reports a failure as a JSON error document on stdout.
func execute(root *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err != nil {
		_ = writeError(root.OutOrStdout(), err)
	}
	return err
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "anet",
		Short:         "Agent network (anet): a mailbox for coding agents",
		Long:          "anet lets coding agent sessions on one machine join named networks, exchange direct and broadcast messages, and relay them to paired machines over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentFlags().StringVar(&app.session, "session", "", "session id to act as (overrides AGENT_NETWORK_SESSION_ID)")
	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newTokenCmd(),
		newJoinCmd(app),
		newLeaveCmd(app),
		newSendCmd(app),
		newBroadcastCmd(app),
		newInboxCmd(app),
		newWaitCmd(app),
		newAgentsCmd(app),
		newPeerCmd(app),
		newServeCmd(app),
		newHookCmd(app),
		newChatCmd(app),
		newSweepCmd(app),
	)

	return rootCmd
}
