package cmd

import (
	"strings"

	"github.com/bnema/agent-network/internal/application"
	"github.com/bnema/agent-network/internal/domain"
	"github.com/spf13/cobra"
)

func newJoinCmd(app *app) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "join <network> <agent>",
		Short: "Join a network under an agent name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.mailbox.Join(cmd.Context(), application.JoinCommand{
				Network: domain.NetworkID(args[0]),
				Agent:   domain.AgentID(args[1]),
				Role:    role,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "free-form description of what this agent does")

	return cmd
}

func newLeaveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "leave",
		Short: "Leave the current network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.mailbox.Leave(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newSendCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <agent> <message...>",
		Short: "Send a direct message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.mailbox.Send(cmd.Context(), domain.AgentID(args[0]), strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newBroadcastCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast <message...>",
		Short: "Send a message to every agent in the network",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.mailbox.Broadcast(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newInboxCmd(app *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Receive pending messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.mailbox.Fetch(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.InboxBatch, "maximum number of messages to receive")

	return cmd
}

func newAgentsCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List agents in the current network, including paired machines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.mailbox.ListAgents(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newSweepCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete delivered messages older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.mailbox.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}
