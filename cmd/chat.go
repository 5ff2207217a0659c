package cmd

import (
	"fmt"

	chatrender "github.com/bnema/agent-network/internal/adapters/render/chat"
	"github.com/bnema/agent-network/internal/application"
	"github.com/bnema/agent-network/internal/domain"
	"github.com/spf13/cobra"
)

func newChatCmd(app *app) *cobra.Command {
	var (
		since  string
		agent  string
		list   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "chat [network]",
		Short: "Show the message history of a network",
		Long:  "chat renders the conversation of one network. Without a network, or with --list, it lists the networks that have sessions.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			opts := chatrender.RenderOptions{}

			if list || len(args) == 0 {
				networks, err := app.history.Networks(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), networks)
				}
				rendered, err := app.renderNetworks(networks, opts)
				if err != nil {
					return fmt.Errorf("render networks: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return err
			}

			window, err := application.ParseSince(since)
			if err != nil {
				return err
			}

			log, err := app.history.Chat(cmd.Context(), application.ChatQuery{
				Network: domain.NetworkID(args[0]),
				Since:   window,
				Agent:   domain.AgentID(agent),
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), log)
			}

			rendered, err := app.renderLog(log, opts)
			if err != nil {
				return fmt.Errorf("render chat: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "only show messages newer than this (e.g. 30m, 2h, 1d)")
	cmd.Flags().StringVar(&agent, "agent", "", "only show messages sent or received by this agent")
	cmd.Flags().BoolVar(&list, "list", false, "list networks instead of showing a conversation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON instead of rendered text")

	return cmd
}
