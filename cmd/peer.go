package cmd

import (
	"github.com/bnema/agent-network/internal/application"
	"github.com/bnema/agent-network/internal/domain"
	"github.com/spf13/cobra"
)

func newPeerCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Manage paired machines",
	}

	cmd.AddCommand(
		newPeerPairCmd(app),
		newPeerApproveCmd(app),
		newPeerListCmd(app),
		newPeerRemoveCmd(app),
		newPeerPingCmd(app),
	)

	return cmd
}

func newPeerPairCmd(app *app) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "pair <url> <name>",
		Short: "Ask a remote machine to pair with this one",
		Long:  "pair stores the remote as pending and sends it a pairing request. The remote operator must run `anet peer approve` before messages flow.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.peers.Pair(cmd.Context(), application.PairCommand{
				URL:    args[0],
				Name:   domain.PeerName(args[1]),
				Secret: secret,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "shared secret (generated when empty)")

	return cmd
}

func newPeerApproveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <name>",
		Short: "Approve a pending pairing request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.peers.Approve(cmd.Context(), domain.PeerName(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newPeerListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List paired and pending machines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.peers.ListPeers(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newPeerRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Forget a paired machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.peers.RemovePeer(cmd.Context(), domain.PeerName(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newPeerPingCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping <name>",
		Short: "Check that a paired machine is reachable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			result, err := app.peers.Ping(cmd.Context(), domain.PeerName(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}
