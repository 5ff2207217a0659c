package cmd

import (
	"context"
	"time"

	"github.com/bnema/agent-network/internal/api"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const defaultSweepInterval = time.Hour

func newServeCmd(app *app) *cobra.Command {
	var (
		listen        string
		dev           bool
		sweepInterval time.Duration
		opts          = api.DefaultOptions()
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the federation server for paired machines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			logger := zerolog.New(cmd.OutOrStdout()).Level(app.logger.GetLevel()).With().Timestamp().Logger()
			if dev {
				logger = newLogger(cmd.ErrOrStderr(), zerolog.DebugLevel.String())
			}

			if listen == "" {
				listen = app.settings.Listen
			}
			server := api.NewServer(listen, api.NewRouter(app.federation, logger, opts), logger)

			group, ctx := errgroup.WithContext(cmd.Context())
			group.Go(func() error {
				return server.ListenAndServe(ctx)
			})
			if sweepInterval > 0 {
				group.Go(func() error {
					sweepEvery(ctx, app, sweepInterval, logger)
					return nil
				})
			}

			return group.Wait()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default from config, 0.0.0.0:7777)")
	cmd.Flags().BoolVar(&dev, "dev", false, "human-readable debug logging on stderr")
	cmd.Flags().DurationVar(&sweepInterval, "sweep-interval", defaultSweepInterval, "how often to purge old delivered messages (0 disables)")
	cmd.Flags().Float64Var(&opts.RequestsPerSecond, "rate", opts.RequestsPerSecond, "requests per second allowed per client")
	cmd.Flags().IntVar(&opts.Burst, "burst", opts.Burst, "request burst allowed per client")

	return cmd
}

func sweepEvery(ctx context.Context, app *app, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := app.mailbox.Sweep(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("retention sweep failed")
				continue
			}
			logger.Debug().Int64("removed", result.Removed).Msg("retention sweep")
		}
	}
}
