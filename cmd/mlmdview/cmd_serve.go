package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"mlmdview/interfaces/http/rest"
	"mlmdview/pkg/ratelimit"

	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lineage graphs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			container, cleanup, err := flags.container(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if addr == "" {
				addr = container.Config.ServerAddress
			}
			server := rest.NewServer(addr, container.Router.Setup(), container.Logger)
			if limiter, ok := container.Limiter.(*ratelimit.ClientLimiter); ok {
				server.Go(func(ctx context.Context) error {
					return limiter.Run(ctx, 5*time.Minute)
				})
			}
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (SERVER_ADDRESS)")
	return cmd
}
