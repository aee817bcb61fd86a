package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/jorge6242/graph-builder-api/docs"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr    string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			container, cleanup, err := root.container(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			logger := container.Logger

			if migrate {
				if err := container.Backend.Migrate(ctx); err != nil {
					return err
				}
			}
			if addr == "" {
				addr = container.Config.ServerAddress
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           container.Router.Setup(),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting server", zap.String("address", addr), zap.String("store", container.Backend.Name))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to SERVER_ADDRESS)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "migrate the store before serving")
	return cmd
}
