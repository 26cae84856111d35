package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/lodge/internal/cli"
	httpAdapter "github.com/aretw0/lodge/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP server",
	Long:  `Serves the chat API, the websocket endpoint, health, metrics and the flow graph.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx, stop := cli.ShutdownContext(context.Background())
		defer stop()

		app, err := loadApp(sigCtx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		addr := app.Config.Port
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			addr = ":" + port
		}

		srv := &http.Server{
			Addr: addr,
			Handler: httpAdapter.NewHandler(app.Service,
				httpAdapter.WithLogger(app.Logger),
				httpAdapter.WithAllowedOrigins(app.Config.CORSOrigins...),
				httpAdapter.WithMetricsHandler(app.Recorder.Handler()),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("lodge server listening", "address", addr, "store", app.Config.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-sigCtx.Done():
			app.Logger.Info("shutting down", "signal", fmt.Sprint(cli.ShutdownSignal(sigCtx)))

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			app.Logger.Info("lodge server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides config)")
}
