package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/rewind/internal/presentation/tui"
	rewindhttp "github.com/aretw0/rewind/pkg/adapters/http"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the simulator as a JSON API over HTTP. Trajectories live in the selected store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		withMetrics, _ := cmd.Flags().GetBool("metrics")

		var hooks []domain.LifecycleHooks
		var metrics *observability.Metrics
		if withMetrics {
			metrics = observability.NewMetrics()
			hooks = append(hooks, metrics.Hooks())
		}

		engine, logger, err := setup(cmd, false, hooks...)
		if err != nil {
			return err
		}
		sessions, closeStore, err := openSessions(cmd, engine, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		var opts []rewindhttp.Option
		opts = append(opts, rewindhttp.WithLogger(logger))
		if metrics != nil {
			opts = append(opts, rewindhttp.WithMetrics(metrics.Handler()))
		}

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           rewindhttp.NewHandler(engine, sessions, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if isTerminal(cmd.ErrOrStderr()) {
			tui.PrintBanner(cmd.ErrOrStderr())
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.ErrOrStderr(), "Starting rewind server on %s (rules: %s)\n", srv.Addr, engine.Name)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
			fmt.Fprintln(cmd.ErrOrStderr(), "\nStart shutdown...")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Rewind server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	addStoreFlags(serveCmd)
}
