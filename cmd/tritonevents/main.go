package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"

	"github.com/amaumene/tritonevents/internal/config"
	"github.com/amaumene/tritonevents/internal/tracing"
)

const serviceName = "tritonevents"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Trello card intake and status sync for the media pipeline",
		Long: `tritonevents turns cards moved to the ready list into download jobs,
and moves cards across the board as the pipeline reports progress.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.AddCommand(
		newServeCmd(),
		newRequeueCmd(),
		newListCmd(),
	)
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server, intake workers and status consumer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func newRequeueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <media-id>",
		Short: "Reset a media to Queued and publish its download job again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			app, cleanup, err := initializeApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			media, err := app.Requeue.Requeue(ctx, args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(media)
		},
	}
}

func serve(ctx context.Context) error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Tracing
	tp, err := tracing.NewProvider(ctx, tracing.ProviderConfig{
		ServiceName: serviceName,
		SampleRatio: cfg.TraceSampleRatio,
		Endpoint:    cfg.TraceEndpoint,
		Insecure:    cfg.TraceInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	// 3. Wire everything
	app, cleanup, err := initializeApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := app.Logger
	logger.Info().Bool("board_disabled", cfg.BoardDisabled).Msg("Starting tritonevents")

	// 4. Supervise the long-running services
	root := suture.New(serviceName, suture.Spec{
		EventHook: eventHook(logger),
		Timeout:   shutdownTimeout(cfg),
	})
	root.Add(app.Server)
	root.Add(app.Status)
	root.Add(app.Scheduler)
	if !cfg.BoardDisabled {
		root.Add(app.Events)
	}
	errChan := root.ServeBackground(ctx)

	// 5. Register the board webhook once the server accepts the verification request
	if app.Registrar != nil {
		go func() {
			if _, err := app.Registrar.Register(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("Giving up on webhook registration")
			}
		}()
	}

	logger.Info().Msg("tritonevents is running")

	err = <-errChan
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor stopped: %w", err)
	}

	logger.Info().Msg("tritonevents stopped")
	return nil
}

func eventHook(logger zerolog.Logger) suture.EventHook {
	log := logger.With().Str("component", "supervisor").Logger()
	return func(e suture.Event) {
		log.Warn().Fields(e.Map()).Msg(e.String())
	}
}
