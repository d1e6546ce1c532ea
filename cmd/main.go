package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loggers/logbook/internal/adapters/http/api"
	"github.com/loggers/logbook/internal/adapters/http/swagger"
	"github.com/loggers/logbook/internal/adapters/ledger"
	"github.com/loggers/logbook/internal/adapters/sink"
	app "github.com/loggers/logbook/internal/app"
	"github.com/loggers/logbook/internal/config"
	"github.com/loggers/logbook/internal/domain/flighttime"
	"github.com/loggers/logbook/pkg/logger"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout            = 30 * time.Second
	writeTimeout           = 60 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "logbook",
		Short:        "Turn Tacview debriefings into pilot mission stats",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if configPath != "" {
				return os.Setenv(config.EnvPrefix+"CONFIG", configPath)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides "+config.EnvPrefix+"CONFIG)")

	root.AddCommand(newServeCmd(), newProcessCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Root context with cancel on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd.OutOrStdout())
		},
	}
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process FILE...",
		Short: "Process debriefing files and print their stats as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return process(cmd.Context(), cmd.ErrOrStderr(), cmd.OutOrStdout(), args)
		},
	}
}

// setup loads configuration and initializes the global logger on logOut.
func setup(ctx context.Context, logOut io.Writer) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitWithWriter(logOut, cfg.LogFormat); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, loggerInstance, nil
}

// buildService wires the configured ledger and sinks into a started service.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithLedgerSize(cfg.LedgerSize),
		app.WithTableSource(config.NewTableSource(cfg.TablesPath, cfg.Tables)),
		app.WithEstimator(flighttime.NewEstimator(
			flighttime.WithMovementThreshold(cfg.MovementThresholdM),
			flighttime.WithStationaryLimit(cfg.StationaryLimitS),
		)),
		app.WithDefaultDuration(cfg.DefaultDurationS),
		app.WithHistoryLimit(cfg.HistoryLimit),
	}

	if cfg.LedgerBackend == config.LedgerRedis {
		l, err := ledger.Dial(ctx, cfg.RedisAddr,
			ledger.WithKey(cfg.RedisKey),
			ledger.WithMaxSize(cfg.LedgerSize),
		)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "using redis ledger", logger.String("addr", cfg.RedisAddr), logger.String("key", cfg.RedisKey))
		opts = append(opts, app.WithLedger(l))
	}

	if cfg.PostgresURL != "" {
		pg, err := sink.Connect(ctx, cfg.PostgresURL, sink.WithLogger(log.Named("sink")))
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		opts = append(opts, app.WithConsumer(pg))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, nil
}

// newMux registers the API docs and business routes.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc,
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
	)
	apiServer.Register(ctx, mux)
	return mux
}

func serve(ctx context.Context, logOut io.Writer) error {
	cfg, loggerInstance, err := setup(ctx, logOut)
	if err != nil {
		return err
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			loggerInstance.Error(ctx, "log sync failed", logger.Error(err))
		}
	}()

	svc, err := buildService(ctx, cfg, loggerInstance)
	if err != nil {
		return err
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
	}
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// process runs each file through the pipeline in order and writes one JSON
// result per file to out. Duplicates are reported, not fatal.
func process(ctx context.Context, logOut, out io.Writer, paths []string) error {
	cfg, loggerInstance, err := setup(ctx, logOut)
	if err != nil {
		return err
	}

	svc, err := buildService(ctx, cfg, loggerInstance)
	if err != nil {
		return err
	}
	defer svc.Stop()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	var failed int
	for _, path := range paths {
		res, err := svc.ProcessFile(ctx, path)
		switch {
		case err == nil, errors.Is(err, app.ErrDuplicateMission):
			if encErr := enc.Encode(res); encErr != nil {
				return encErr
			}
		default:
			failed++
			loggerInstance.Error(ctx, "mission failed", logger.String("file", path), logger.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

// startServiceMetricsUpdater refreshes ledger and profile gauges until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats pushes the current gauges as a side effect.
			_ = svc.GetStats()
		}
	}
}
