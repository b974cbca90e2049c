package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fuelsoyo/internal/app"
	"fuelsoyo/internal/config"
	"fuelsoyo/internal/password"
	"fuelsoyo/internal/service"
	"fuelsoyo/libs/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fuelsoyo",
		Short: "FuelSoyo - fuel availability tracker for Soyo",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return err
			}
			logger, err = logging.NewLogger(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to initialize application", zap.Error(err))
				return err
			}
			defer application.Close()

			if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("application stopped with error", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the admin reports for a date range as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := service.ParseReportRange(start, end)
			if err != nil {
				return err
			}

			storage, err := app.OpenStorage(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer storage.Close()

			services := app.NewServices(cfg, storage.Backend, password.NewBcryptHasher(0), nil, nil, logger)
			reports, err := services.Reports.Generate(cmd.Context(), from, to)
			if err != nil {
				return fmt.Errorf("generate reports: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		},
	}

	today := time.Now().UTC()
	cmd.Flags().StringVar(&start, "start", today.AddDate(0, 0, -30).Format(service.ReportDateLayout), "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", today.Format(service.ReportDateLayout), "last day (YYYY-MM-DD)")
	return cmd
}
