package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/predicates/internal/core/api"
	"github.com/solatis/predicates/internal/core/db"
	"github.com/solatis/predicates/internal/core/server"
	"github.com/solatis/predicates/internal/rules"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC rule evaluation service",
	Long: `Start the gRPC rule evaluation service.

Rules are loaded from the rule store at startup. SIGHUP reloads them;
SIGINT and SIGTERM shut the server down gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := slog.Default()

	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Server.Port = port
	}

	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return fmt.Errorf("migration %s not applied - run 'predicates migrate' first", s.ID)
		}
	}

	engine := rules.NewEngine(cfg.Engine.OnError, logger)

	service, err := api.NewRuleService(engine, store, &cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	if _, err := service.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(&cfg.Server, service, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting predicates service",
		slog.String("version", Version),
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.String("on_error", cfg.Engine.OnError.String()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case err := <-errChan:
			return err
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				if _, err := service.Reload(ctx); err != nil {
					logger.Error("rule reload failed, keeping previous rules", slog.Any("error", err))
				}
				continue
			}
			logger.Info("shutting down gracefully")
			return grpcServer.Shutdown(ctx)
		}
	}
}
