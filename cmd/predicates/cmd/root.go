package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/solatis/predicates/internal/core/config"
	"github.com/solatis/predicates/internal/core/db"
	"github.com/solatis/predicates/internal/core/logging"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string

	// cfg is loaded once per invocation in PersistentPreRunE.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "predicates",
	Short:         "Predicate rule engine",
	Long:          `Predicates evaluates declarative and expression rules against JSON, YAML and TOML documents.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// CLI flags > environment > config file > defaults
		if cmd.Flags().Changed("db-url") {
			loaded.Store.DBURL = dbURL
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			loaded.Log.Format = logFormat
		}

		handler, err := logging.NewHandler(cmd.ErrOrStderr(), loaded.Log.Level, loaded.Log.Format)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(handler))

		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		fmt.Sprintf("log level (%s)", strings.Join(logging.AllLevels, ", ")))
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		fmt.Sprintf("log format (%s)", strings.Join(logging.AllFormats, ", ")))
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

// openStore opens the configured database and loads the rule store.
func openStore() (*sqlx.DB, *db.Store, error) {
	database, err := db.Open(cfg.Store.DBURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	store, err := db.NewStore(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, store, nil
}
