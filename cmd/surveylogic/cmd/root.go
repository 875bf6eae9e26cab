package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/solatis/surveylogic/internal/core/config"
	"github.com/solatis/surveylogic/internal/core/db"
	"github.com/solatis/surveylogic/internal/survey"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:          "surveylogic",
	Short:        "Survey visibility-logic engine",
	Long:         `surveylogic scans survey documents for visibility rules and tracks the logic editor state.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and applies persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	return cfg, nil
}

// newLogger builds a zap logger for the configured level and format.
// "text" selects the console encoder, anything else JSON.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.LogFormat == "text" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	return zcfg.Build()
}

// newRegistry returns the built-in class hierarchy extended with configured classes.
func newRegistry(cfg *config.Config) *survey.Registry {
	registry := survey.DefaultRegistry()
	for name, parent := range cfg.Logic.Classes {
		registry.Register(name, parent)
	}
	return registry
}

// openStore opens the scan-history database. Migrations must already be applied.
func openStore(cfg *config.Config) (*sqlx.DB, *db.ScanStore, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("--db-url required (or set SL_DATABASE_URL)")
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	statuses, err := db.MigrateStatus(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, st := range statuses {
		if !st.Applied {
			database.Close()
			return nil, nil, fmt.Errorf("migration %s not applied - run 'surveylogic migrate' first", st.ID)
		}
	}
	store, err := db.NewScanStore(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to create scan store: %w", err)
	}
	return database, store, nil
}
