package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/solatis/surveylogic/internal/core/api"
	"github.com/solatis/surveylogic/internal/core/server"
	"github.com/solatis/surveylogic/internal/logic"
	"github.com/solatis/surveylogic/internal/survey"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const Version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC logic host bridge",
	Long: `Serve hosts a single logic engine over gRPC. Editors push survey
documents with Update and drive the mode machine with SetMode.
Scan recording is enabled when a database URL is configured.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "127.0.0.1", "gRPC server host")
	serveCmd.Flags().Int("port", 50061, "gRPC server port")
	serveCmd.Flags().String("survey", "", "survey document to load at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := newRegistry(cfg)

	doc := survey.NewDocument()
	if path, _ := cmd.Flags().GetString("survey"); path != "" {
		doc, err = survey.NewDecoder(registry).ParseFile(path)
		if err != nil {
			return fmt.Errorf("failed to load survey: %w", err)
		}
	}

	opts := cfg.EngineOptions()
	opts.Logger = logger
	engine := logic.NewEngine(doc, registry, opts)

	var recorder api.ScanRecorder
	if cfg.DatabaseURL != "" {
		database, store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		recorder = store
	} else {
		logger.Info("no database configured, scan recording disabled")
	}

	service, err := api.NewLogicService(engine, recorder, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(&cfg.Server, service, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting surveylogic",
		zap.String("version", Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		logger.Info("shutting down gracefully")
		return grpcServer.Shutdown(ctx)
	}
}
