package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Sirimanoj/finguru/internal/config"
	"github.com/Sirimanoj/finguru/internal/notify"
	"github.com/Sirimanoj/finguru/internal/persistence/postgres"
)

const (
	appName = "finguru"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	var configPath, logLevel string

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Personal finance coaching backend",
		Version: version,
		Long: `FinGuru is the backend for the finance coaching app: monthly budget
planning, daily check-in gamification, reminder notifications, and an
AI mentor chat with persona avatars.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace|debug|info|warn|error), overrides config")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and notification scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, _ := cmd.Flags().GetBool("dev")
			cfg, err := loadConfig(configPath, logLevel)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, dev)
		},
	}
	serveCmd.Flags().Bool("dev", false, "In-memory storage and a canned mentor, no external services")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, logLevel)
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cfg)
		},
	}

	digestCmd := &cobra.Command{
		Use:   "digest",
		Short: "Print today's notification payloads",
		Long:  "Renders the mood check and evening digest the scheduler would push today, as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd.OutOrStdout())
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd, digestCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// loadConfig reads the config file; a non-empty --log-level flag wins
// over both the file and the environment.
func loadConfig(path, logLevel string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func setLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

func runMigrate(ctx context.Context, cfg config.Config) error {
	setLogLevel(cfg.LogLevel)
	db, err := postgres.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	log.Info().Msg("schema applied")
	return nil
}

func runDigest(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(notify.MoodCheck()); err != nil {
		return err
	}
	return enc.Encode(notify.DailyDigest())
}
