package cli

import (
	"os"

	"quiznufi-service/internal/config"
	"quiznufi-service/internal/logger"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quiznufi",
		Short:         "Timed multiple-choice quiz service with a shared leaderboard",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&port, "port", os.Getenv("PORT"), "port to listen on (overrides server.port)")
	cmd.PersistentFlags().StringVar(&configPath, "config", config.PathFromEnv(""), "path to YAML config (optional)")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewImportCmd(&configPath))
	cmd.AddCommand(NewSeedLeaderboardCmd(&configPath))
	cmd.AddCommand(NewDeleteUsersCmd(&configPath))
	cmd.AddCommand(NewPlayCmd(&configPath))
	return cmd
}

// loadConfig reads the configuration and applies its log level.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return cfg, err
	}
	return cfg, nil
}
