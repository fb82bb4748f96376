package client

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/app"
	"github.com/VinMeld/autopost/internal/config"
	"github.com/VinMeld/autopost/internal/logging"
	"github.com/VinMeld/autopost/internal/session"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "autopost",
	Short:        "Submit vehicle listings from the command line",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/autopost/config.yaml)")
}

func initConfig() {
	path, err := ConfigPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error getting config path:", err)
		os.Exit(1)
	}

	cfg, err = config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		os.Exit(1)
	}
}

// ConfigPath returns the --config value or the default location.
func ConfigPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPath()
}

func GetRootCmd() *cobra.Command {
	return rootCmd
}

func GetConfig() *config.Config {
	return cfg
}

// newApp opens the configured session store and builds the client around it.
func newApp(ctx context.Context) (*app.App, error) {
	store, err := session.FromConfig(ctx, cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return app.New(cfg, store, logger), nil
}
