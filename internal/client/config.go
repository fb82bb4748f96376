package client

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/VinMeld/autopost/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := ConfigPath()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(cmd.OutOrStdout(), cfg)
	},
}

const masked = "********"

// showConfig prints c as JSON with secrets masked.
func showConfig(out io.Writer, c *config.Config) error {
	shown := *c
	if shown.Session.RedisPassword != "" {
		shown.Session.RedisPassword = masked
	}
	if shown.MockAPI.JWTSecret != "" {
		shown.MockAPI.JWTSecret = masked
	}
	if shown.MockAPI.SeedPassword != "" {
		shown.MockAPI.SeedPassword = masked
	}

	data, err := json.MarshalIndent(shown, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
