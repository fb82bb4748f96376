package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/VinMeld/autopost/internal/api"
	"github.com/VinMeld/autopost/internal/transport"
)

func init() {
	rootCmd.AddCommand(pingCmd)
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connection to the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPing(cmd.Context(), cmd.OutOrStdout())
	},
}

func runPing(ctx context.Context, out io.Writer) error {
	url := cfg.API.BaseURL
	if url == "" {
		return fmt.Errorf("server URL not set in config")
	}

	_, _ = fmt.Fprintf(out, "Pinging %s...\n", url)
	client := api.NewClient(url, nil, logger, api.WithTimeout(cfg.API.Timeout))
	start := time.Now()
	if _, err := client.Send(ctx, http.MethodGet, transport.PingPath, nil); err != nil {
		return fmt.Errorf("failed to ping server: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Pong! Server is reachable (Latency: %v)\n", time.Since(start).Round(time.Millisecond))
	return nil
}
