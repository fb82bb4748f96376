package client

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/VinMeld/autopost/internal/auth"
	"github.com/VinMeld/autopost/internal/session"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show whether a session is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd.Context(), cmd.OutOrStdout())
	},
}

func runSession(ctx context.Context, out io.Writer) error {
	store, err := session.FromConfig(ctx, cfg.Session)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	creds, err := store.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Backend:       %s\n", cfg.Session.Backend)
	switch {
	case !creds.Authenticated():
		_, _ = fmt.Fprintln(out, "Access token:  none")
	case auth.TokenValid(creds.AccessToken, time.Now()):
		_, _ = fmt.Fprintln(out, "Access token:  active")
	default:
		_, _ = fmt.Fprintln(out, "Access token:  expired")
	}
	if creds.RefreshToken != "" {
		_, _ = fmt.Fprintln(out, "Refresh token: present")
	} else {
		_, _ = fmt.Fprintln(out, "Refresh token: none")
	}
	return nil
}
