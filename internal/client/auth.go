package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/VinMeld/autopost/internal/app"
	"github.com/VinMeld/autopost/internal/config"
	"github.com/VinMeld/autopost/internal/nav"
	"github.com/VinMeld/autopost/internal/transport"
)

// Environment fallbacks for the login flags.
const (
	EnvEmail    = config.EnvPrefix + "_EMAIL"
	EnvPassword = config.EnvPrefix + "_PASSWORD"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	addCredentialFlags(loginCmd)
}

func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "account email (or $"+EnvEmail+")")
	cmd.Flags().String("password", "", "account password (or $"+EnvPassword+"; prompted on a terminal)")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runLogin(ctx, cmd.OutOrStdout(), credentialsFromFlags(cmd))
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogout(cmd.Context(), cmd.OutOrStdout())
	},
}

// runLogin shows the login view; on success the protected view only
// confirms the session.
func runLogin(ctx context.Context, out io.Writer, creds app.CredentialsFunc) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	a.HandleLogin(creds, out)
	a.HandleProtected(transport.RouteVehicleSubmission, nav.ViewFunc(func(context.Context) error {
		_, _ = fmt.Fprintln(out, "Session is active. Run `autopost submit` to post a listing.")
		return nil
	}))
	return a.Run(ctx, transport.RouteLogin)
}

// runLogout goes through the landing route, which clears the session and
// redirects to login; here login just reports the result.
func runLogout(ctx context.Context, out io.Writer) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	a.Router.Handle(transport.RouteLogin, nav.ViewFunc(func(context.Context) error {
		_, _ = fmt.Fprintln(out, "Logged out.")
		return nil
	}))
	return a.Run(ctx, transport.RouteLanding)
}

func credentialsFromFlags(cmd *cobra.Command) app.CredentialsFunc {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	fd := int(os.Stdin.Fd())
	return credentials(email, password, os.Stdin, cmd.ErrOrStderr(), term.IsTerminal(fd), func() ([]byte, error) {
		return term.ReadPassword(fd)
	})
}

// credentials resolves the email and password from flags, then the
// environment, then an interactive prompt when allowed.
func credentials(email, password string, in io.Reader, prompt io.Writer, interactive bool, readPassword func() ([]byte, error)) app.CredentialsFunc {
	return func(ctx context.Context) (string, string, error) {
		if email == "" {
			email = os.Getenv(EnvEmail)
		}
		if password == "" {
			password = os.Getenv(EnvPassword)
		}
		if email != "" && password != "" {
			return email, password, nil
		}
		if !interactive {
			return "", "", app.ErrNoCredentials
		}

		if email == "" {
			_, _ = fmt.Fprint(prompt, "Email: ")
			line, err := bufio.NewReader(in).ReadString('\n')
			if err != nil && line == "" {
				return "", "", fmt.Errorf("failed to read email: %w", err)
			}
			email = strings.TrimSpace(line)
		}
		if password == "" {
			_, _ = fmt.Fprint(prompt, "Password: ")
			pw, err := readPassword()
			_, _ = fmt.Fprintln(prompt)
			if err != nil {
				return "", "", fmt.Errorf("failed to read password: %w", err)
			}
			password = string(pw)
		}
		if email == "" || password == "" {
			return "", "", app.ErrNoCredentials
		}
		return email, password, nil
	}
}
