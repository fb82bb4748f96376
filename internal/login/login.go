// Package login exchanges user credentials for a session.
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/api"
	"github.com/VinMeld/autopost/internal/logging"
	"github.com/VinMeld/autopost/internal/models"
	"github.com/VinMeld/autopost/internal/nav"
	"github.com/VinMeld/autopost/internal/session"
	"github.com/VinMeld/autopost/internal/transport"
)

// MsgInvalidCredentials is shown for every failed login.
const MsgInvalidCredentials = "Invalid email or password."

// ErrInvalidCredentials is the only error a failed login returns. The
// underlying cause is logged.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Sender performs API requests.
type Sender interface {
	Send(ctx context.Context, method, path string, body api.Body) (*api.Response, error)
}

// Controller drives the login view.
type Controller struct {
	sender    Sender
	store     session.Store
	navigator nav.Navigator
	logger    *zap.Logger
}

// NewController creates a login controller. sender should not react to
// authorization failures itself; a 401 here just means bad credentials.
func NewController(sender Sender, store session.Store, navigator nav.Navigator, logger *zap.Logger) *Controller {
	return &Controller{
		sender:    sender,
		store:     store,
		navigator: navigator,
		logger:    logging.OrNop(logger),
	}
}

// Mount runs when the login view is shown. Any existing session is dropped.
func (c *Controller) Mount(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear session", zap.Error(err))
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Submit logs in. On success the tokens are stored and the user is sent to
// the submission view; every failure is ErrInvalidCredentials.
func (c *Controller) Submit(ctx context.Context, email, password string) error {
	if err := c.login(ctx, email, password); err != nil {
		c.logger.Info("login failed", zap.String("email", email), zap.Error(err))
		return ErrInvalidCredentials
	}
	c.logger.Info("logged in", zap.String("email", email))
	c.navigator.Navigate(transport.RouteVehicleSubmission)
	return nil
}

func (c *Controller) login(ctx context.Context, email, password string) error {
	resp, err := c.sender.Send(ctx, http.MethodPost, transport.LoginPath, api.JSONBody{
		Value: models.LoginRequest{Email: email, Password: password},
	})
	if err != nil {
		return err
	}
	if resp.Status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.Status)
	}

	var tokens models.LoginResponse
	if err := resp.DecodeJSON(&tokens); err != nil {
		return err
	}
	if tokens.Token == "" {
		return errors.New("response carried no token")
	}
	if err := c.store.Set(ctx, tokens.Token, tokens.RefreshToken); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
