// Package app wires the session, API client, guard and controllers into the
// route table the client runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/api"
	"github.com/VinMeld/autopost/internal/auth"
	"github.com/VinMeld/autopost/internal/config"
	"github.com/VinMeld/autopost/internal/form"
	"github.com/VinMeld/autopost/internal/logging"
	"github.com/VinMeld/autopost/internal/login"
	"github.com/VinMeld/autopost/internal/nav"
	"github.com/VinMeld/autopost/internal/session"
	"github.com/VinMeld/autopost/internal/staging"
	"github.com/VinMeld/autopost/internal/transport"
)

// ErrNoCredentials is returned by a CredentialsFunc that has nothing to offer.
var ErrNoCredentials = errors.New("not logged in: run `autopost login` first")

// CredentialsFunc supplies the email and password for the login view.
type CredentialsFunc func(ctx context.Context) (email, password string, err error)

// App is one running client.
type App struct {
	Config  *config.Config
	Store   session.Store
	Client  *api.Client
	Gateway *Gateway
	Router  *nav.Router
	Guard   *auth.Guard
	Login   *login.Controller

	logger *zap.Logger
}

// New builds the client around store. Only the landing route is registered;
// callers add the login and submission views they need.
func New(cfg *config.Config, store session.Store, logger *zap.Logger, opts ...api.Option) *App {
	logger = logging.OrNop(logger)
	opts = append([]api.Option{api.WithTimeout(cfg.API.Timeout)}, opts...)

	client := api.NewClient(cfg.API.BaseURL, store, logger, opts...)
	router := nav.NewRouter(logger)
	a := &App{
		Config:  cfg,
		Store:   store,
		Client:  client,
		Gateway: NewGateway(client, store, router, logger),
		Router:  router,
		Guard:   auth.NewGuard(store, router, logger),
		// login talks to the raw client: a 401 there is bad credentials
		Login:  login.NewController(client, store, router, logger),
		logger: logger,
	}
	router.Handle(transport.RouteLanding, Landing(store, router, logger))
	return a
}

// HandleLogin registers the login view.
func (a *App) HandleLogin(creds CredentialsFunc, out io.Writer) {
	a.Router.Handle(transport.RouteLogin, LoginView(a.Login, creds, out))
}

// HandleProtected registers view at route behind the auth guard.
func (a *App) HandleProtected(route string, view nav.View) *auth.Protected {
	p := a.Guard.Protect(view)
	a.Router.Handle(route, p)
	return p
}

// Run renders start and every view it navigates to.
func (a *App) Run(ctx context.Context, start string) error {
	return a.Router.Run(ctx, start)
}

// NewForm creates a submission form that sends through the gateway, stages
// photos with previewer and uses the configured limits.
func (a *App) NewForm(previewer staging.Previewer) (*form.Controller, error) {
	images, err := staging.NewManager(a.Config.Form.MaxImages, previewer, a.logger)
	if err != nil {
		return nil, err
	}
	return form.NewController(a.Gateway, images, a.Config.Form.Cities, a.logger), nil
}

// Landing clears any session and redirects to the login view.
func Landing(store session.Store, navigator nav.Navigator, logger *zap.Logger) nav.View {
	logger = logging.OrNop(logger)
	return nav.ViewFunc(func(ctx context.Context) error {
		if err := store.Clear(ctx); err != nil {
			logger.Warn("failed to clear session", zap.Error(err))
		}
		navigator.Navigate(transport.RouteLogin)
		return nil
	})
}

// LoginView mounts the login controller and submits the credentials from
// creds. A successful login navigates on to the submission view.
func LoginView(c *login.Controller, creds CredentialsFunc, out io.Writer) nav.View {
	return nav.ViewFunc(func(ctx context.Context) error {
		if err := c.Mount(ctx); err != nil {
			return err
		}
		email, password, err := creds(ctx)
		if err != nil {
			return err
		}
		if err := c.Submit(ctx, email, password); err != nil {
			if errors.Is(err, login.ErrInvalidCredentials) {
				_, _ = fmt.Fprintln(out, login.MsgInvalidCredentials)
			}
			return err
		}
		_, _ = fmt.Fprintf(out, "Logged in as %s\n", email)
		return nil
	})
}
