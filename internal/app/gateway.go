package app

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/api"
	"github.com/VinMeld/autopost/internal/logging"
	"github.com/VinMeld/autopost/internal/nav"
	"github.com/VinMeld/autopost/internal/session"
	"github.com/VinMeld/autopost/internal/transport"
)

// Sender performs API requests. *api.Client and *Gateway implement it.
type Sender interface {
	Send(ctx context.Context, method, path string, body api.Body) (*api.Response, error)
}

// Gateway is the only place that reacts to an expired session: on a 401 it
// clears the store and sends the user to the login view, then hands the
// original error back to the caller.
type Gateway struct {
	sender    Sender
	store     session.Store
	navigator nav.Navigator
	logger    *zap.Logger

	mu       sync.Mutex
	expiries int
}

// NewGateway wraps sender.
func NewGateway(sender Sender, store session.Store, navigator nav.Navigator, logger *zap.Logger) *Gateway {
	return &Gateway{
		sender:    sender,
		store:     store,
		navigator: navigator,
		logger:    logging.OrNop(logger),
	}
}

func (g *Gateway) Send(ctx context.Context, method, path string, body api.Body) (*api.Response, error) {
	resp, err := g.sender.Send(ctx, method, path, body)
	if errors.Is(err, api.ErrAuthorizationExpired) {
		g.expire(ctx)
	}
	return resp, err
}

// expire runs one clear+navigate per observed 401. Clearing an empty store
// and navigating to the route already pending are both no-ops.
func (g *Gateway) expire(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expiries++
	// the request context may already be done; the session must still go
	if err := g.store.Clear(context.WithoutCancel(ctx)); err != nil {
		g.logger.Warn("failed to clear expired session", zap.Error(err))
	}
	g.logger.Info("session expired, redirecting to login")
	g.navigator.Navigate(transport.RouteLogin)
}

// Expiries returns how many authorization failures have been handled.
func (g *Gateway) Expiries() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.expiries
}
