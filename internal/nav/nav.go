// Package nav provides client-side views and the router that moves between
// them. Navigation requests are events processed one at a time.
package nav

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/logging"
)

// DefaultMaxHops bounds the number of views rendered by one Run.
const DefaultMaxHops = 8

// ErrTooManyRedirects is returned when views keep redirecting to each other.
var ErrTooManyRedirects = errors.New("too many redirects")

// View is a screen of the client. Render is one mount of the view; returning
// from Render unmounts it.
type View interface {
	Render(ctx context.Context) error
}

// ViewFunc adapts a function to View.
type ViewFunc func(ctx context.Context) error

func (f ViewFunc) Render(ctx context.Context) error { return f(ctx) }

// Navigator requests a move to another route.
type Navigator interface {
	Navigate(route string)
}

// Router maps routes to views and renders them in order.
type Router struct {
	mu      sync.Mutex
	routes  map[string]View
	current string
	pending string
	history []string
	maxHops int
	logger  *zap.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		routes:  make(map[string]View),
		maxHops: DefaultMaxHops,
		logger:  logging.OrNop(logger),
	}
}

// Handle registers v under route.
func (r *Router) Handle(route string, v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[route] = v
}

// Navigate schedules route to be rendered once the current view returns.
// Navigating to the route already being shown is a no-op.
func (r *Router) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if route == r.current && r.pending == "" {
		return
	}
	r.logger.Debug("navigate", zap.String("from", r.current), zap.String("to", route))
	r.pending = route
}

// Current returns the route being (or last) rendered.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns every route rendered so far, in order.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Run renders start and then every route navigated to, until a view returns
// without requesting navigation. Errors from all rendered views are joined.
func (r *Router) Run(ctx context.Context, start string) error {
	r.mu.Lock()
	r.pending = start
	r.mu.Unlock()

	var errs []error
	for hops := 0; ; hops++ {
		r.mu.Lock()
		route := r.pending
		if route == "" {
			r.mu.Unlock()
			return errors.Join(errs...)
		}
		if hops >= r.maxHops {
			r.pending = ""
			r.mu.Unlock()
			return errors.Join(append(errs, ErrTooManyRedirects)...)
		}
		view, ok := r.routes[route]
		r.pending = ""
		r.current = route
		r.history = append(r.history, route)
		r.mu.Unlock()

		if !ok {
			return errors.Join(append(errs, fmt.Errorf("no view for route %q", route))...)
		}
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		if err := view.Render(ctx); err != nil {
			r.logger.Debug("view returned error", zap.String("route", route), zap.Error(err))
			errs = append(errs, err)
		}
	}
}
