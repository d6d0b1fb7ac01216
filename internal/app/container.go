// Package app wires the process-wide dependencies of fapctl.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"fap-client/config"
	"fap-client/internal/adapter/gateway"
	"fap-client/internal/infrastructure/kvstore"
	"fap-client/internal/infrastructure/token"
	"fap-client/internal/usecase"
	"fap-client/middleware"
	"fap-client/utils/validator"
)

// Container holds all dependencies for the process. It is built once and
// owns the single session context.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Drivers
	Store kvstore.Store

	// Gateways
	Identity      *gateway.IdentityGateway
	Relationships *gateway.RelationshipGateway

	// Usecases
	Session *usecase.SessionManager
	Friends *usecase.RelationshipStore
	Prober  *usecase.AvailabilityProber
	Guard   *usecase.RouteGuard

	limiter   *middleware.RateLimiter
	stopWatch func()
	watchDone chan struct{}
}

// Options adjusts container construction.
type Options struct {
	// Transport replaces the base HTTP transport of both gateways.
	Transport http.RoundTripper
}

// NewContainer opens the session store, wires every component and restores
// the session from storage.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	store, err := kvstore.Open(ctx, kvstore.Options{
		Backend:   cfg.Store.Backend,
		Path:      cfg.Store.Path,
		RedisURL:  cfg.Store.RedisURL,
		KeyPrefix: cfg.Store.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	c.Store = store

	v := validator.New()
	codec := token.NewCodec()

	c.Identity = gateway.NewIdentityGateway(gateway.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		Transport: opts.Transport,
		Logger:    logger,
	})

	c.Session = usecase.NewSessionManager(c.Identity, codec, store, v, usecase.SessionOptions{
		LandingRoute: cfg.Session.LandingRoute,
	}, logger)

	c.Relationships = gateway.NewRelationshipGateway(gateway.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		Authorizer: c.Session,
		Transport:  opts.Transport,
		Logger:     logger,
	})

	c.Friends = usecase.NewRelationshipStore(c.Relationships, c.Session, logger)
	c.Prober = usecase.NewAvailabilityProber(c.Identity, v, usecase.ProberOptions{
		Debounce:  cfg.Probe.Debounce,
		CacheSize: cfg.Probe.CacheSize,
		CacheTTL:  cfg.Probe.CacheTTL,
	}, logger)
	c.Guard = usecase.NewRouteGuard(c.Session, cfg.Session.AuthRoute, cfg.Session.LandingRoute, logger)

	c.Session.Initialize(ctx)
	c.watchSession()

	logger.DebugContext(ctx, "container initialized",
		"store_backend", cfg.Store.Backend,
		"api_base_url", cfg.API.BaseURL,
		"authenticated", c.Session.State().IsAuthenticated)

	return c, nil
}

// Logout ends the session and drops its projection before returning.
func (c *Container) Logout(ctx context.Context) {
	c.Session.Logout(ctx)
	c.Friends.Reset()
}

// sessionEndpoint routes API logouts through the container.
type sessionEndpoint struct {
	*usecase.SessionManager
	container *Container
}

func (s sessionEndpoint) Logout(ctx context.Context) {
	s.container.Logout(ctx)
}

// watchSession drops a projection left over from a previous identity when
// the session changes outside Logout, e.g. on expiry or a 401.
func (c *Container) watchSession() {
	updates, cancel := c.Session.Subscribe()
	c.stopWatch = cancel
	c.watchDone = make(chan struct{})

	go func() {
		defer close(c.watchDone)
		var last int64
		for snap := range updates {
			id, _ := snap.Value.UserID()
			if id != last {
				c.Friends.DiscardForeign()
				last = id
			}
		}
	}()
}

// Close releases all resources.
func (c *Container) Close() error {
	if c.stopWatch != nil {
		c.stopWatch()
		<-c.watchDone
	}
	if c.limiter != nil {
		c.limiter.Stop()
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			return fmt.Errorf("close session store: %w", err)
		}
	}
	return nil
}
