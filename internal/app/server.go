package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"fap-client/internal/adapter/handler"
	"fap-client/internal/infrastructure/kvstore"
	"fap-client/middleware"
)

// RouterOptions toggles optional router instrumentation.
type RouterOptions struct {
	EnableOTel  bool
	ServiceName string
}

// CreateRouter builds the local echo API over the container's components.
func (c *Container) CreateRouter(opts RouterOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	if opts.EnableOTel {
		e.Use(otelecho.Middleware(opts.ServiceName))
		e.Use(middleware.OTelStatusMiddleware())
	}
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(ec echo.Context, v echomw.RequestLoggerValues) error {
			ctx := ec.Request().Context()
			if v.Error == nil {
				c.Logger.InfoContext(ctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				c.Logger.ErrorContext(ctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())

	if c.limiter == nil {
		c.limiter = middleware.NewRateLimiter(rate.Limit(c.Config.Serve.RateLimit), c.Config.Serve.Burst)
	}

	var pinger handler.Pinger
	if p, ok := c.Store.(kvstore.Pinger); ok {
		pinger = p
	}
	healthHandler := handler.NewHealthHandler(pinger)
	sessionHandler := handler.NewSessionHandler(sessionEndpoint{SessionManager: c.Session, container: c})
	availabilityHandler := handler.NewAvailabilityHandler(c.Prober)
	friendsHandler := handler.NewFriendsHandler(c.Friends, c.Logger)
	pagesHandler := handler.NewPagesHandler(c.Session)

	e.GET("/health", healthHandler.Handle)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api", c.limiter.Middleware())
	api.GET("/session", sessionHandler.Get)
	api.POST("/session/login", sessionHandler.Login)
	api.POST("/session/logout", sessionHandler.Logout)
	api.POST("/register", sessionHandler.Register)
	api.GET("/availability/username", availabilityHandler.Username)
	api.GET("/availability/email", availabilityHandler.Email)

	friends := api.Group("/friends", middleware.RequireSessionAPI(c.Session))
	friends.GET("", friendsHandler.List)
	friends.POST("/reload", friendsHandler.Reload)
	friends.POST("/requests/:targetId", friendsHandler.Create)
	friends.POST("/requests/:id/accept", friendsHandler.Accept)
	friends.POST("/requests/:id/decline", friendsHandler.Decline)
	friends.POST("/requests/:id/cancel", friendsHandler.Cancel)
	friends.DELETE("/:id", friendsHandler.Remove)

	e.GET(c.Config.Session.AuthRoute, pagesHandler.Auth, middleware.GuestOnlyPage(c.Guard))
	e.GET(c.Config.Session.LandingRoute, pagesHandler.Dashboard, middleware.RequireSessionPage(c.Guard))
	e.GET("/friends", pagesHandler.Friends, middleware.RequireSessionPage(c.Guard))

	return e
}

// expiryCheckInterval is how often a serving process re-checks the held
// token so an idle session still ends on time.
const expiryCheckInterval = 30 * time.Second

// Serve runs e on address until ctx is done, then shuts it down gracefully.
func (c *Container) Serve(ctx context.Context, e *echo.Echo, address string) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.Logger.InfoContext(gCtx, "starting local api", "address", address)
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		c.Logger.Info("shutting down local api")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(expiryCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				c.Session.CheckExpiration(gCtx)
			}
		}
	})

	return g.Wait()
}
