package router // package router wires handlers and middleware onto Echo instances

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/health-member-services/internal/handler"
	"github.com/iliyamo/health-member-services/internal/middleware"
)

// Identifier texts served on GET / by the member and health history services.
const (
	MembersIdentity       = "This is user management system"
	HealthHistoryIdentity = "This is Health Management System"
)

// New returns an Echo instance with the middleware shared by every service:
// panic recovery, permissive CORS and one log line per request.
func New(level string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(parseLevel(level))

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s %d %s %s: %v", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s %s", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP)
			return nil
		},
	}))
	return e
}

func parseLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}

// Guards holds the Redis-backed middleware placed in front of data routes.
// Zero values disable them.
type Guards struct {
	Cache *middleware.ResponseCache
	Limit *middleware.Limiter
}

func (g Guards) read() echo.MiddlewareFunc { return g.Cache.Middleware() }

func (g Guards) write() echo.MiddlewareFunc { return g.Limit.Middleware() }

// account throttles login attempts per username across client addresses.
func (g Guards) account() echo.MiddlewareFunc { return g.Limit.PerAccount("username") }

// RegisterRoutes registers routes every service exposes.  Currently it
// exposes only a liveness check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterMembers mounts the member service.
func RegisterMembers(e *echo.Echo, h *handler.MemberHandler, g Guards) {
	e.GET("/", handler.Identity(MembersIdentity))
	e.GET("/members", h.List, g.read())
	e.POST("/members", h.Register, g.write())
	e.POST("/login", h.Login, g.write(), g.account())
}

// RegisterHealthHistory mounts the health history service.
func RegisterHealthHistory(e *echo.Echo, h *handler.HealthHistoryHandler, g Guards) {
	e.GET("/", handler.Identity(HealthHistoryIdentity))
	e.GET("/health", h.List, g.read())
	e.POST("/health", h.Ingest, g.write())
}

// RegisterViewer mounts the read-only viewer.  The summary is served on both
// / and /health.
func RegisterViewer(e *echo.Echo, h *handler.ViewerHandler, g Guards) {
	e.GET("/", h.Summary, g.read())
	e.GET("/health", h.Summary, g.read())
}
