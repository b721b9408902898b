// Package server boots one HTTP service: configuration, MongoDB, the
// optional Redis and RabbitMQ integrations, routes and graceful shutdown.
package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/health-member-services/internal/config"
	"github.com/iliyamo/health-member-services/internal/database"
	"github.com/iliyamo/health-member-services/internal/handler"
	"github.com/iliyamo/health-member-services/internal/middleware"
	"github.com/iliyamo/health-member-services/internal/repository"
	"github.com/iliyamo/health-member-services/internal/router"
	"github.com/iliyamo/health-member-services/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Deps is what a service needs to mount its routes.
type Deps struct {
	Store  repository.Store
	Env    handler.Env
	Guards router.Guards
}

// MountFunc registers a service's routes on e.
type MountFunc func(e *echo.Echo, d Deps)

// Run starts the named service and blocks until SIGINT or SIGTERM, then
// stops accepting requests and disconnects from the database.  Startup
// failures exit the process.
func Run(name string, mount MountFunc) {
	cfg := config.Load()
	log.Printf("%s: starting (env=%s, status=%s)", name, cfg.Env, cfg.StatusMode)

	client, err := database.Open(cfg.DatabaseURI, cfg.DatabaseTimeout)
	if err != nil {
		log.Fatalf("%s: database: %v", name, err)
	}
	log.Printf("DATABASE IS CONNECTED: NAME => %s", cfg.DatabaseName)

	cacheCfg := config.LoadCacheConfig()
	limitCfg := config.LoadRateLimitConfig()
	// Services share one Redis; keep their key spaces apart.
	cacheCfg.Prefix += ":" + name
	limitCfg.Prefix += ":" + name

	var rdb *redis.Client
	if cacheCfg.Enabled || limitCfg.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		rdb, err = config.NewRedisClient(ctx, config.LoadRedisConfig())
		cancel()
		if err != nil {
			log.Printf("%s: %v; response cache and rate limit disabled", name, err)
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}
	cache := middleware.NewResponseCache(cacheCfg, rdb)

	env := handler.Env{
		Status:  cfg.StatusMode,
		Timeout: cfg.DatabaseTimeout,
		Cache:   cache,
	}
	if cfg.EventsEnabled() {
		env.Events = service.NewActivityPublisher(cfg.AMQPURL)
	}

	e := router.New(cfg.LogLevel)
	router.RegisterRoutes(e)
	mount(e, Deps{
		Store:  repository.NewMongoStore(client.Database(cfg.DatabaseName)),
		Env:    env,
		Guards: router.Guards{Cache: cache, Limit: middleware.NewLimiter(limitCfg, rdb)},
	})

	addr, errCh, err := start(e, cfg.Addr())
	if err != nil {
		_ = database.Close(client, shutdownTimeout)
		log.Fatalf("%s: listen %s: %v", name, cfg.Addr(), err)
	}
	log.Printf("SERVER IS ONLINE => http://%s", addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Printf("%s: server: %v", name, err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("%s: shutdown: %v", name, err)
	}
	if err := database.Close(client, shutdownTimeout); err != nil {
		log.Printf("%s: disconnect: %v", name, err)
	}
	log.Printf("DISCONNECT DATABASE: NAME => %s", cfg.DatabaseName)
}

// start binds addr and serves e on it in the background.  A bind failure is
// returned before anything is served; later server errors arrive on the
// channel.
func start(e *echo.Echo, addr string) (net.Addr, <-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	e.Listener = ln

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return ln.Addr(), errCh, nil
}
