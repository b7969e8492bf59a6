package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/sessionguard/pkg/codec"
	"github.com/dmitrymomot/sessionguard/pkg/config"
	"github.com/dmitrymomot/sessionguard/pkg/httpserver"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/requestid"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

type appConfig struct {
	Store      string `env:"SESSION_STORE" envDefault:"memory"`         // memory, redis, postgres or mongo
	HeaderName string `env:"SESSION_HEADER" envDefault:"Authorization"` // header transport for API clients

	Log     logger.Config
	HTTP    httpserver.Config
	Session session.Config
	Codec   codec.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("sessiond stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log, err := logger.NewFromConfig(cfg.Log, "sessiond",
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	if err != nil {
		return err
	}

	c, err := codec.NewFromConfig(cfg.Codec)
	if err != nil {
		return fmt.Errorf("session codec: %w", err)
	}

	store, err := openStore(ctx, cfg.Store, cfg.Session, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			log.Error("failed to close session store", logger.Error(err))
		}
	}()

	cookieTransport, err := session.NewCookieTransportFromConfig(cfg.Session.Cookie)
	if err != nil {
		return fmt.Errorf("session cookie: %w", err)
	}

	manager, err := session.NewFromConfig(cfg.Session, store, c,
		session.WithLogger(log),
		session.WithTransport(session.NewCompositeTransport(
			cookieTransport,
			session.NewHeaderTransport(cfg.HeaderName),
		)),
	)
	if err != nil {
		return err
	}

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	router := newRouter(manager, log, httpserver.ReadinessHandler(log, cfg.HTTP.ProbeTimeout, store.checks...))

	log.InfoContext(ctx, "sessiond starting", logger.Store(cfg.Store))
	return srv.Run(ctx, router)
}
