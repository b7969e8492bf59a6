package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/sessionguard/pkg/config"
	"github.com/dmitrymomot/sessionguard/pkg/httpserver"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/mongo"
	"github.com/dmitrymomot/sessionguard/pkg/pg"
	"github.com/dmitrymomot/sessionguard/pkg/redis"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

var errUnknownStore = errors.New("unknown session store")

// backend is the selected session store with its readiness checks and
// teardown.
type backend struct {
	session.Store
	checks  []httpserver.Check
	closers []func(context.Context) error
}

func (b *backend) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i](ctx))
	}
	return errors.Join(errs...)
}

func openStore(ctx context.Context, kind string, cfg session.Config, log *slog.Logger) (*backend, error) {
	log = log.With(logger.Store(kind))

	switch kind {
	case "", "memory":
		mem := session.NewMemoryStore(cfg.RecordTTL, cfg.CleanupInterval)
		return &backend{
			Store:   mem,
			closers: []func(context.Context) error{func(context.Context) error { return mem.Close() }},
		}, nil

	case "redis":
		var rc redis.Config
		if err := config.Load(&rc); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, rc)
		if err != nil {
			return nil, err
		}
		return &backend{
			Store:   redis.NewStoreFromConfig(client, rc, cfg.RecordTTL),
			checks:  []httpserver.Check{{Name: "redis", Func: redis.Healthcheck(client)}},
			closers: []func(context.Context) error{func(context.Context) error { return client.Close() }},
		}, nil

	case "postgres":
		var pc pg.Config
		if err := config.Load(&pc); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pc)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, pc, log); err != nil {
			pool.Close()
			return nil, err
		}

		store := pg.NewStore(pool, cfg.RecordTTL)
		cleanupCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		go store.RunCleanup(cleanupCtx, pc.CleanupInterval, log)

		return &backend{
			Store:  store,
			checks: []httpserver.Check{{Name: "postgres", Func: pg.Healthcheck(pool)}},
			closers: []func(context.Context) error{func(context.Context) error {
				cancel()
				pool.Close()
				return nil
			}},
		}, nil

	case "mongo":
		var mc mongo.Config
		if err := config.Load(&mc); err != nil {
			return nil, err
		}
		client, err := mongo.New(ctx, mc)
		if err != nil {
			return nil, err
		}
		store := mongo.NewStoreFromConfig(client, mc, cfg.RecordTTL)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &backend{
			Store:   store,
			checks:  []httpserver.Check{{Name: "mongo", Func: mongo.Healthcheck(client)}},
			closers: []func(context.Context) error{client.Disconnect},
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", errUnknownStore, kind)
}
