// Package httpserver runs sessiond's HTTP listener with graceful shutdown and
// exposes liveness and readiness handlers.
//
// # Usage
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server", logger.Error(err))
//	}
//
// Run opens the listener before returning control to WithOnStart callbacks,
// so Addr reports the real port when ":0" is used.
//
// # Health checks
//
//	r.Get("/livez", httpserver.LivenessHandler())
//	r.Get("/readyz", httpserver.ReadinessHandler(log, cfg.ProbeTimeout,
//		httpserver.Check{Name: "redis", Func: redis.Healthcheck(client)},
//	))
//
// # Error Handling
//
// Listen and serve failures are joined with ErrStart, drain failures with
// ErrShutdown. A second Run returns ErrStart joined with ErrAlreadyRunning.
package httpserver
