// Package redis connects to Redis and provides a session.Store backed by it.
//
// Connect parses a redis:// URL, pings the server and retries according to
// Config. Healthcheck returns a probe suitable for readiness endpoints.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := redis.NewStoreFromConfig(client, cfg, 24*time.Hour)
//	manager, err := session.New(store, codec)
//
// # Session store
//
// Every session is one string key (prefix + id) holding the sealed record.
// AllocateID reserves ids with SETNX. Mutate runs inside WATCH/MULTI/EXEC and
// retries when a concurrent client touched the key, which is what makes the
// fingerprint bind a set-if-absent across processes. Writes refresh the key
// TTL.
//
// # Errors
//
// Connection problems are reported as ErrRedisNotReady or
// ErrFailedToParseRedisConnString joined with the driver error. Mutate
// returns ErrConflict when it ran out of retries.
package redis
