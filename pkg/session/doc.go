// Package session binds a server-side session to the client that created it.
//
// A Manager is created once with a Store and a Codec. For every request it
// hands out a Guard, a short lived handle that moves through three states:
// StateUninitialized, StateActive and StateDestroyed.
//
// # Usage
//
//	c, err := codec.New(key)
//	store := session.NewMemoryStore(24*time.Hour, 5*time.Minute)
//	manager, err := session.New(store, c,
//		session.WithTransport(transport),
//		session.WithLogger(log),
//	)
//
//	router.Use(manager.Middleware)
//	router.With(manager.RequireValid).Get("/account", handler)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		g := session.MustFromContext(r.Context())
//		_ = g.Set("user_id", "42")
//		if _, err := g.Regenerate(r.Context()); err != nil { ... }
//	}
//
// Without HTTP, call Guard and Start directly:
//
//	g := manager.Guard(session.Client{RemoteAddr: addr, UserAgent: ua})
//	if err := g.Start(ctx, inboundID); err != nil { ... }
//	if !g.IsValid() { _ = g.Forget(ctx) }
//
// # Binding rules
//
// Start never adopts an id it does not know: ids without a stored record and
// records that fail to decrypt get a freshly allocated id. Each start moves
// the _last_activity timestamp forward and binds the client fingerprint
// (see package fingerprint) when the stored record has none. Both happen
// inside Store.Mutate, so when two requests race on a new session the first
// fingerprint written wins.
//
// IsExpired compares the idle gap that preceded the current request with a
// TTL. IsFingerprinted compares the bound fingerprint with the current one in
// constant time; sessions that never got a fingerprint (for example because
// the client address could not be parsed) pass unless Config.FailClosed is
// set.
//
// # Stores
//
// MemoryStore is provided here. Redis, PostgreSQL and MongoDB stores live in
// the redis, pg and mongo packages. Records are opaque byte slices produced by
// the Codec; stores never see plaintext.
//
// # Error Handling
//
// Operations called in the wrong state return ErrInvalidState. Save and
// Regenerate return ErrSessionNotFound when the record was destroyed
// concurrently. Store and codec failures are returned unchanged; undecodable
// records are wrapped with ErrCorruptSession. Validity checks return booleans.
package session
