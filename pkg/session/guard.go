package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessionguard/pkg/logger"
)

// Guard is the per-request session handle. It is not safe for concurrent use.
type Guard struct {
	m      *Manager
	client Client
	w      http.ResponseWriter

	fingerprint    string
	hasFingerprint bool

	state   State
	id      string
	payload Payload
	dirty   bool

	// activity recorded on the session before Start touched it
	previousActivity    int64
	hasPreviousActivity bool
}

// Start resolves inboundID to an active session. Unknown or unreadable ids
// are never adopted; a fresh id is allocated instead.
func (g *Guard) Start(ctx context.Context, inboundID string) error {
	if g.state != StateUninitialized {
		return ErrInvalidState
	}

	now := g.m.now().Unix()

	if id := SanitizeID(inboundID); id != "" {
		payload, err := g.resume(ctx, id, now)
		switch {
		case err == nil:
			g.activate(id, payload)
			g.m.logger.DebugContext(ctx, "session resumed", logger.SessionID(id))
			return nil
		case errors.Is(err, ErrSessionNotFound):
			g.m.logger.DebugContext(ctx, "unknown session id, allocating a new one", logger.SessionID(id))
		case errors.Is(err, ErrCorruptSession):
			g.m.logger.WarnContext(ctx, "unreadable session record destroyed",
				logger.SessionID(id),
				logger.Event("session.corrupt"),
				logger.Error(err),
			)
			if err := g.m.store.Destroy(ctx, id); err != nil {
				return err
			}
		default:
			return err
		}
	}

	id, err := g.m.store.AllocateID(ctx)
	if err != nil {
		return err
	}

	payload, _, err := g.update(ctx, id, func(current []byte) (Payload, error) {
		p, err := g.m.decode(current)
		if err != nil {
			return nil, err
		}
		g.bind(ctx, id, p, now)
		return p, nil
	})
	if err != nil {
		return err
	}

	g.activate(id, payload)
	g.m.logger.DebugContext(ctx, "session started", logger.SessionID(id), logger.Event("session.started"))
	return nil
}

// resume touches an existing record and reports ErrSessionNotFound when there
// is none.
func (g *Guard) resume(ctx context.Context, id string, now int64) (Payload, error) {
	p, _, err := g.update(ctx, id, func(current []byte) (Payload, error) {
		if current == nil {
			return nil, ErrSessionNotFound
		}

		p, err := g.m.decode(current)
		if err != nil {
			return nil, err
		}

		g.previousActivity, g.hasPreviousActivity = p.LastActivity()
		g.bind(ctx, id, p, now)
		return p, nil
	})
	return p, err
}

// bind updates activity and binds the fingerprint when the stored record has none.
func (g *Guard) bind(ctx context.Context, id string, p Payload, now int64) {
	p.touch(now)
	if g.hasFingerprint && p.bindFingerprint(g.fingerprint) {
		g.m.logger.DebugContext(ctx, "session fingerprint bound", logger.SessionID(id), logger.Event("session.fingerprint_bound"))
	}
}

// update runs fn inside Store.Mutate and returns the payload that was
// written together with its encoded form.
func (g *Guard) update(ctx context.Context, id string, fn func(current []byte) (Payload, error)) (Payload, []byte, error) {
	var (
		written Payload
		encoded []byte
	)
	err := g.m.store.Mutate(ctx, id, func(current []byte) ([]byte, error) {
		p, err := fn(current)
		if err != nil {
			return nil, err
		}
		data, err := g.m.encode(p)
		if err != nil {
			return nil, err
		}
		written, encoded = p, data
		return data, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return written, encoded, nil
}

func (g *Guard) activate(id string, payload Payload) {
	g.id = id
	g.payload = payload
	g.state = StateActive
	g.dirty = false
}

// merge combines application changes with what is stored now. The stored
// fingerprint always wins and activity never moves backward.
func (g *Guard) merge(stored Payload) Payload {
	merged := g.payload.Clone()
	delete(merged, KeyFingerprint)

	if fp, ok := stored.Fingerprint(); ok {
		merged[KeyFingerprint] = fp
	}
	if last, ok := stored.LastActivity(); ok {
		merged.touch(last)
	}
	return merged
}

// flush writes the payload under the current id and returns what was written.
func (g *Guard) flush(ctx context.Context) (Payload, []byte, error) {
	return g.update(ctx, g.id, func(current []byte) (Payload, error) {
		if current == nil {
			return nil, ErrSessionNotFound
		}
		stored, err := g.m.decode(current)
		if err != nil {
			return nil, err
		}
		return g.merge(stored), nil
	})
}

// Save persists application changes. A record destroyed concurrently is not
// resurrected; ErrSessionNotFound is returned instead.
func (g *Guard) Save(ctx context.Context) error {
	if g.state != StateActive {
		return ErrInvalidState
	}

	payload, _, err := g.flush(ctx)
	if err != nil {
		return err
	}

	g.payload = payload
	g.dirty = false
	return nil
}

// Forget clears the payload, expires the client token and destroys the record.
// The guard cannot be used afterwards.
func (g *Guard) Forget(ctx context.Context) error {
	if g.state != StateActive {
		return ErrInvalidState
	}

	id := g.id
	g.payload = Payload{}
	g.state = StateDestroyed
	g.dirty = false

	var errs []error
	if g.w != nil && g.m.transport != nil {
		errs = append(errs, g.m.transport.ClearToken(g.w))
	}
	errs = append(errs, g.m.store.Destroy(ctx, id))

	g.m.logger.DebugContext(ctx, "session forgotten", logger.SessionID(id), logger.Event("session.forgotten"))
	return errors.Join(errs...)
}

// Regenerate moves the session to a new id, keeping its payload. The old id
// no longer resolves afterwards.
func (g *Guard) Regenerate(ctx context.Context) (string, error) {
	if g.state != StateActive {
		return "", ErrInvalidState
	}

	oldID := g.id
	payload, encoded, err := g.flush(ctx)
	if err != nil {
		return "", err
	}

	newID, err := g.m.store.AllocateID(ctx)
	if err != nil {
		return "", err
	}

	if err := g.m.store.Save(ctx, newID, encoded); err != nil {
		_ = g.m.store.Destroy(ctx, newID)
		return "", err
	}

	if err := g.m.store.Destroy(ctx, oldID); err != nil {
		return "", errors.Join(err, g.m.store.Destroy(ctx, newID))
	}

	g.id = newID
	g.payload = payload
	g.dirty = false

	if g.w != nil && g.m.transport != nil {
		if err := g.m.transport.SetToken(g.w, newID, g.m.config.Cookie.Lifetime); err != nil {
			return newID, err
		}
	}

	g.m.logger.DebugContext(ctx, "session regenerated",
		logger.SessionID(newID),
		slog.Any("previous_session", logger.SessionID(oldID).Value),
		logger.Event("session.regenerated"),
	)
	return newID, nil
}

// IsExpired reports whether the session sat idle for longer than ttl before
// this request. Sessions without an activity timestamp never expire here.
func (g *Guard) IsExpired(ttl time.Duration) bool {
	if !g.hasPreviousActivity {
		return false
	}
	return g.m.now().Unix()-g.previousActivity > int64(ttl/time.Second)
}

// IsExpiredDefault is IsExpired with the configured TTL.
func (g *Guard) IsExpiredDefault() bool {
	return g.IsExpired(g.m.config.TTL)
}

// IsFingerprinted reports whether the current client matches the fingerprint
// bound to the session. A session with no bound fingerprint passes unless the
// manager is configured to fail closed.
func (g *Guard) IsFingerprinted() bool {
	stored, ok := g.payload.Fingerprint()
	if !ok {
		return !g.m.config.FailClosed
	}
	if !g.hasFingerprint {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(g.fingerprint)) == 1
}

// IsValid reports whether the session is active, not expired and bound to
// this client.
func (g *Guard) IsValid() bool {
	return g.state == StateActive && !g.IsExpiredDefault() && g.IsFingerprinted()
}

func (g *Guard) ID() string {
	return g.id
}

func (g *Guard) State() State {
	return g.state
}

// Client returns the identity inputs the guard was created with.
func (g *Guard) Client() Client {
	return g.client
}

// Fingerprint returns the fingerprint of the current client.
func (g *Guard) Fingerprint() (string, bool) {
	return g.fingerprint, g.hasFingerprint
}

// Payload returns a copy of the session payload.
func (g *Guard) Payload() Payload {
	return g.payload.Clone()
}

func (g *Guard) Get(key string) (any, bool) {
	return g.payload.Get(key)
}

// Set changes a value in memory. Call Save to persist it.
func (g *Guard) Set(key string, value any) error {
	if g.state != StateActive {
		return ErrInvalidState
	}
	if IsReservedKey(key) {
		return ErrReservedKey
	}
	g.payload.Set(key, value)
	g.dirty = true
	return nil
}

func (g *Guard) Delete(key string) error {
	if g.state != StateActive {
		return ErrInvalidState
	}
	if IsReservedKey(key) {
		return ErrReservedKey
	}
	g.payload.Delete(key)
	g.dirty = true
	return nil
}

// Dirty reports whether Set or Delete changed the payload since the last write.
func (g *Guard) Dirty() bool {
	return g.dirty
}
