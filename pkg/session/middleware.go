package session

import (
	"net/http"

	"github.com/dmitrymomot/sessionguard/pkg/logger"
)

// Middleware starts a guard for every request and stores it in the context.
// Payload changes left unsaved by the handler are written afterwards.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		g, err := m.Start(ctx, w, r)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to start session", logger.Error(err))
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithGuard(ctx, g)))

		if g.State() == StateActive && g.Dirty() {
			if err := g.Save(ctx); err != nil {
				m.logger.ErrorContext(ctx, "failed to save session", logger.SessionID(g.ID()), logger.Error(err))
			}
		}
	})
}

// RequireValid rejects requests whose session is expired or bound to another
// client. The offending session is forgotten before answering 401.
// Start refreshes activity on every request, so routes that read the session
// without this check keep an expired session alive.
func (m *Manager) RequireValid(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		g, ok := FromContext(ctx)
		if !ok {
			var err error
			if g, err = m.Start(ctx, w, r); err != nil {
				m.logger.ErrorContext(ctx, "failed to start session", logger.Error(err))
				http.Error(w, "Session error", http.StatusInternalServerError)
				return
			}
			ctx = WithGuard(ctx, g)
		}

		if !g.IsValid() {
			m.logger.WarnContext(ctx, "invalid session rejected",
				logger.SessionID(g.ID()),
				logger.Event("session.rejected"),
				"expired", g.IsExpiredDefault(),
				"fingerprinted", g.IsFingerprinted(),
			)
			if g.State() == StateActive {
				if err := g.Forget(ctx); err != nil {
					m.logger.ErrorContext(ctx, "failed to forget session", logger.Error(err))
				}
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
