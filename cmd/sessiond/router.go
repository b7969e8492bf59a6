package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
	"github.com/dmitrymomot/sessionguard/pkg/httpserver"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/mongo"
	"github.com/dmitrymomot/sessionguard/pkg/pg"
	"github.com/dmitrymomot/sessionguard/pkg/redis"
	"github.com/dmitrymomot/sessionguard/pkg/requestid"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

const maxValueSize = 64 << 10

type sessionView struct {
	ID            string         `json:"id"`
	State         string         `json:"state"`
	ClientIP      string         `json:"client_ip"`
	Fingerprinted bool           `json:"fingerprinted"`
	Expired       bool           `json:"expired"`
	Values        map[string]any `json:"values"`
}

type errorView struct {
	Error string `json:"error"`
}

type handlers struct {
	log *slog.Logger
}

func newRouter(m *session.Manager, log *slog.Logger, ready http.HandlerFunc) http.Handler {
	h := handlers{log: log}

	r := chi.NewRouter()
	r.Use(requestid.Middleware, m.Resolver().Middleware)

	r.Get("/livez", httpserver.LivenessHandler())
	r.Get("/readyz", ready)

	// Every route, reads included, goes through RequireValid: resuming a
	// session refreshes its activity, so an expired or foreign session must be
	// forgotten on the request that finds it.
	r.Route("/session", func(r chi.Router) {
		r.Use(m.Middleware, m.RequireValid)
		r.Get("/", h.show)
		r.Put("/values/{key}", h.setValue)
		r.Delete("/values/{key}", h.deleteValue)
		r.Post("/regenerate", h.regenerate)
		r.Delete("/", h.forget)
	})

	return r
}

func (h handlers) show(w http.ResponseWriter, r *http.Request) {
	g := session.MustFromContext(r.Context())

	values := make(map[string]any)
	for k, v := range g.Payload() {
		if !session.IsReservedKey(k) {
			values[k] = v
		}
	}

	writeJSON(w, http.StatusOK, sessionView{
		ID:            g.ID(),
		State:         g.State().String(),
		ClientIP:      clientip.GetIPFromContext(r.Context()),
		Fingerprinted: g.IsFingerprinted(),
		Expired:       g.IsExpiredDefault(),
		Values:        values,
	})
}

func (h handlers) setValue(w http.ResponseWriter, r *http.Request) {
	g := session.MustFromContext(r.Context())

	var value any
	dec := json.NewDecoder(io.LimitReader(r.Body, maxValueSize))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		writeJSON(w, http.StatusBadRequest, errorView{Error: "body must be a JSON value"})
		return
	}

	if err := g.Set(chi.URLParam(r, "key"), value); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.save(w, r, g)
}

func (h handlers) deleteValue(w http.ResponseWriter, r *http.Request) {
	g := session.MustFromContext(r.Context())
	if err := g.Delete(chi.URLParam(r, "key")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.save(w, r, g)
}

// save persists the change before answering so a lost write is reported to
// the client.
func (h handlers) save(w http.ResponseWriter, r *http.Request, g *session.Guard) {
	if err := g.Save(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handlers) regenerate(w http.ResponseWriter, r *http.Request) {
	g := session.MustFromContext(r.Context())
	if _, err := g.Regenerate(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.show(w, r)
}

func (h handlers) forget(w http.ResponseWriter, r *http.Request) {
	g := session.MustFromContext(r.Context())
	if err := g.Forget(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrReservedKey):
		writeJSON(w, http.StatusBadRequest, errorView{Error: "key is reserved"})
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorView{Error: "session not found"})
	case errors.Is(err, redis.ErrConflict), errors.Is(err, mongo.ErrConflict), errors.Is(err, pg.ErrConflict):
		writeJSON(w, http.StatusConflict, errorView{Error: "session changed concurrently, retry"})
	default:
		h.log.ErrorContext(r.Context(), "session request failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorView{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
