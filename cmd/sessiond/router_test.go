package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/codec"
	"github.com/dmitrymomot/sessionguard/pkg/httpserver"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/requestid"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testClient struct {
	t       *testing.T
	handler http.Handler
	store   *session.MemoryStore
	clock   *testClock
	cookie  *http.Cookie
	addr    string
	header  http.Header
}

type clientOption func(*clientSetup)

type clientSetup struct {
	cfg  session.Config
	wrap func(*session.MemoryStore) session.Store
}

func withSessionConfig(fn func(*session.Config)) clientOption {
	return func(s *clientSetup) { fn(&s.cfg) }
}

func withStore(wrap func(*session.MemoryStore) session.Store) clientOption {
	return func(s *clientSetup) { s.wrap = wrap }
}

func newTestClient(t *testing.T, opts ...clientOption) *testClient {
	t.Helper()

	key, err := codec.GenerateKey()
	require.NoError(t, err)
	c, err := codec.New(key)
	require.NoError(t, err)

	setup := clientSetup{
		cfg:  session.DefaultConfig(),
		wrap: func(s *session.MemoryStore) session.Store { return s },
	}
	for _, opt := range opts {
		opt(&setup)
	}

	transport, err := session.NewCookieTransportFromConfig(setup.cfg.Cookie)
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := session.NewMemoryStore(24*time.Hour, 0, session.WithMemoryClock(clock.Now))
	t.Cleanup(func() { _ = store.Close() })

	m, err := session.NewFromConfig(setup.cfg, setup.wrap(store), c,
		session.WithTransport(transport),
		session.WithClock(clock.Now),
	)
	require.NoError(t, err)

	return &testClient{
		t:       t,
		handler: newRouter(m, logger.Nop(), httpserver.ReadinessHandler(nil, 0)),
		store:   store,
		clock:   clock,
		addr:    "192.0.2.10:4000",
		header:  http.Header{},
	}
}

func (c *testClient) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = c.addr
	for k, v := range c.header {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", "sessiond-test")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name != "sid" {
			continue
		}
		if ck.MaxAge < 0 {
			c.cookie = nil
		} else {
			c.cookie = ck
		}
	}
	return rec
}

func (c *testClient) show() sessionView {
	c.t.Helper()
	rec := c.do(http.MethodGet, "/session/", "")
	require.Equal(c.t, http.StatusOK, rec.Code)
	var v sessionView
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestRouter_SessionLifecycle(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	first := c.show()
	assert.Len(t, first.ID, 64)
	assert.Equal(t, "active", first.State)
	assert.Equal(t, "192.0.2.10", first.ClientIP)
	assert.True(t, first.Fingerprinted)
	assert.False(t, first.Expired)
	assert.Empty(t, first.Values)
	require.NotNil(t, c.cookie)

	rec := c.do(http.MethodPut, "/session/values/user", `"42"`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	again := c.show()
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, map[string]any{"user": "42"}, again.Values)

	rec = c.do(http.MethodPost, "/session/regenerate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var regenerated sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &regenerated))
	assert.NotEqual(t, first.ID, regenerated.ID)
	assert.Equal(t, regenerated.ID, c.cookie.Value)
	assert.Equal(t, map[string]any{"user": "42"}, c.show().Values)

	rec = c.do(http.MethodDelete, "/session/values/user", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, c.show().Values)

	rec = c.do(http.MethodDelete, "/session/", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, c.cookie)

	assert.NotEqual(t, regenerated.ID, c.show().ID)
}

func TestRouter_RejectsReservedKeys(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	c.show()

	for _, key := range []string{session.KeyLastActivity, session.KeyFingerprint} {
		rec := c.do(http.MethodPut, "/session/values/"+key, `"x"`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, key)
	}

	rec := c.do(http.MethodPut, "/session/values/user", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_StolenSessionIsRejected(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	owner := c.show()

	c.addr = "198.51.100.77:4000"
	rec := c.do(http.MethodPut, "/session/values/user", `"attacker"`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c.addr = "192.0.2.10:4000"
	assert.NotEqual(t, owner.ID, c.show().ID)
}

func TestRouter_Probes(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	rec := c.do(http.MethodGet, "/livez", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestid.Header))

	rec = c.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "READY", rec.Body.String())
}

func TestRouter_ExpiredSessionIsNotRevivedByReads(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	expired := c.show()
	require.Equal(t, http.StatusNoContent, c.do(http.MethodPut, "/session/values/user", `"42"`).Code)
	stale := c.cookie

	c.clock.Advance(2 * time.Hour)

	rec := c.do(http.MethodGet, "/session/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, c.cookie)

	// replaying the old cookie after the rejected read must not continue it
	c.cookie = stale
	rec = c.do(http.MethodPut, "/session/values/user", `"43"`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, c.cookie)
	assert.NotEqual(t, expired.ID, c.cookie.Value)

	fresh := c.show()
	assert.Equal(t, map[string]any{"user": "43"}, fresh.Values)

	data, err := c.store.Load(context.Background(), expired.ID)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRouter_IgnoresForwardedHeadersByDefault(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	owner := c.show()
	require.Equal(t, http.StatusNoContent, c.do(http.MethodPut, "/session/values/user", `"owner"`).Code)
	stolen := c.cookie

	c.addr = "198.51.100.77:4000"
	c.header.Set("X-Forwarded-For", "192.0.2.10")
	c.header.Set("X-Real-IP", "192.0.2.10")
	c.header.Set("CF-Connecting-IP", "192.0.2.10")
	rec := c.do(http.MethodPut, "/session/values/user", `"attacker"`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	data, err := c.store.Load(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Nil(t, data)

	c.addr = "192.0.2.10:4000"
	c.header = http.Header{}
	c.cookie = stolen
	assert.NotEqual(t, owner.ID, c.show().ID)
}

func TestRouter_TrustedHeadersResolveClientBehindProxy(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, withSessionConfig(func(cfg *session.Config) {
		cfg.TrustedHeaders = []string{"X-Forwarded-For"}
	}))
	c.addr = "10.0.0.2:4000"
	c.header.Set("X-Forwarded-For", "203.0.113.9")

	v := c.show()
	assert.Equal(t, "203.0.113.9", v.ClientIP)
	assert.True(t, v.Fingerprinted)

	c.header.Set("X-Forwarded-For", "203.0.113.10")
	rec := c.do(http.MethodGet, "/session/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// vanishingStore destroys the record right before the given Mutate call, the
// way a concurrent logout on another request would.
type vanishingStore struct {
	*session.MemoryStore

	mu        sync.Mutex
	destroyOn int
}

func (s *vanishingStore) arm(call int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyOn = call
}

func (s *vanishingStore) Mutate(ctx context.Context, id string, fn session.MutateFunc) error {
	s.mu.Lock()
	s.destroyOn--
	vanish := s.destroyOn == 0
	s.mu.Unlock()

	if vanish {
		if err := s.MemoryStore.Destroy(ctx, id); err != nil {
			return err
		}
	}
	return s.MemoryStore.Mutate(ctx, id, fn)
}

func TestRouter_ReportsWritesLostToConcurrentDestroy(t *testing.T) {
	t.Parallel()
	var store *vanishingStore
	c := newTestClient(t, withStore(func(m *session.MemoryStore) session.Store {
		store = &vanishingStore{MemoryStore: m}
		return store
	}))

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodPut, "/session/values/user", `"42"`},
		{http.MethodDelete, "/session/values/user", ""},
	} {
		c.cookie = nil
		owner := c.show()

		// first Mutate resumes the session, the second is the handler's save
		store.arm(2)
		rec := c.do(tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method)

		data, err := c.store.Load(context.Background(), owner.ID)
		require.NoError(t, err)
		assert.Nil(t, data, "destroyed record must not be resurrected")
	}
}
