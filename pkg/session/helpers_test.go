package session_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/codec"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

var (
	clientA = session.Client{RemoteAddr: "192.168.1.1", UserAgent: "X"}
	clientB = session.Client{RemoteAddr: "203.0.113.7", UserAgent: "Mozilla/5.0"}
)

const fingerprintA = "20404fcfcd32c20d3b7c12f5c4c6f076"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
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

type fixture struct {
	manager *session.Manager
	store   *session.MemoryStore
	codec   *codec.Codec
	clock   *testClock
}

func newFixture(t *testing.T, opts ...session.Option) *fixture {
	t.Helper()

	key, err := codec.GenerateKey()
	require.NoError(t, err)
	c, err := codec.New(key)
	require.NoError(t, err)

	clock := newTestClock()
	store := session.NewMemoryStore(time.Hour, 0, session.WithMemoryClock(clock.Now))
	t.Cleanup(func() { _ = store.Close() })

	m, err := session.New(store, c, append([]session.Option{session.WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)

	return &fixture{manager: m, store: store, codec: c, clock: clock}
}

// start returns an active guard for client resuming id.
func (f *fixture) start(t *testing.T, client session.Client, id string) *session.Guard {
	t.Helper()
	g := f.manager.Guard(client)
	require.NoError(t, g.Start(context.Background(), id))
	require.Equal(t, session.StateActive, g.State())
	return g
}

// seed stores a raw JSON payload under a freshly allocated id.
func (f *fixture) seed(t *testing.T, payload string) string {
	t.Helper()
	ctx := context.Background()

	id, err := f.store.AllocateID(ctx)
	require.NoError(t, err)
	sealed, err := f.codec.Encode([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, f.store.Save(ctx, id, sealed))
	return id
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, id string, data []byte) error {
	return m.Called(ctx, id, data).Error(0)
}

func (m *mockStore) Destroy(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) AllocateID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Mutate(ctx context.Context, id string, fn session.MutateFunc) error {
	return m.Called(ctx, id, fn).Error(0)
}

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) GetToken(r *http.Request) (string, error) {
	args := m.Called(r)
	return args.String(0), args.Error(1)
}

func (m *mockTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	return m.Called(w, token, ttl).Error(0)
}

func (m *mockTransport) ClearToken(w http.ResponseWriter) error {
	return m.Called(w).Error(0)
}
