package httpserver_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/httpserver"
)

func startServer(t *testing.T, handler http.Handler, opts ...httpserver.Option) (*httpserver.Server, context.CancelFunc, <-chan error) {
	t.Helper()

	started := make(chan string, 1)
	opts = append([]httpserver.Option{
		httpserver.WithAddr("127.0.0.1:0"),
		httpserver.WithShutdownTimeout(time.Second),
		httpserver.WithOnStart(func(addr string) { started <- addr }),
	}, opts...)
	srv := httpserver.New(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, handler) }()

	select {
	case <-started:
	case err := <-done:
		cancel()
		require.FailNow(t, "server did not start", "%v", err)
	case <-time.After(2 * time.Second):
		cancel()
		require.FailNow(t, "server did not start")
	}
	t.Cleanup(cancel)
	return srv, cancel, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		require.FailNow(t, "run did not finish")
		return nil
	}
}

func TestServer_RunAndCancel(t *testing.T) {
	t.Parallel()

	srv, cancel, done := startServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	resp, err := http.Get("http://" + srv.Addr())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "ok", string(body))

	cancel()
	assert.NoError(t, waitDone(t, done))
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestServer_ManualShutdown(t *testing.T) {
	t.Parallel()

	srv, _, done := startServer(t, http.NotFoundHandler())
	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, waitDone(t, done))
}

func TestServer_DrainsInFlightRequests(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	var finished atomic.Bool
	srv, cancel, done := startServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		w.WriteHeader(http.StatusNoContent)
	}))

	respCh := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + srv.Addr())
		if err != nil {
			respCh <- 0
			return
		}
		_ = resp.Body.Close()
		respCh <- resp.StatusCode
	}()

	<-entered
	cancel()
	assert.NoError(t, waitDone(t, done))
	assert.True(t, finished.Load())
	assert.Equal(t, http.StatusNoContent, <-respCh)
}

func TestServer_Errors(t *testing.T) {
	t.Parallel()

	t.Run("bad address", func(t *testing.T) {
		t.Parallel()
		err := httpserver.New(httpserver.WithAddr(":invalid")).Run(context.Background(), nil)
		assert.ErrorIs(t, err, httpserver.ErrStart)
	})

	t.Run("already running", func(t *testing.T) {
		t.Parallel()
		srv, _, _ := startServer(t, nil)
		err := srv.Run(context.Background(), nil)
		assert.ErrorIs(t, err, httpserver.ErrStart)
		assert.ErrorIs(t, err, httpserver.ErrAlreadyRunning)
	})

	t.Run("shutdown before run", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, httpserver.New().Shutdown(context.Background()))
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	srv := httpserver.NewFromConfig(httpserver.Config{Addr: "127.0.0.1:0", ReadTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, nil) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, waitDone(t, done))
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()

	for name, fn := range map[string]func(){
		"addr":     func() { httpserver.WithAddr("") },
		"read":     func() { httpserver.WithReadTimeout(0) },
		"write":    func() { httpserver.WithWriteTimeout(-time.Second) },
		"idle":     func() { httpserver.WithIdleTimeout(0) },
		"shutdown": func() { httpserver.WithShutdownTimeout(0) },
		"on start": func() { httpserver.WithOnStart(nil) },
	} {
		assert.Panics(t, fn, name)
	}
	assert.NotPanics(t, func() { httpserver.WithLogger(nil) })
}

func TestHealthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("liveness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		httpserver.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})

	t.Run("ready", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h := httpserver.ReadinessHandler(nil, time.Second, httpserver.Check{
			Name: "store",
			Func: func(ctx context.Context) error {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return nil
			},
		})
		h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		var calls atomic.Int32
		rec := httptest.NewRecorder()
		h := httpserver.ReadinessHandler(nil, 0,
			httpserver.Check{Name: "a", Func: func(context.Context) error { calls.Add(1); return errors.New("down") }},
			httpserver.Check{Name: "b", Func: func(context.Context) error { calls.Add(1); return nil }},
		)
		h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "NOT_READY", rec.Body.String())
		assert.Equal(t, int32(1), calls.Load())
	})
}
