package fingerprint_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/fingerprint"
)

func TestCompute(t *testing.T) {
	t.Parallel()

	t.Run("ipv4 reference value", func(t *testing.T) {
		t.Parallel()
		fp, ok := fingerprint.Compute("192.168.1.1", "X")
		require.True(t, ok)

		sum := md5.Sum([]byte("X" + "000000000000000000000000c0a80101"))
		assert.Equal(t, hex.EncodeToString(sum[:]), fp)
		assert.Equal(t, "20404fcfcd32c20d3b7c12f5c4c6f076", fp)
	})

	t.Run("ipv6 reference value", func(t *testing.T) {
		t.Parallel()
		fp, ok := fingerprint.Compute("2001:db8::1", "Mozilla/5.0")
		require.True(t, ok)
		assert.Equal(t, "abe8d1dea4534d1cc94206d4789409eb", fp)
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		fp1, ok1 := fingerprint.Compute("203.0.113.7", "Mozilla/5.0 (X11; Linux x86_64)")
		fp2, ok2 := fingerprint.Compute("203.0.113.7", "Mozilla/5.0 (X11; Linux x86_64)")
		require.True(t, ok1)
		require.True(t, ok2)
		assert.Equal(t, fp1, fp2)
		assert.Regexp(t, "^[a-f0-9]{32}$", fp1)
	})

	t.Run("ipv4 equals its ipv6 spelling", func(t *testing.T) {
		t.Parallel()
		v4, ok := fingerprint.Compute("192.168.1.1", "Mozilla/5.0")
		require.True(t, ok)
		assert.Equal(t, "d9bc0803f098476c03b1a672130790db", v4)

		for _, addr := range []string{"::c0a8:101", "::c0a8:0101", "::C0A8:0101", "::192.168.1.1"} {
			v6, ok := fingerprint.Compute(addr, "Mozilla/5.0")
			require.True(t, ok, addr)
			assert.Equal(t, v4, v6, addr)
		}
	})

	t.Run("mapped address differs from plain ipv4", func(t *testing.T) {
		t.Parallel()
		v4, _ := fingerprint.Compute("192.168.1.1", "UA")
		mapped, ok := fingerprint.Compute("::ffff:192.168.1.1", "UA")
		require.True(t, ok)
		assert.NotEqual(t, v4, mapped)
	})

	t.Run("proxy chain uses first hop", func(t *testing.T) {
		t.Parallel()
		direct, _ := fingerprint.Compute("198.51.100.4", "UA")
		chained, ok := fingerprint.Compute(" 198.51.100.4 , 10.0.0.1, 10.0.0.2", "UA")
		require.True(t, ok)
		assert.Equal(t, direct, chained)
	})

	t.Run("user agent changes fingerprint", func(t *testing.T) {
		t.Parallel()
		a, _ := fingerprint.Compute("198.51.100.4", "Firefox")
		b, _ := fingerprint.Compute("198.51.100.4", "Chrome")
		assert.NotEqual(t, a, b)
	})

	t.Run("malformed addresses yield none", func(t *testing.T) {
		t.Parallel()
		for _, addr := range []string{"not-an-ip", "", "256.1.1.1", "1.2.3", "fe80::1%eth0", "1:2:3:4:5:6:7:8:9", ",1.2.3.4"} {
			fp, ok := fingerprint.Compute(addr, "UA")
			assert.False(t, ok, addr)
			assert.Empty(t, fp, addr)
		}
	})
}

func TestDigest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr     string
		expected string
	}{
		{"192.168.1.1", "000000000000000000000000c0a80101"},
		{"10.0.0.255", "0000000000000000000000000a0000ff"},
		{"::1", "00000000000000000000000000000001"},
		{"::", "00000000000000000000000000000000"},
		{"1::", "00010000000000000000000000000000"},
		{"fe80::1", "fe800000000000000000000000000001"},
		{"2001:DB8:0:0:8:800:200C:417A", "20010db80000000000080800200c417a"},
		{"1:2:3:4:5:6::7", "00010002000300040005000600000007"},
		{"::2:3:4:5:6:7:8", "00000002000300040005000600070008"},
		{"::ffff:1.2.3.4", "00000000000000000000ffff01020304"},
		{"64:ff9b::192.0.2.33", "0064ff9b0000000000000000c0000221"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			digest, ok := fingerprint.Digest(tt.addr)
			require.True(t, ok)
			assert.Equal(t, tt.expected, digest)
		})
	}
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	t.Run("uses remote addr and user agent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:54321"
		req.Header.Set("User-Agent", "X")

		fp, ok := fingerprint.FromRequest(req)
		require.True(t, ok)
		assert.Equal(t, "20404fcfcd32c20d3b7c12f5c4c6f076", fp)
	})

	t.Run("uses forwarded chain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		req.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1")
		req.Header.Set("User-Agent", "X")

		fp, ok := fingerprint.FromRequest(req)
		require.True(t, ok)
		assert.Equal(t, "20404fcfcd32c20d3b7c12f5c4c6f076", fp)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("stores fingerprint", func(t *testing.T) {
		var (
			got string
			ok  bool
		)
		handler := fingerprint.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok = fingerprint.GetFingerprintFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:1"
		req.Header.Set("User-Agent", "X")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.True(t, ok)
		assert.Equal(t, "20404fcfcd32c20d3b7c12f5c4c6f076", got)
	})

	t.Run("skips unusable address", func(t *testing.T) {
		ok := true
		handler := fingerprint.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok = fingerprint.GetFingerprintFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "pipe"
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.False(t, ok)
	})
}

func TestGetFingerprintFromContext(t *testing.T) {
	t.Parallel()

	_, ok := fingerprint.GetFingerprintFromContext(context.Background())
	assert.False(t, ok)

	ctx := fingerprint.SetFingerprintToContext(context.Background(), "abc")
	fp, ok := fingerprint.GetFingerprintFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", fp)
}
