package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanlens/backend/internal/domain"
)

type payload struct {
	Name string `json:"name"`
}

func TestNewClient_Defaults(t *testing.T) {
	c := newClient("Test", ClientConfig{})

	assert.Equal(t, "Test", c.name)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.NotNil(t, c.rateLimiter)
	assert.False(t, c.debug)
}

func TestSetDebug(t *testing.T) {
	c := newClient("Test", ClientConfig{})

	c.SetDebug(true)
	assert.True(t, c.debug)
	c.debugLog("test message %s", "arg")

	c.SetDebug(false)
	assert.False(t, c.debug)
	c.debugLog("test message %s", "arg")
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
	}
}

func TestGetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.Header.Get("user_key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Choco Bar"}`))
	}))
	defer server.Close()

	var got payload
	found, err := newClient("Test", ClientConfig{}).getJSON(context.Background(), server.URL, map[string]string{"user_key": "secret"}, &got)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Choco Bar", got.Name)
}

func TestGetJSON_NotFoundIsMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var got payload
	found, err := newClient("Test", ClientConfig{}).getJSON(context.Background(), server.URL, nil, &got)

	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetJSON_ServerError_Retries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"name":"after retry"}`))
	}))
	defer server.Close()

	var got payload
	found, err := newClient("Test", ClientConfig{}).getJSON(context.Background(), server.URL, nil, &got)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "after retry", got.Name)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestGetJSON_TooManyRequests_Retries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"name":"ok"}`))
	}))
	defer server.Close()

	var got payload
	found, err := newClient("Test", ClientConfig{}).getJSON(context.Background(), server.URL, nil, &got)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestGetJSON_ClientError_NoRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	var got payload
	found, err := newClient("Test", ClientConfig{}).getJSON(context.Background(), server.URL, nil, &got)

	assert.False(t, found)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestGetJSON_AllRetriesFail(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var got payload
	found, err := newClient("Test", ClientConfig{}).getJSON(context.Background(), server.URL, nil, &got)

	assert.False(t, found)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.Equal(t, int32(maxAttempts), attempts.Load())
}

func TestGetJSON_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	var got payload
	_, err := newClient("Test", ClientConfig{}).getJSON(context.Background(), server.URL, nil, &got)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestGetJSON_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	var got payload
	found, err := newClient("Test", ClientConfig{}).getJSON(ctx, server.URL, nil, &got)

	assert.False(t, found)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGetJSON_BackoffRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	var got payload
	_, err := newClient("Test", ClientConfig{}).getJSON(ctx, server.URL, nil, &got)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGetJSON_RequestCreationError(t *testing.T) {
	var got payload
	_, err := newClient("Test", ClientConfig{}).getJSON(context.Background(), "://invalid-url", nil, &got)

	assert.Error(t, err)
}

func TestReadLimitedBody(t *testing.T) {
	t.Run("reads within limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("short content"))
		}))
		defer server.Close()

		resp, err := http.Get(server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := readLimitedBody(resp.Body, 1000)
		require.NoError(t, err)
		assert.Equal(t, "short content", string(body))
	})

	t.Run("truncates beyond limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for i := 0; i < 100; i++ {
				w.Write([]byte("0123456789"))
			}
		}))
		defer server.Close()

		resp, err := http.Get(server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := readLimitedBody(resp.Body, 100)
		require.NoError(t, err)
		assert.Len(t, body, 100)
	})
}

func TestRedact(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://api.example.com/v3/products?barcode=1&key=secret", nil)

	out := redact(req)

	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "key=REDACTED")
}
