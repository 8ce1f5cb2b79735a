//go:build !integration

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cache/stats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"data":{"total_entries":3,"valid_entries":2,"expired_entries":1,"default_ttl":60}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPrintCacheStats(t *testing.T) {
	t.Run("plain output", func(t *testing.T) {
		srv := statsServer(t, http.StatusOK)
		var buf bytes.Buffer

		require.NoError(t, PrintCacheStats(context.Background(), srv.URL, &buf, false))

		var stats map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &stats))
		assert.EqualValues(t, 3, stats["total_entries"])
		assert.EqualValues(t, 1, stats["expired_entries"])
		assert.NotContains(t, buf.String(), "\x1b[")
	})

	t.Run("colored output", func(t *testing.T) {
		srv := statsServer(t, http.StatusOK)
		var buf bytes.Buffer

		require.NoError(t, PrintCacheStats(context.Background(), srv.URL, &buf, true))

		assert.Contains(t, buf.String(), "\x1b[")
		assert.Contains(t, buf.String(), "total_entries")
	})

	t.Run("error status", func(t *testing.T) {
		srv := statsServer(t, http.StatusServiceUnavailable)

		err := PrintCacheStats(context.Background(), srv.URL, &bytes.Buffer{}, false)

		assert.ErrorContains(t, err, "unexpected status 503")
	})
}

func TestStatsURL(t *testing.T) {
	tests := []struct {
		addr     string
		expected string
	}{
		{"localhost:8080", "http://localhost:8080/api/cache/stats"},
		{"http://pi.local:8080/", "http://pi.local:8080/api/cache/stats"},
		{"https://ticker.example", "https://ticker.example/api/cache/stats"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.expected, statsURL(tt.addr))
		})
	}
}
