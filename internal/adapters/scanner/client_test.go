package scanner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

func TestClientRun(t *testing.T) {
	var gotBody scanRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/scan", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"findings": [
				{"host": "10.0.0.5", "port": 22, "state": "open", "service": "ssh", "version": "OpenSSH 8.9"},
				{"host": "10.0.0.5", "port": 8080, "state": "weird-state", "service": "http-proxy", "version": ""},
				{"host": "10.0.0.5", "port": 99999, "state": "open", "service": "bogus", "version": ""}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	findings, err := client.Run(context.Background(), "10.0.0.0/28", "basic")
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.0/28", gotBody.Target)
	assert.Equal(t, "basic", gotBody.Profile)

	// Out-of-range port dropped, unknown state normalized.
	require.Len(t, findings, 2)
	assert.Equal(t, domain.PortOpen, findings[0].State)
	assert.Equal(t, "OpenSSH 8.9", findings[0].ServiceVersion)
	assert.Equal(t, domain.PortUnknown, findings[1].State)
}

func TestClientRunEngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"findings": [], "error": "target unreachable"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Run(context.Background(), "203.0.113.9", "basic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target unreachable")
}

func TestClientRunBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Run(context.Background(), "203.0.113.9", "basic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
