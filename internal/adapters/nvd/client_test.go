package nvd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
	"totalResults": 2,
	"vulnerabilities": [
		{
			"cve": {
				"id": "CVE-2021-41773",
				"published": "2021-10-05T09:15:07.593",
				"descriptions": [
					{"lang": "es", "value": "descripcion en espanol"},
					{"lang": "en", "value": "A flaw was found in a change made to path normalization in Apache HTTP Server 2.4.49."}
				],
				"metrics": {
					"cvssMetricV31": [{"cvssData": {"baseScore": 7.5}}],
					"cvssMetricV2": [{"cvssData": {"baseScore": 4.3}}]
				}
			}
		},
		{
			"cve": {
				"id": "CVE-2021-42013",
				"descriptions": [
					{"lang": "es", "value": "sin traduccion"}
				],
				"metrics": {
					"cvssMetricV2": [{"cvssData": {"baseScore": 7.5}}]
				}
			}
		}
	]
}`

func TestClientSearch(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("keywordSearch")
		gotKey = r.Header.Get("apiKey")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithAPIKey("test-key"))

	vulns, err := client.Search(context.Background(), "apache httpd 2.4.49")
	require.NoError(t, err)
	require.Len(t, vulns, 2)

	assert.Equal(t, "apache httpd 2.4.49", gotQuery)
	assert.Equal(t, "test-key", gotKey)

	first := vulns[0]
	assert.Equal(t, "CVE-2021-41773", first.ID)
	assert.Contains(t, first.Description, "path normalization")
	require.NotNil(t, first.CVSSScore)
	assert.Equal(t, 7.5, *first.CVSSScore, "v3.1 metric wins over v2")
	assert.Equal(t, 2021, first.Published.Year())

	// No English description falls back to the placeholder; v2 metric is
	// used when no v3 metric exists.
	second := vulns[1]
	assert.Equal(t, "No description available", second.Description)
	require.NotNil(t, second.CVSSScore)
	assert.Equal(t, 7.5, *second.CVSSScore)
	assert.True(t, second.Published.IsZero())
}

func TestClientSearchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalResults": 0, "vulnerabilities": []}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	vulns, err := client.Search(context.Background(), "nonexistent product")
	require.NoError(t, err)
	assert.Empty(t, vulns)
}

func TestClientSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClientSearchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "anything")
	require.Error(t, err)
}
