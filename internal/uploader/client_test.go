package uploader

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specguard/sentinel/internal/finding"
	"github.com/specguard/sentinel/pkg/shared/config"
)

func TestNewRequiresURL(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
	_, err = New(&config.Uploader{})
	assert.Error(t, err)
}

func TestUploadScan(t *testing.T) {
	var gotAuth string
	var gotPayload uploadPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/scans", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := New(&config.Uploader{URL: server.URL, Token: "secret"})
	require.NoError(t, err)

	result := &finding.ScanResult{ScanID: "scan-1", Trigger: finding.TriggerManual}
	history := []finding.ScanListing{{ScanID: "scan-0"}}
	require.NoError(t, client.UploadScan("default", result, history))

	assert.Equal(t, "Token secret", gotAuth)
	assert.Equal(t, "default", gotPayload.App)
	require.NotNil(t, gotPayload.Scan)
	assert.Equal(t, "scan-1", gotPayload.Scan.ScanID)
	require.Len(t, gotPayload.Listings, 1)
}

func TestUploadScanRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client, err := New(&config.Uploader{URL: server.URL})
	require.NoError(t, err)

	err = client.UploadScan("default", &finding.ScanResult{ScanID: "scan-1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
