package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncOfflineReportsQueuePreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	configYAML := "owner_id: owner-1\n" +
		"store_path: " + filepath.Join(dir, "watchsync.db") + "\n" +
		"remote:\n" +
		"  url: " + server.URL + "\n" +
		"  api_key: test-key\n"
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o600))

	err := NewCLI().Run(context.Background(), []string{"watchsync", "--config", configPath, "sync"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queued changes preserved", "Error should explain the outcome on its own")
}
