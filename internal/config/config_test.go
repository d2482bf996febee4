package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
owner_id: "user-42"
store_path: "/tmp/watchsync-test.db"
remote:
  url: "https://example.supabase.co"
  api_key: "remote-key"
  realtime_ws: "wss://example.supabase.co/realtime/v1"
  timeout: "10s"
  max_retries: 3
insights:
  api_key: "insights-key"
  model: "gemini-2.5-flash"
watch:
  poll_interval: "5s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "user-42", cfg.OwnerID)
	assert.Equal(t, "/tmp/watchsync-test.db", cfg.StorePath)
	assert.Equal(t, "https://example.supabase.co", cfg.Remote.URL)
	assert.Equal(t, "remote-key", cfg.Remote.APIKey)
	assert.Equal(t, "watchlist", cfg.Remote.Collection, "collection defaults")
	assert.Equal(t, 10*time.Second, cfg.Remote.TimeoutDuration())
	assert.Equal(t, 3, cfg.Remote.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Watch.PollIntervalDuration())
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
owner_id: "user-42"
remote:
  url: "https://example.supabase.co"
  api_key: "remote-key"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.StorePath)
	assert.Equal(t, 2, cfg.Remote.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Remote.TimeoutDuration())
	assert.Equal(t, 60*time.Second, cfg.Insights.TimeoutDuration())
	assert.Equal(t, 30*time.Second, cfg.Watch.PollIntervalDuration())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
owner_id: "from-file"
remote:
  url: "https://example.supabase.co"
  api_key: "from-file"
`)

	t.Setenv("WATCHSYNC_OWNER_ID", "from-env")
	t.Setenv("WATCHSYNC_REMOTE_API_KEY", "env-key")
	t.Setenv("WATCHSYNC_INSIGHTS_API_KEY", "env-insights")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.OwnerID)
	assert.Equal(t, "env-key", cfg.Remote.APIKey)
	assert.Equal(t, "env-insights", cfg.Insights.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "complete",
			cfg: Config{
				OwnerID: "u",
				Remote:  RemoteConfig{URL: "https://x", APIKey: "k"},
			},
		},
		{name: "missing owner", cfg: Config{Remote: RemoteConfig{URL: "https://x", APIKey: "k"}}, wantErr: true},
		{name: "missing url", cfg: Config{OwnerID: "u", Remote: RemoteConfig{APIKey: "k"}}, wantErr: true},
		{name: "missing api key", cfg: Config{OwnerID: "u", Remote: RemoteConfig{URL: "https://x"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
