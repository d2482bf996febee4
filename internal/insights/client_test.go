package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunkn/watchsync/internal/store"
	"github.com/arjunkn/watchsync/internal/watchlist"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "insights.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func generateReply(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	reply := generateResponse{
		Candidates: []candidate{{Content: content{Parts: []part{{Text: text}}}}},
	}
	require.NoError(t, json.NewEncoder(w).Encode(reply))
}

func TestReleaseInfo(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		generateReply(t, w, "Name: Demon Slayer 2\nStatus: Unreleased\nRelease Date: N/A\nExpected Date: 2027\nPlatform: Netflix")
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"}, newTestStore(t))
	item := watchlist.Item{Title: "Demon Slayer", Type: watchlist.TypeMovies}

	info, err := client.ReleaseInfo(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "Demon Slayer 2", info.Name)
	assert.Equal(t, "Unreleased", info.Status)
	assert.Equal(t, "N/A", info.ReleaseDate)
	assert.Equal(t, "2027", info.ExpectedDate)
	assert.Equal(t, "Netflix", info.Platform)

	// Second lookup is served from the cache.
	_, err = client.ReleaseInfo(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRecommendations(t *testing.T) {
	recs := []Recommendation{
		{Title: "Jujutsu Kaisen", Genre: "Action", SubType: "Anime", ItemType: "TV Series", Count: 2},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)

		payload, err := json.Marshal(recs)
		require.NoError(t, err)
		generateReply(t, w, string(payload))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"}, newTestStore(t))
	item := watchlist.Item{Title: "Demon Slayer", Type: watchlist.TypeSeries, SubType: watchlist.SubTypeAnime}

	got, err := client.Recommendations(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		generateReply(t, w, "Name: Next\nStatus: Released")
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key", MaxRetries: 2}, newTestStore(t))

	info, err := client.ReleaseInfo(context.Background(), watchlist.Item{Title: "Show", Type: watchlist.TypeSeries})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Released", info.Status)
}

func TestGenerateClientErrorIsPermanent(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key", MaxRetries: 5}, newTestStore(t))

	_, err := client.ReleaseInfo(context.Background(), watchlist.Item{Title: "Show", Type: watchlist.TypeSeries})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "4xx responses must not be retried")
}

func TestNegativeMaxRetriesMeansNoRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key", MaxRetries: -1}, newTestStore(t))

	_, err := client.ReleaseInfo(context.Background(), watchlist.Item{Title: "Show", Type: watchlist.TypeSeries})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "negative retry budget must clamp to zero")
}

func TestParseReleaseInfoIgnoresNoise(t *testing.T) {
	info := parseReleaseInfo("Here you go:\nName: Thing 2\nnonsense line\nPlatform: Hotstar\n")
	assert.Equal(t, "Thing 2", info.Name)
	assert.Equal(t, "Hotstar", info.Platform)
	assert.Empty(t, info.Status)
	assert.NotEmpty(t, info.Raw)
}
