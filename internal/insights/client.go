// Package insights fetches AI-generated information about watchlist entries
// from a generative-language API: release status for the next installment,
// and similar-title recommendations. Responses are cached in the local store
// per entry, so repeated lookups are free and work offline.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/arjunkn/watchsync/internal/store"
	"github.com/arjunkn/watchsync/internal/watchlist"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"

	// Free-tier generative APIs are aggressively rate limited; stay well
	// under the documented per-minute quota.
	requestsPerMinute = 10
)

// ReleaseInfo is the parsed release status of the next installment.
type ReleaseInfo struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ReleaseDate  string `json:"release_date"`
	ExpectedDate string `json:"expected_date"`
	Platform     string `json:"platform"`
	Raw          string `json:"raw"`
}

// Recommendation is one similar-title suggestion.
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Genre       string   `json:"genre"`
	SubType     string   `json:"sub_type"`
	Cast        []string `json:"cast"`
	Platform    string   `json:"platform"`
	Dub         string   `json:"dub"`
	ItemType    string   `json:"item_type"`
	Count       int      `json:"count"`
}

// Config collects everything needed to build a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	Debugf     func(format string, v ...any)
}

// Client calls the generative-language API with rate limiting, retries and
// per-entry response caching.
type Client struct {
	baseURL        string
	apiKey         string
	model          string
	maxRetries     int
	httpClient     *http.Client
	limiter        *rate.Limiter
	releaseCache   *store.ResponseCache
	recommendCache *store.ResponseCache
	debugf         func(format string, v ...any)
}

// NewClient builds a Client backed by the store's insight caches.
func NewClient(cfg Config, st *store.Store) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	debugf := cfg.Debugf
	if debugf == nil {
		debugf = func(string, ...any) {}
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		maxRetries:     cfg.MaxRetries,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(rate.Every(time.Minute/requestsPerMinute), 1),
		releaseCache:   st.ReleaseCache(),
		recommendCache: st.RecommendationCache(),
		debugf:         debugf,
	}
}

// ReleaseInfo returns the release status of the entry's next installment.
// Cached responses are returned without a network call.
func (c *Client) ReleaseInfo(ctx context.Context, item watchlist.Item) (*ReleaseInfo, error) {
	key := item.Key()
	if data, ok := c.releaseCache.Get(key); ok {
		var info ReleaseInfo
		if err := json.Unmarshal(data, &info); err == nil {
			c.debugf("[INSIGHTS] Release cache hit for %q", item.Title)
			return &info, nil
		}
	}

	text, err := c.generate(ctx, releasePrompt(item), "")
	if err != nil {
		return nil, fmt.Errorf("fetch release info for %q: %w", item.Title, err)
	}

	info := parseReleaseInfo(text)
	if data, err := json.Marshal(info); err == nil {
		if err := c.releaseCache.Put(key, data); err != nil {
			c.debugf("[INSIGHTS] Failed to cache release info: %v", err)
		}
	}
	return info, nil
}

// Recommendations returns similar-title suggestions for the entry. Cached
// responses are returned without a network call.
func (c *Client) Recommendations(ctx context.Context, item watchlist.Item) ([]Recommendation, error) {
	key := item.Key()
	if data, ok := c.recommendCache.Get(key); ok {
		var recs []Recommendation
		if err := json.Unmarshal(data, &recs); err == nil {
			c.debugf("[INSIGHTS] Recommendation cache hit for %q", item.Title)
			return recs, nil
		}
	}

	text, err := c.generate(ctx, recommendationPrompt(item), "application/json")
	if err != nil {
		return nil, fmt.Errorf("fetch recommendations for %q: %w", item.Title, err)
	}

	var recs []Recommendation
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &recs); err != nil {
		return nil, fmt.Errorf("decode recommendations for %q: %w", item.Title, err)
	}

	if data, err := json.Marshal(recs); err == nil {
		if err := c.recommendCache.Put(key, data); err != nil {
			c.debugf("[INSIGHTS] Failed to cache recommendations: %v", err)
		}
	}
	return recs, nil
}

func releasePrompt(item watchlist.Item) string {
	var context string
	if item.Type == watchlist.TypeMovies {
		context = fmt.Sprintf("The user has watched %q. The primary goal is to find information about the next sequential installment.", item.Title)
	} else {
		season, episode := "N/A", "N/A"
		if item.Season > 0 {
			season = fmt.Sprintf("%d", item.Season)
		}
		if item.Episode > 0 {
			episode = fmt.Sprintf("%d", item.Episode)
		}
		context = fmt.Sprintf("The user is watching %q and their last logged progress is Season %s, Episode %s. The goal is to find information about the next episode or season.", item.Title, season, episode)
	}
	return fmt.Sprintf(`You are a media release expert. Based on today's date, provide the release status for the next part of %q.
%s

Strictly format your response using the following key-value structure. Do not add any conversational text, markdown formatting, or explanations.
Name: [Name of the sequel/next part]
Status: [Released / Unreleased / No Sequel Planned]
Release Date: [Date if released, otherwise N/A]
Expected Date: [Date if unreleased, otherwise N/A]
Platform: [Streaming platform in India, otherwise N/A]`, item.Title, context)
}

func recommendationPrompt(item watchlist.Item) string {
	subType := "N/A"
	if item.SubType != "" {
		subType = string(item.SubType)
	}
	return fmt.Sprintf(`You are a movie and TV show recommendation expert with a focus on the Indian streaming market. Based on the following item, recommend 10 similar titles.

Title: %q
Sub-Type: %s

Return your response as a JSON array of objects with these keys: "title", "description" (one sentence), "genre", "sub_type", "cast" (2-3 names: characters for Anime, actors otherwise), "platform" (primary streaming platform in India), "dub" ("English, Hindi", "English", "Hindi" or "N/A"), "item_type" ("TV Series" or "Movie"), "count" (total seasons for a series, total parts for a movie franchise).`, item.Title, subType)
}

// parseReleaseInfo extracts the key-value lines of the structured response.
// Lines that do not match a known key are kept only in Raw.
func parseReleaseInfo(text string) *ReleaseInfo {
	info := &ReleaseInfo{Raw: strings.TrimSpace(text)}
	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			info.Name = value
		case "status":
			info.Status = value
		case "release date":
			info.ReleaseDate = value
		case "expected date":
			info.ExpectedDate = value
		case "platform":
			info.Platform = value
		}
	}
	return info
}

// === Wire types ===

type generateRequest struct {
	Contents         []content  `json:"contents"`
	GenerationConfig *genConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type genConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type candidate struct {
	Content content `json:"content"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

// generate runs one prompt with rate limiting and exponential-backoff
// retries, returning the first candidate's text.
func (c *Client) generate(ctx context.Context, prompt, responseMIME string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	if responseMIME != "" {
		reqBody.GenerationConfig = &genConfig{ResponseMIMEType: responseMIME}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)

	var text string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("generate: http %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("generate: http %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
		}

		var decoded generateResponse
		if err := json.Unmarshal(data, &decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
			return backoff.Permanent(fmt.Errorf("empty response"))
		}
		text = decoded.Candidates[0].Content.Parts[0].Text
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return text, nil
}
