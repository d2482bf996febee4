// Package remote talks to the hosted datastore: a PostgREST-style CRUD
// surface over the owner's watchlist table plus a websocket change feed.
// The sync engine only sees the Insert/Update/Delete/SelectAll contract and
// the two replay error codes.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/arjunkn/watchsync/internal/watchlist"
)

const (
	defaultCollection = "watchlist"
	restPath          = "/rest/v1/"

	// preferRepresentation asks the datastore to echo affected rows back.
	preferRepresentation = "return=representation"
	// acceptSingleObject makes the datastore require exactly one affected
	// row, surfacing CodeNotFound when an update/delete matches nothing.
	acceptSingleObject = "application/vnd.pgrst.object+json"
)

// Config collects everything needed to build a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Collection string
	Timeout    time.Duration
	MaxRetries int
	Debugf     Logf
}

// Client is the HTTP client for the remote watchlist collection.
type Client struct {
	baseURL    string
	collection string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Client with a retrying, logging transport and bearer
// auth via a static oauth2 token source.
func NewClient(ctx context.Context, cfg Config) *Client {
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}

	transport := NewLoggingTransport(NewRetryableTransport(nil, cfg.MaxRetries, cfg.Debugf), cfg.Debugf)

	base := &http.Client{Transport: transport}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})

	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = cfg.Timeout

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		collection: cfg.Collection,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// insertRecord is the insert wire shape: an Item without timestamps, which
// the server fills in.
type insertRecord struct {
	ID          string                `json:"id"`
	OwnerID     string                `json:"user_id"`
	Title       string                `json:"title"`
	Type        watchlist.ItemType    `json:"type"`
	SubType     watchlist.SubType     `json:"sub_type,omitempty"`
	Status      watchlist.Status      `json:"status"`
	Season      int                   `json:"season,omitempty"`
	Episode     int                   `json:"episode,omitempty"`
	Part        int                   `json:"part,omitempty"`
	Language    watchlist.Language    `json:"language,omitempty"`
	ReleaseType watchlist.ReleaseType `json:"release_type,omitempty"`
	Favorite    bool                  `json:"favorite"`
}

func newInsertRecord(item watchlist.Item) insertRecord {
	return insertRecord{
		ID:          item.ID,
		OwnerID:     item.OwnerID,
		Title:       item.Title,
		Type:        item.Type,
		SubType:     item.SubType,
		Status:      item.Status,
		Season:      item.Season,
		Episode:     item.Episode,
		Part:        item.Part,
		Language:    item.Language,
		ReleaseType: item.ReleaseType,
		Favorite:    item.Favorite,
	}
}

// Insert creates one row and returns the server's canonical record.
func (c *Client) Insert(ctx context.Context, item watchlist.Item) (watchlist.Item, error) {
	header := http.Header{"Prefer": []string{preferRepresentation}}
	data, err := c.do(ctx, http.MethodPost, c.tableURL(nil), []insertRecord{newInsertRecord(item)}, header)
	if err != nil {
		return watchlist.Item{}, err
	}

	var rows []watchlist.Item
	if err := json.Unmarshal(data, &rows); err != nil {
		return watchlist.Item{}, fmt.Errorf("decode insert response: %w", err)
	}
	if len(rows) == 0 {
		return watchlist.Item{}, fmt.Errorf("insert returned no rows")
	}
	return rows[0], nil
}

// InsertMany creates a batch of rows and returns the canonical records.
func (c *Client) InsertMany(ctx context.Context, items []watchlist.Item) ([]watchlist.Item, error) {
	records := make([]insertRecord, 0, len(items))
	for _, item := range items {
		records = append(records, newInsertRecord(item))
	}

	header := http.Header{"Prefer": []string{preferRepresentation}}
	data, err := c.do(ctx, http.MethodPost, c.tableURL(nil), records, header)
	if err != nil {
		return nil, err
	}

	var rows []watchlist.Item
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode insert response: %w", err)
	}
	return rows, nil
}

// Update patches one row by id. A missing row surfaces as CodeNotFound.
func (c *Client) Update(ctx context.Context, id string, updates watchlist.Update) error {
	q := url.Values{"id": {"eq." + id}}
	header := http.Header{
		"Prefer": []string{preferRepresentation},
		"Accept": []string{acceptSingleObject},
	}
	_, err := c.do(ctx, http.MethodPatch, c.tableURL(q), updates, header)
	return err
}

// Delete removes one row by id. A missing row surfaces as CodeNotFound.
func (c *Client) Delete(ctx context.Context, id string) error {
	q := url.Values{"id": {"eq." + id}}
	header := http.Header{
		"Prefer": []string{preferRepresentation},
		"Accept": []string{acceptSingleObject},
	}
	_, err := c.do(ctx, http.MethodDelete, c.tableURL(q), nil, header)
	return err
}

// DeleteMany removes a set of rows by id. Ids with no matching row are
// silently skipped, matching the batch-delete semantics of the datastore.
func (c *Client) DeleteMany(ctx context.Context, ids []string) error {
	q := url.Values{"id": {"in.(" + strings.Join(ids, ",") + ")"}}
	_, err := c.do(ctx, http.MethodDelete, c.tableURL(q), nil, nil)
	return err
}

// SelectAll fetches the owner's full collection, newest first.
func (c *Client) SelectAll(ctx context.Context, ownerID string) ([]watchlist.Item, error) {
	q := url.Values{
		"user_id": {"eq." + ownerID},
		"order":   {"created_at.desc"},
		"select":  {"*"},
	}
	data, err := c.do(ctx, http.MethodGet, c.tableURL(q), nil, nil)
	if err != nil {
		return nil, err
	}

	var rows []watchlist.Item
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode select response: %w", err)
	}
	return rows, nil
}

// Ping probes the datastore. Used as the connectivity signal.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodHead, c.baseURL+restPath, nil, nil)
	return err
}

func (c *Client) tableURL(q url.Values) string {
	u := c.baseURL + restPath + c.collection
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any, header http.Header) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		req.Header[k] = vs
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, data)
	}
	return data, nil
}

// parseError maps an error response to *Error. The structured body wins;
// otherwise the HTTP status picks the code.
func parseError(status int, body []byte) *Error {
	re := &Error{Status: status}
	if err := json.Unmarshal(body, re); err != nil || re.Code == "" {
		switch status {
		case http.StatusConflict:
			re.Code = CodeUniqueViolation
		case http.StatusNotFound, http.StatusNotAcceptable:
			re.Code = CodeNotFound
		}
		if re.Message == "" {
			re.Message = strings.TrimSpace(string(body))
		}
	}
	return re
}
