package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coder/websocket"

	"github.com/arjunkn/watchsync/internal/watchlist"
)

// ChangeType identifies a remote mutation pushed over the change feed.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent is one externally-originated mutation of the owner's
// collection, as delivered by the realtime feed. Record carries the new row
// for inserts/updates; OldID carries the removed row's id for deletes.
type ChangeEvent struct {
	Type   ChangeType      `json:"type"`
	Record *watchlist.Item `json:"record,omitempty"`
	OldID  string          `json:"old_id,omitempty"`
}

// subscribeMessage opens a scoped subscription after the socket connects.
type subscribeMessage struct {
	Topic string `json:"topic"`
}

// Listener consumes the websocket change feed for one owner's collection.
type Listener struct {
	url    string
	apiKey string
	debugf Logf
}

// NewListener builds a change-feed listener for the given websocket URL.
func NewListener(wsURL, apiKey string, debugf Logf) *Listener {
	return &Listener{url: wsURL, apiKey: apiKey, debugf: debugf}
}

// Listen connects, subscribes to the owner's topic, and calls handler for
// every decoded event in delivery order. It blocks until the context is
// cancelled or the connection drops, returning the terminating error (nil
// on context cancellation).
func (l *Listener) Listen(ctx context.Context, ownerID string, handler func(ChangeEvent)) error {
	header := http.Header{}
	if l.apiKey != "" {
		header.Set("apikey", l.apiKey)
	}

	conn, _, err := websocket.Dial(ctx, l.url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("dial change feed: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	sub, err := json.Marshal(subscribeMessage{Topic: "watchlist:" + ownerID})
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read change feed: %w", err)
		}

		var event ChangeEvent
		if err := json.Unmarshal(data, &event); err != nil {
			if l.debugf != nil {
				l.debugf("[REALTIME] Dropping malformed event: %v", err)
			}
			continue
		}
		if event.Type == "" {
			// Heartbeats and subscription acks carry no type.
			continue
		}
		handler(event)
	}
}
