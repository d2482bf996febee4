package syncer

import (
	"github.com/arjunkn/watchsync/internal/remote"
	"github.com/arjunkn/watchsync/internal/watchlist"
)

// HandleChange folds one externally-originated change-feed event into the
// in-memory collection and the local mirror. Events arriving while a
// reconciliation pass is in flight are dropped: the refresh at the end of
// the pass already reflects them, and applying both would race.
func (e *Engine) HandleChange(event remote.ChangeEvent) {
	e.mu.Lock()

	if e.syncing {
		e.mu.Unlock()
		DPrintf("[REALTIME] Dropping %s event during sync", event.Type)
		return
	}

	switch event.Type {
	case remote.ChangeInsert:
		if event.Record == nil {
			e.mu.Unlock()
			return
		}
		// The engine's own direct writes echo back over the feed; keep
		// the event handler idempotent by skipping known ids.
		if indexByID(e.items, event.Record.ID) >= 0 {
			e.mu.Unlock()
			return
		}
		e.items = append([]watchlist.Item{*event.Record}, e.items...)
	case remote.ChangeUpdate:
		if event.Record == nil {
			e.mu.Unlock()
			return
		}
		idx := indexByID(e.items, event.Record.ID)
		if idx < 0 {
			e.mu.Unlock()
			return
		}
		e.items[idx] = *event.Record
	case remote.ChangeDelete:
		if event.OldID == "" {
			e.mu.Unlock()
			return
		}
		idx := indexByID(e.items, event.OldID)
		if idx < 0 {
			e.mu.Unlock()
			return
		}
		e.items = append(e.items[:idx], e.items[idx+1:]...)
	default:
		e.mu.Unlock()
		DPrintf("[REALTIME] Ignoring unknown event type %q", event.Type)
		return
	}

	snapshot := make([]watchlist.Item, len(e.items))
	copy(snapshot, e.items)
	e.mu.Unlock()

	if err := e.store.SaveWatchlist(snapshot); err != nil {
		DPrintf("[REALTIME] Failed to persist mirror after %s: %v", event.Type, err)
	}
}
