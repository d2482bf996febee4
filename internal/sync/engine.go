// Package syncer is the offline-first core: it owns the in-memory watchlist,
// translates user intents into direct remote writes (online) or durable
// queued actions (offline), reconciles the queue against the remote store,
// and merges live remote changes.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/arjunkn/watchsync/internal/store"
	"github.com/arjunkn/watchsync/internal/watchlist"
)

// Verbose enables debug logging for the engine.
var Verbose = false

func DPrintf(format string, v ...any) {
	if !Verbose {
		return
	}
	log.Printf(format, v...)
}

var (
	// ErrEmptyTitle rejects a mutation before any state change.
	ErrEmptyTitle = errors.New("title must not be empty")
	// ErrDuplicateItem rejects an add whose (title, type) already exists.
	ErrDuplicateItem = errors.New("item already in watchlist")
	// ErrNotFound means the target entry is not in the collection.
	ErrNotFound = errors.New("item not found")
)

// NotifyFunc receives user-visible status messages. isError marks failures.
type NotifyFunc func(message string, isError bool)

// Engine serializes every mutating handler behind one mutex, the Go shape of
// the single-threaded cooperative model: user intents hold the lock for
// their whole read-modify-write (remote call included), a reconciliation
// pass holds it only to toggle its guard and to apply the refresh.
type Engine struct {
	mu      sync.Mutex
	store   *store.Store
	remote  RemoteStore
	ownerID string
	notify  NotifyFunc

	items   []watchlist.Item
	online  bool
	syncing bool
	state   State
}

// NewEngine wires the engine. A nil notify falls back to log output.
func NewEngine(st *store.Store, remote RemoteStore, ownerID string, notify NotifyFunc) *Engine {
	if notify == nil {
		notify = func(message string, isError bool) {
			if isError {
				log.Printf("[SYNC] Error: %s", message)
				return
			}
			log.Printf("[SYNC] %s", message)
		}
	}
	return &Engine{
		store:   st,
		remote:  remote,
		ownerID: ownerID,
		notify:  notify,
	}
}

// Load seeds the in-memory collection from the local mirror. Call once at
// startup, before the first Sync.
func (e *Engine) Load() error {
	items, err := e.store.GetWatchlist()
	if err != nil {
		return fmt.Errorf("load local mirror: %w", err)
	}
	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
	return nil
}

// Items returns a copy of the current in-memory collection, head first.
func (e *Engine) Items() []watchlist.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]watchlist.Item, len(e.items))
	copy(out, e.items)
	return out
}

// Online reports the current connectivity flag.
func (e *Engine) Online() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.online
}

// SetOnline records a connectivity transition. Coming back online triggers a
// reconciliation pass.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	e.mu.Lock()
	was := e.online
	e.online = online
	e.mu.Unlock()

	if online && !was {
		e.notify("You are back online.", false)
		if err := e.Sync(ctx); err != nil {
			DPrintf("[SYNC] Sync after reconnect failed: %v", err)
		}
	}
	if !online && was {
		e.notify("You are offline. Changes will be saved locally.", false)
	}
}

// PendingSyncIDs returns the ids of entries with unacknowledged queued
// changes, recomputed from durable storage.
func (e *Engine) PendingSyncIDs() ([]string, error) {
	return e.store.PendingIDs()
}

// AddItem validates and applies a single add: optimistic in-memory prepend,
// then either a direct remote insert or a durable queued ADD. Returns the
// new entry's id.
func (e *Engine) AddItem(ctx context.Context, draft watchlist.NewItem) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if strings.TrimSpace(draft.Title) == "" {
		return "", ErrEmptyTitle
	}
	key := watchlist.Key(draft.Title, draft.Type)
	for _, item := range e.items {
		if item.Key() == key {
			return "", ErrDuplicateItem
		}
	}

	item := watchlist.New(e.ownerID, draft)
	e.items = append([]watchlist.Item{item}, e.items...)

	if !e.online {
		if err := e.persistQueuedAdd(store.AddAction(item)); err != nil {
			return "", err
		}
		e.notify("Item saved locally. Will sync when online.", false)
		return item.ID, nil
	}

	row, err := e.remote.Insert(ctx, item)
	if err != nil {
		e.items = removeByID(e.items, item.ID)
		e.notify("Failed to add item.", true)
		return "", fmt.Errorf("add item: %w", err)
	}
	e.replaceItem(row.ID, row)
	e.notify("Item added successfully!", false)
	return row.ID, nil
}

// AddMultipleItems applies a batched add. Entries are prepended in order, so
// the last one ends up at the head, exactly as repeated single adds would.
func (e *Engine) AddMultipleItems(ctx context.Context, drafts []watchlist.NewItem) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(drafts) == 0 {
		return nil, nil
	}

	items := make([]watchlist.Item, 0, len(drafts))
	ids := make([]string, 0, len(drafts))
	for _, draft := range drafts {
		if strings.TrimSpace(draft.Title) == "" {
			return nil, ErrEmptyTitle
		}
		item := watchlist.New(e.ownerID, draft)
		items = append(items, item)
		ids = append(ids, item.ID)
	}

	reversed := make([]watchlist.Item, len(items))
	for i, item := range items {
		reversed[len(items)-1-i] = item
	}
	e.items = append(reversed, e.items...)

	if !e.online {
		if err := e.persistQueuedAdd(store.AddMultipleAction(items)); err != nil {
			return nil, err
		}
		e.notify(fmt.Sprintf("%d items saved locally. Will sync when online.", len(items)), false)
		return ids, nil
	}

	rows, err := e.remote.InsertMany(ctx, items)
	if err != nil {
		for _, id := range ids {
			e.items = removeByID(e.items, id)
		}
		e.notify("Failed to add some items.", true)
		return nil, fmt.Errorf("add items: %w", err)
	}

	// Swap the optimistic entries for the server's canonical rows, keeping
	// them at the head so the current view ordering is preserved.
	remaining := e.items[:0:0]
	for _, item := range e.items {
		if !containsID(ids, item.ID) {
			remaining = append(remaining, item)
		}
	}
	e.items = append(rows, remaining...)
	e.notify(fmt.Sprintf("%d items added successfully.", len(rows)), false)
	return ids, nil
}

// UpdateItem merges a partial update into the entry, then either writes it
// through or coalesces it into the queue.
func (e *Engine) UpdateItem(ctx context.Context, id string, updates watchlist.Update) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if updates.Title != nil {
		if strings.TrimSpace(*updates.Title) == "" {
			return ErrEmptyTitle
		}
		formatted := watchlist.FormatTitle(*updates.Title)
		updates.Title = &formatted
	}

	idx := indexByID(e.items, id)
	if idx < 0 {
		return ErrNotFound
	}
	original := e.items[idx]

	updated := original
	updates.Apply(&updated)
	updated.UpdatedAt = time.Now().UTC()
	e.items[idx] = updated

	if !e.online {
		if err := e.store.SaveWatchlist(e.items); err != nil {
			return fmt.Errorf("persist local mirror: %w", err)
		}
		if err := e.coalesceUpdate(id, updates); err != nil {
			return err
		}
		e.notify("Changes saved locally. Will sync when online.", false)
		return nil
	}

	if err := e.remote.Update(ctx, id, updates); err != nil && !isReplaySuccess(err) {
		e.items[idx] = original
		e.notify("Failed to update item.", true)
		return fmt.Errorf("update item %s: %w", id, err)
	}
	e.notify("Item updated!", false)
	return nil
}

// DeleteItem removes the entry, then either deletes it remotely or folds the
// delete into the queue.
func (e *Engine) DeleteItem(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := indexByID(e.items, id)
	if idx < 0 {
		return ErrNotFound
	}
	removed := e.items[idx]
	e.items = append(e.items[:idx:idx], e.items[idx+1:]...)

	if !e.online {
		if err := e.store.SaveWatchlist(e.items); err != nil {
			return fmt.Errorf("persist local mirror: %w", err)
		}
		if err := e.coalesceDelete(id); err != nil {
			return err
		}
		e.notify("Item removed locally. Will sync when online.", false)
		return nil
	}

	if err := e.remote.Delete(ctx, id); err != nil && !isReplaySuccess(err) {
		rest := append(e.items[:idx:idx], removed)
		e.items = append(rest, e.items[idx:]...)
		e.notify("Failed to delete item.", true)
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	e.notify("Item deleted.", false)
	return nil
}

// DeleteMultipleItems removes a set of entries. Offline this queues one
// DELETE_MULTIPLE action; it does not coalesce against per-id actions.
func (e *Engine) DeleteMultipleItems(ctx context.Context, ids []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	original := make([]watchlist.Item, len(e.items))
	copy(original, e.items)

	kept := e.items[:0:0]
	for _, item := range e.items {
		if !containsID(ids, item.ID) {
			kept = append(kept, item)
		}
	}
	e.items = kept

	if !e.online {
		if err := e.store.SaveWatchlist(e.items); err != nil {
			return fmt.Errorf("persist local mirror: %w", err)
		}
		if _, err := e.store.AppendAction(store.DeleteMultipleAction(ids)); err != nil {
			return err
		}
		e.notify(fmt.Sprintf("%d items removed locally. Will sync when online.", len(ids)), false)
		return nil
	}

	if err := e.remote.DeleteMany(ctx, ids); err != nil {
		e.items = original
		e.notify("Failed to delete items.", true)
		return fmt.Errorf("delete items: %w", err)
	}
	e.notify(fmt.Sprintf("%d items deleted.", len(ids)), false)
	return nil
}

// persistQueuedAdd saves the mirror snapshot and appends a queued add.
// Callers hold the lock.
func (e *Engine) persistQueuedAdd(action store.Action) error {
	if err := e.store.SaveWatchlist(e.items); err != nil {
		return fmt.Errorf("persist local mirror: %w", err)
	}
	if _, err := e.store.AppendAction(action); err != nil {
		return err
	}
	return nil
}

// coalesceUpdate folds a partial update into the queue so the queue stays
// minimal: an update of a not-yet-inserted entry merges into its queued ADD
// (the remote must never see an UPDATE for a row it does not know), a second
// update merges last-write-wins into the queued UPDATE, and only otherwise
// is a new UPDATE appended.
func (e *Engine) coalesceUpdate(id string, updates watchlist.Update) error {
	actions, err := e.store.ListActions()
	if err != nil {
		return err
	}

	for _, action := range actions {
		switch action.Kind {
		case store.ActionAdd:
			if action.Item != nil && action.Item.ID == id {
				updates.Apply(action.Item)
				action.Item.UpdatedAt = time.Now().UTC()
				DPrintf("[QUEUE] Merged update for %s into queued ADD %d", id, action.ID)
				return e.store.UpdateAction(action)
			}
		case store.ActionAddMultiple:
			for i := range action.Items {
				if action.Items[i].ID == id {
					updates.Apply(&action.Items[i])
					action.Items[i].UpdatedAt = time.Now().UTC()
					DPrintf("[QUEUE] Merged update for %s into queued ADD_MULTIPLE %d", id, action.ID)
					return e.store.UpdateAction(action)
				}
			}
		case store.ActionUpdate:
			if action.TargetID == id {
				merged := action.Updates.Merge(updates)
				action.Updates = &merged
				DPrintf("[QUEUE] Merged update for %s into queued UPDATE %d", id, action.ID)
				return e.store.UpdateAction(action)
			}
		}
	}

	_, err = e.store.AppendAction(store.UpdateAction(id, updates))
	return err
}

// coalesceDelete folds a delete into the queue: a queued ADD for the id is
// simply dropped (the remote never hears about the entry), a queued
// ADD_MULTIPLE has the id stripped, and otherwise any queued UPDATE is
// dropped and a DELETE is appended at most once.
func (e *Engine) coalesceDelete(id string) error {
	actions, err := e.store.ListActions()
	if err != nil {
		return err
	}

	for _, action := range actions {
		switch action.Kind {
		case store.ActionAdd:
			if action.Item != nil && action.Item.ID == id {
				DPrintf("[QUEUE] Dropping queued ADD %d for deleted %s", action.ID, id)
				return e.store.RemoveAction(action.ID)
			}
		case store.ActionAddMultiple:
			if !action.References(id) {
				continue
			}
			kept := action.Items[:0:0]
			for _, item := range action.Items {
				if item.ID != id {
					kept = append(kept, item)
				}
			}
			if len(kept) == 0 {
				DPrintf("[QUEUE] Dropping emptied ADD_MULTIPLE %d", action.ID)
				return e.store.RemoveAction(action.ID)
			}
			action.Items = kept
			DPrintf("[QUEUE] Stripped %s from queued ADD_MULTIPLE %d", id, action.ID)
			return e.store.UpdateAction(action)
		}
	}

	hasDelete := false
	for _, action := range actions {
		switch action.Kind {
		case store.ActionUpdate:
			if action.TargetID == id {
				if err := e.store.RemoveAction(action.ID); err != nil {
					return err
				}
			}
		case store.ActionDelete:
			if action.TargetID == id {
				hasDelete = true
			}
		}
	}
	if hasDelete {
		return nil
	}
	_, err = e.store.AppendAction(store.DeleteAction(id))
	return err
}

// replaceItem swaps the entry with the given id for the server's canonical
// row. Callers hold the lock.
func (e *Engine) replaceItem(id string, row watchlist.Item) {
	if idx := indexByID(e.items, id); idx >= 0 {
		e.items[idx] = row
	}
}

func indexByID(items []watchlist.Item, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func removeByID(items []watchlist.Item, id string) []watchlist.Item {
	if idx := indexByID(items, id); idx >= 0 {
		return append(items[:idx:idx], items[idx+1:]...)
	}
	return items
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
