package syncer

import (
	"context"
	"fmt"

	"github.com/arjunkn/watchsync/internal/remote"
	"github.com/arjunkn/watchsync/internal/store"
)

// State is the reconciliation engine's current phase.
type State int

const (
	StateIdle State = iota
	StateDraining
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateDraining:
		return "DRAINING"
	case StateRefreshing:
		return "REFRESHING"
	default:
		return "IDLE"
	}
}

// State reports the engine's current reconciliation phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Syncing reports whether a reconciliation pass is in flight.
func (e *Engine) Syncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncing
}

// Sync runs one reconciliation pass: drain the queued actions in FIFO order
// against the remote store, then refresh the full collection. A pass already
// in flight, or being offline, makes it a no-op. On a transient remote error
// the drain halts with the unprocessed actions still queued; the next
// connectivity event or manual trigger retries.
func (e *Engine) Sync(ctx context.Context) error {
	e.mu.Lock()
	if e.syncing || !e.online {
		e.mu.Unlock()
		return nil
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.state = StateIdle
		e.mu.Unlock()
	}()

	drained, err := e.drain(ctx)
	if err != nil {
		e.notify("Failed to sync some changes. Will retry when possible.", true)
		return err
	}
	if drained > 0 {
		DPrintf("[SYNC] Drained %d queued actions", drained)
	}

	if err := e.refresh(ctx); err != nil {
		e.notify("Sync complete, but failed to fetch latest data.", true)
		return err
	}
	if drained > 0 {
		e.notify("Offline changes synced successfully!", false)
	}
	return nil
}

// drain applies queued actions oldest first, re-reading the queue from
// durable storage before each action so coalescing that happened after the
// pass started is still honored. Returns how many actions were applied.
func (e *Engine) drain(ctx context.Context) (int, error) {
	drained := 0
	for {
		actions, err := e.store.ListActions()
		if err != nil {
			return drained, fmt.Errorf("list queued actions: %w", err)
		}
		if len(actions) == 0 {
			return drained, nil
		}

		e.setState(StateDraining)
		action := actions[0]
		if err := e.applyAction(ctx, action); err != nil {
			return drained, fmt.Errorf("apply action %d (%s): %w", action.ID, action.Kind, err)
		}
		if err := e.store.RemoveAction(action.ID); err != nil {
			return drained, fmt.Errorf("remove drained action %d: %w", action.ID, err)
		}
		drained++
	}
}

// applyAction replays one queued action against the remote store. Idempotent
// replay errors count as success: a unique violation means the insert
// already landed, a not-found means the entry was deleted elsewhere.
func (e *Engine) applyAction(ctx context.Context, action store.Action) error {
	var err error
	switch action.Kind {
	case store.ActionAdd:
		_, err = e.remote.Insert(ctx, *action.Item)
		if remote.IsUniqueViolation(err) {
			DPrintf("[SYNC] ADD %s already applied, skipping", action.Item.ID)
			err = nil
		}
	case store.ActionAddMultiple:
		_, err = e.remote.InsertMany(ctx, action.Items)
		if remote.IsUniqueViolation(err) {
			DPrintf("[SYNC] ADD_MULTIPLE %d already applied, skipping", action.ID)
			err = nil
		}
	case store.ActionUpdate:
		err = e.remote.Update(ctx, action.TargetID, *action.Updates)
		if remote.IsNotFound(err) {
			DPrintf("[SYNC] UPDATE %s: entry deleted elsewhere, skipping", action.TargetID)
			err = nil
		}
	case store.ActionDelete:
		err = e.remote.Delete(ctx, action.TargetID)
		if remote.IsNotFound(err) {
			DPrintf("[SYNC] DELETE %s: entry already gone, skipping", action.TargetID)
			err = nil
		}
	case store.ActionDeleteMultiple:
		// Batch deletes skip missing rows on the server side already.
		err = e.remote.DeleteMany(ctx, action.TargetIDs)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
	return err
}

// refresh overwrites the in-memory collection and the local mirror with the
// remote truth.
func (e *Engine) refresh(ctx context.Context) error {
	e.setState(StateRefreshing)

	rows, err := e.remote.SelectAll(ctx, e.ownerID)
	if err != nil {
		return fmt.Errorf("fetch remote collection: %w", err)
	}

	e.mu.Lock()
	e.items = rows
	e.mu.Unlock()

	if err := e.store.SaveWatchlist(rows); err != nil {
		return fmt.Errorf("persist local mirror: %w", err)
	}
	return nil
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// isReplaySuccess reports whether a direct-write error is one of the
// idempotent-replay cases that should not roll back the optimistic change.
func isReplaySuccess(err error) bool {
	return remote.IsUniqueViolation(err) || remote.IsNotFound(err)
}
