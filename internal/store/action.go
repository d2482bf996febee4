package store

import (
	"time"

	"github.com/arjunkn/watchsync/internal/watchlist"
)

// ActionKind discriminates the queued mutation variants.
type ActionKind string

const (
	ActionAdd            ActionKind = "ADD"
	ActionAddMultiple    ActionKind = "ADD_MULTIPLE"
	ActionUpdate         ActionKind = "UPDATE"
	ActionDelete         ActionKind = "DELETE"
	ActionDeleteMultiple ActionKind = "DELETE_MULTIPLE"
)

// Action is one not-yet-acknowledged mutation in the sync queue. It is a
// tagged variant: Kind selects which payload field is populated.
//
//	ADD             -> Item
//	ADD_MULTIPLE    -> Items
//	UPDATE          -> TargetID + Updates
//	DELETE          -> TargetID
//	DELETE_MULTIPLE -> TargetIDs
//
// ID is assigned by the store when the action is appended and defines the
// drain order.
type Action struct {
	ID         uint64     `json:"id"`
	Kind       ActionKind `json:"kind"`
	EnqueuedAt time.Time  `json:"enqueued_at"`

	Item      *watchlist.Item   `json:"item,omitempty"`
	Items     []watchlist.Item  `json:"items,omitempty"`
	TargetID  string            `json:"target_id,omitempty"`
	Updates   *watchlist.Update `json:"updates,omitempty"`
	TargetIDs []string          `json:"target_ids,omitempty"`
}

// AddAction queues an insert of a single item.
func AddAction(item watchlist.Item) Action {
	return Action{Kind: ActionAdd, EnqueuedAt: time.Now().UTC(), Item: &item}
}

// AddMultipleAction queues a batched insert.
func AddMultipleAction(items []watchlist.Item) Action {
	return Action{Kind: ActionAddMultiple, EnqueuedAt: time.Now().UTC(), Items: items}
}

// UpdateAction queues a partial update of one entry.
func UpdateAction(id string, updates watchlist.Update) Action {
	return Action{Kind: ActionUpdate, EnqueuedAt: time.Now().UTC(), TargetID: id, Updates: &updates}
}

// DeleteAction queues a single delete.
func DeleteAction(id string) Action {
	return Action{Kind: ActionDelete, EnqueuedAt: time.Now().UTC(), TargetID: id}
}

// DeleteMultipleAction queues a batched delete.
func DeleteMultipleAction(ids []string) Action {
	return Action{Kind: ActionDeleteMultiple, EnqueuedAt: time.Now().UTC(), TargetIDs: ids}
}

// EntityIDs returns every entry id this action touches.
func (a Action) EntityIDs() []string {
	switch a.Kind {
	case ActionAdd:
		if a.Item != nil {
			return []string{a.Item.ID}
		}
	case ActionAddMultiple:
		ids := make([]string, 0, len(a.Items))
		for _, item := range a.Items {
			ids = append(ids, item.ID)
		}
		return ids
	case ActionUpdate, ActionDelete:
		return []string{a.TargetID}
	case ActionDeleteMultiple:
		return a.TargetIDs
	}
	return nil
}

// References reports whether the action touches the given entry id.
func (a Action) References(id string) bool {
	for _, eid := range a.EntityIDs() {
		if eid == id {
			return true
		}
	}
	return false
}
