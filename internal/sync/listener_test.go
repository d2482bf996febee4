package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunkn/watchsync/internal/remote"
	"github.com/arjunkn/watchsync/internal/watchlist"
)

func TestHandleChangeInsert(t *testing.T) {
	engine, _, st := newTestEngine(t)
	seeded := seedItems(t, engine, st, "Existing")

	incoming := watchlist.New(testOwner, watchlist.NewItem{Title: "Pushed", Type: watchlist.TypeSeries})
	engine.HandleChange(remote.ChangeEvent{Type: remote.ChangeInsert, Record: &incoming})

	items := engine.Items()
	require.Len(t, items, 2)
	assert.Equal(t, incoming.ID, items[0].ID, "pushed inserts land at the head")
	assert.Equal(t, seeded[0].ID, items[1].ID)

	// The mirror tracks the feed.
	mirror, err := st.GetWatchlist()
	require.NoError(t, err)
	assert.Len(t, mirror, 2)
}

func TestHandleChangeInsertSkipsKnownID(t *testing.T) {
	engine, _, st := newTestEngine(t)
	seeded := seedItems(t, engine, st, "Existing")

	echo := seeded[0]
	engine.HandleChange(remote.ChangeEvent{Type: remote.ChangeInsert, Record: &echo})

	assert.Len(t, engine.Items(), 1, "echo of an own write must not duplicate the entry")
}

func TestHandleChangeUpdate(t *testing.T) {
	engine, _, st := newTestEngine(t)
	seeded := seedItems(t, engine, st, "Existing")

	changed := seeded[0]
	changed.Season = 4
	engine.HandleChange(remote.ChangeEvent{Type: remote.ChangeUpdate, Record: &changed})

	items := engine.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Season)
}

func TestHandleChangeUpdateUnknownIDIgnored(t *testing.T) {
	engine, _, st := newTestEngine(t)
	seedItems(t, engine, st, "Existing")

	ghost := watchlist.New(testOwner, watchlist.NewItem{Title: "Ghost", Type: watchlist.TypeSeries})
	engine.HandleChange(remote.ChangeEvent{Type: remote.ChangeUpdate, Record: &ghost})

	items := engine.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Existing", items[0].Title)
}

func TestHandleChangeDelete(t *testing.T) {
	engine, _, st := newTestEngine(t)
	seeded := seedItems(t, engine, st, "First", "Second")

	engine.HandleChange(remote.ChangeEvent{Type: remote.ChangeDelete, OldID: seeded[0].ID})

	items := engine.Items()
	require.Len(t, items, 1)
	assert.Equal(t, seeded[1].ID, items[0].ID)
}

func TestHandleChangeDroppedDuringSync(t *testing.T) {
	engine, _, st := newTestEngine(t)
	seedItems(t, engine, st, "Existing")

	engine.mu.Lock()
	engine.syncing = true
	engine.mu.Unlock()

	incoming := watchlist.New(testOwner, watchlist.NewItem{Title: "Raced", Type: watchlist.TypeSeries})
	engine.HandleChange(remote.ChangeEvent{Type: remote.ChangeInsert, Record: &incoming})
	engine.HandleChange(remote.ChangeEvent{Type: remote.ChangeDelete, OldID: engine.Items()[0].ID})

	assert.Len(t, engine.Items(), 1, "events during a sync pass are dropped, not applied")
}
