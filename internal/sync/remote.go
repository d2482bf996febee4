package syncer

//go:generate mockgen -destination mock_remote_test.go -package syncer -source=remote.go

import (
	"context"

	"github.com/arjunkn/watchsync/internal/watchlist"
)

// RemoteStore abstracts the hosted datastore operations the engine needs.
// *remote.Client satisfies it; tests substitute a mock.
type RemoteStore interface {
	Insert(ctx context.Context, item watchlist.Item) (watchlist.Item, error)
	InsertMany(ctx context.Context, items []watchlist.Item) ([]watchlist.Item, error)
	Update(ctx context.Context, id string, updates watchlist.Update) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	SelectAll(ctx context.Context, ownerID string) ([]watchlist.Item, error)
}
