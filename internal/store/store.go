// Package store is the durable local layer: a BoltDB-backed mirror of the
// last known watchlist, the ordered sync-action queue, and the insight
// response caches. Everything the app needs to come back up offline lives
// here.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/arjunkn/watchsync/internal/watchlist"
)

// Bucket names
var (
	bucketWatchlist      = []byte("watchlist")
	bucketSyncQueue      = []byte("sync_queue")
	bucketReleaseCache   = []byte("insight_release")
	bucketRecommendCache = []byte("insight_recommend")
	watchlistSnapshotKey = []byte("items")
)

// Store wraps a single BoltDB file. All methods are safe for concurrent use;
// BoltDB serializes writers internally.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the store at path and ensures all buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketWatchlist, bucketSyncQueue, bucketReleaseCache, bucketRecommendCache} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveWatchlist replaces the full local mirror with the given snapshot.
// The slice is stored as one value so the in-memory ordering survives a
// round trip.
func (s *Store) SaveWatchlist(items []watchlist.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal watchlist: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWatchlist).Put(watchlistSnapshotKey, data)
	})
}

// GetWatchlist returns the last saved mirror, or an empty slice if none was
// ever saved.
func (s *Store) GetWatchlist() ([]watchlist.Item, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketWatchlist).Get(watchlistSnapshotKey); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []watchlist.Item{}, nil
	}

	var items []watchlist.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal watchlist: %w", err)
	}
	return items, nil
}

// === Sync queue ===

// AppendAction assigns the next sequence id to the action and persists it.
// Sequence ids are strictly increasing, so cursor order is enqueue order.
func (s *Store) AppendAction(action Action) (Action, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSyncQueue)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		action.ID = seq
		data, err := json.Marshal(action)
		if err != nil {
			return err
		}
		return b.Put(itob(seq), data)
	})
	if err != nil {
		return Action{}, fmt.Errorf("append action: %w", err)
	}
	return action, nil
}

// UpdateAction rewrites an already-queued action in place (coalescing).
func (s *Store) UpdateAction(action Action) error {
	if action.ID == 0 {
		return fmt.Errorf("update action: action has no id")
	}
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSyncQueue).Put(itob(action.ID), data)
	})
}

// RemoveAction deletes a queued action. Removing an id that is not present
// is a no-op.
func (s *Store) RemoveAction(id uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSyncQueue).Delete(itob(id))
	})
}

// ListActions returns all queued actions in enqueue (FIFO) order.
func (s *Store) ListActions() ([]Action, error) {
	var actions []Action
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSyncQueue).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var action Action
			if err := json.Unmarshal(v, &action); err != nil {
				return fmt.Errorf("unmarshal action %d: %w", btoi(k), err)
			}
			actions = append(actions, action)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return actions, nil
}

// ClearActions drops the whole queue.
func (s *Store) ClearActions() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSyncQueue)
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// PendingIDs returns the sorted set of entry ids that have unacknowledged
// queued changes.
func (s *Store) PendingIDs() ([]string, error) {
	actions, err := s.ListActions()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, action := range actions {
		for _, id := range action.EntityIDs() {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// === Insight response caches ===

// ResponseCache is a small keyed byte cache backed by one bucket. The store
// exposes two of them, one per insight mode.
type ResponseCache struct {
	db     *bolt.DB
	bucket []byte
}

// ReleaseCache caches release-info insight responses.
func (s *Store) ReleaseCache() *ResponseCache {
	return &ResponseCache{db: s.db, bucket: bucketReleaseCache}
}

// RecommendationCache caches recommendation insight responses.
func (s *Store) RecommendationCache() *ResponseCache {
	return &ResponseCache{db: s.db, bucket: bucketRecommendCache}
}

func (c *ResponseCache) Get(key string) ([]byte, bool) {
	var data []byte
	c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(c.bucket).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	return data, data != nil
}

func (c *ResponseCache) Put(key string, data []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Put([]byte(key), data)
	})
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
