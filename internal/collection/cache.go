package collection

import (
	"context"
	"fmt"
	"sync"

	"github.com/zjrosen/splitdeck/internal/cachemanager"
	"github.com/zjrosen/splitdeck/internal/log"
)

// Entry is the optimistic cache value for one collection: the fetched
// item prefix, the server's version token and its reported total. Items
// may cover only the fetched prefix of a large collection; Total is the
// server total. Stale marks an entry whose rows are known to lag the
// server (a pending add), so reads should refetch when they can.
type Entry struct {
	Items        []Item
	VersionToken string
	Total        int
	Stale        bool
}

// Clone deep-copies the entry for snapshot and rollback purposes.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	items := make([]Item, len(e.Items))
	copy(items, e.Items)
	return &Entry{Items: items, VersionToken: e.VersionToken, Total: e.Total, Stale: e.Stale}
}

// Cache holds per-collection entries and tracks in-flight refetches so a
// mutation can cancel the fetch of the collection it is about to splice.
// Entries for different collections never block one another.
type Cache struct {
	svc     Service
	entries cachemanager.CacheManager[string, *Entry]

	mu       sync.Mutex
	inflight map[string]*inflightFetch
}

type inflightFetch struct {
	cancel context.CancelFunc
}

// NewCache creates a cache over the given service.
func NewCache(svc Service) *Cache {
	return &Cache{
		svc: svc,
		entries: cachemanager.NewInMemoryCacheManager[string, *Entry](
			"collections", cachemanager.NoExpiration, cachemanager.DefaultCleanupInterval),
		inflight: make(map[string]*inflightFetch),
	}
}

// Get returns the cached entry for a collection, if any.
func (c *Cache) Get(collectionID string) (*Entry, bool) {
	return c.entries.Get(context.Background(), collectionID)
}

// Set stores an entry for a collection.
func (c *Cache) Set(collectionID string, entry *Entry) {
	c.entries.Set(context.Background(), collectionID, entry, cachemanager.NoExpiration)
}

// Invalidate drops the cached entry so the next Ensure refetches.
func (c *Cache) Invalidate(collectionID string) {
	_ = c.entries.Delete(context.Background(), collectionID)
}

// MarkStale flags the entry as lagging the server without dropping its
// rows, so panels keep rendering while a refetch is pending.
func (c *Cache) MarkStale(collectionID string) {
	if entry, ok := c.Get(collectionID); ok {
		clone := entry.Clone()
		clone.Stale = true
		c.Set(collectionID, clone)
	}
}

// CancelInflight aborts any in-flight refetch for the collection. Called
// from a mutation's onMutate step so an overlapping fetch cannot clobber
// the optimistic splice.
func (c *Cache) CancelInflight(collectionID string) {
	c.mu.Lock()
	fetch, ok := c.inflight[collectionID]
	if ok {
		delete(c.inflight, collectionID)
	}
	c.mu.Unlock()
	if ok {
		log.Debug(log.CatCache, "cancelled in-flight refetch", "collection", collectionID)
		fetch.cancel()
	}
}

// Ensure returns the cached entry, fetching it when missing or stale.
func (c *Cache) Ensure(ctx context.Context, collectionID string) (*Entry, error) {
	if entry, ok := c.Get(collectionID); ok && !entry.Stale {
		return entry, nil
	}
	return c.Refetch(ctx, collectionID)
}

// Refetch loads every page of the collection from the service and
// replaces the cached entry. The fetch is registered as in-flight and is
// aborted by CancelInflight.
func (c *Cache) Refetch(ctx context.Context, collectionID string) (*Entry, error) {
	fetchCtx, cancel := context.WithCancel(ctx)
	fetch := &inflightFetch{cancel: cancel}
	c.mu.Lock()
	if prev, ok := c.inflight[collectionID]; ok {
		prev.cancel()
	}
	c.inflight[collectionID] = fetch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if current, ok := c.inflight[collectionID]; ok && current == fetch {
			delete(c.inflight, collectionID)
		}
		c.mu.Unlock()
		cancel()
	}()

	entry := &Entry{}
	cursor := ""
	for {
		page, err := c.svc.FetchPage(fetchCtx, collectionID, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetching collection %s: %w", collectionID, err)
		}
		entry.Items = append(entry.Items, page.Items...)
		entry.VersionToken = page.VersionToken
		entry.Total = page.Total
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	c.Set(collectionID, entry)
	log.Debug(log.CatCache, "collection refetched", "collection", collectionID, "items", len(entry.Items))
	return entry, nil
}

// Rows returns the cached items as rows carrying their global positions.
// Missing entries yield no rows.
func (c *Cache) Rows(collectionID string) []Row {
	entry, ok := c.Get(collectionID)
	if !ok {
		return nil
	}
	rows := make([]Row, len(entry.Items))
	for i, item := range entry.Items {
		rows[i] = Row{Item: item, Position: i}
	}
	return rows
}
