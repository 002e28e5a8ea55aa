package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/splitdeck/internal/cachemanager"
	"github.com/zjrosen/splitdeck/internal/log"
	"github.com/zjrosen/splitdeck/internal/pubsub"
)

const editableTTL = 10 * time.Minute

// Pipeline wraps the three remote mutations in optimistic updates: the
// local cache is spliced before the network call, refreshed or kept on
// success, and restored verbatim from a snapshot on failure. Every
// settled mutation broadcasts a ChangeEvent so other panels bound to the
// same collection can refresh.
//
// The pipeline never retries; retry/backoff is a transport concern. It
// also does not serialize successive mutations on one collection -
// callers performing index-dependent sequences must await each call
// before issuing the next.
type Pipeline struct {
	svc      Service
	cache    *Cache
	broker   *pubsub.Broker[ChangeEvent]
	editable *cachemanager.ReadThroughCache[string, bool, string]
}

// NewPipeline creates a pipeline over the service and cache.
func NewPipeline(svc Service, cache *Cache) *Pipeline {
	return &Pipeline{
		svc:    svc,
		cache:  cache,
		broker: pubsub.NewBroker[ChangeEvent](),
		editable: cachemanager.NewReadThroughCache[string, bool, string](
			cachemanager.NewInMemoryCacheManager[string, bool](
				"editable", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
			svc.CheckEditable,
			false,
		),
	}
}

// Broker exposes the change-event broker for subscribers.
func (p *Pipeline) Broker() *pubsub.Broker[ChangeEvent] {
	return p.broker
}

// Cache exposes the optimistic cache backing the pipeline.
func (p *Pipeline) Cache() *Cache {
	return p.cache
}

// Editable reports whether the collection accepts mutations, via a
// read-through cache over the remote permission check.
func (p *Pipeline) Editable(ctx context.Context, collectionID string) (bool, error) {
	return p.editable.Get(ctx, collectionID, collectionID, editableTTL)
}

func (p *Pipeline) emit(collectionID string, cause Cause) {
	p.broker.Publish(cause.EventType(), ChangeEvent{CollectionID: collectionID, Cause: cause})
}

// Add inserts items at position (AppendPosition for the end). The add
// cannot be fully optimistic - a bare item id carries no metadata to
// splice in - so the cache is only marked stale and the change event is
// emitted immediately to announce the pending refresh.
func (p *Pipeline) Add(ctx context.Context, collectionID string, itemIDs []string, position int) error {
	if len(itemIDs) == 0 {
		return nil
	}

	// onMutate
	p.cache.CancelInflight(collectionID)
	snapshot, hadEntry := p.snapshot(collectionID)
	p.cache.MarkStale(collectionID)
	p.emit(collectionID, CauseAdd)

	token, err := p.svc.AddItems(ctx, collectionID, itemIDs, position)
	if err != nil {
		// onError
		p.rollback(collectionID, snapshot, hadEntry)
		log.ErrorErr(log.CatMutation, "add failed, cache restored", err,
			"collection", collectionID, "items", len(itemIDs))
		return fmt.Errorf("adding %d items to %s: %w", len(itemIDs), collectionID, err)
	}

	// onSuccess: local data was incomplete, refetch is mandatory.
	p.cache.Invalidate(collectionID)
	if _, err := p.cache.Refetch(ctx, collectionID); err != nil {
		log.Warn(log.CatMutation, "refetch after add failed", "collection", collectionID, "error", err)
	}
	log.Info(log.CatMutation, "items added", "collection", collectionID, "count", len(itemIDs), "token", token)
	p.emit(collectionID, CauseAdd)
	return nil
}

// Remove deletes the referenced item instances. The cache splice is kept
// on success; only the version token is refreshed.
func (p *Pipeline) Remove(ctx context.Context, collectionID string, refs []ItemRef) error {
	if len(refs) == 0 {
		return nil
	}

	// onMutate
	p.cache.CancelInflight(collectionID)
	snapshot, hadEntry := p.snapshot(collectionID)
	if hadEntry {
		entry := snapshot.Clone()
		entry.Items = spliceRemove(entry.Items, refs)
		entry.Total -= len(snapshot.Items) - len(entry.Items)
		p.cache.Set(collectionID, entry)
	}

	token, err := p.svc.RemoveItems(ctx, collectionID, refs)
	if err != nil {
		// onError
		p.rollback(collectionID, snapshot, hadEntry)
		log.ErrorErr(log.CatMutation, "remove failed, cache restored", err, "collection", collectionID)
		return fmt.Errorf("removing items from %s: %w", collectionID, err)
	}

	// onSuccess: keep the optimistic splice, refresh the token.
	if entry, ok := p.cache.Get(collectionID); ok {
		clone := entry.Clone()
		clone.VersionToken = token
		p.cache.Set(collectionID, clone)
	}
	log.Info(log.CatMutation, "items removed", "collection", collectionID, "refs", len(refs), "token", token)
	p.emit(collectionID, CauseRemove)
	return nil
}

// Reorder relocates the contiguous range [fromIndex, fromIndex+rangeLength)
// to toIndex. The server-assigned final ordering is authoritative -
// duplicates make position-based optimism unreliable long-term - so a
// full refetch follows success.
func (p *Pipeline) Reorder(ctx context.Context, collectionID string, fromIndex, toIndex, rangeLength int) error {
	if rangeLength <= 0 {
		return nil
	}

	// onMutate
	p.cache.CancelInflight(collectionID)
	snapshot, hadEntry := p.snapshot(collectionID)
	versionToken := ""
	if hadEntry {
		versionToken = snapshot.VersionToken
		entry := snapshot.Clone()
		entry.Items = spliceReorder(entry.Items, fromIndex, toIndex, rangeLength)
		p.cache.Set(collectionID, entry)
	}

	token, err := p.svc.Reorder(ctx, collectionID, fromIndex, toIndex, rangeLength, versionToken)
	if err != nil {
		// onError
		p.rollback(collectionID, snapshot, hadEntry)
		log.ErrorErr(log.CatMutation, "reorder failed, cache restored", err,
			"collection", collectionID, "from", fromIndex, "to", toIndex, "len", rangeLength)
		return fmt.Errorf("reordering %s: %w", collectionID, err)
	}

	// onSuccess
	if _, err := p.cache.Refetch(ctx, collectionID); err != nil {
		log.Warn(log.CatMutation, "refetch after reorder failed", "collection", collectionID, "error", err)
	}
	log.Info(log.CatMutation, "items reordered", "collection", collectionID,
		"from", fromIndex, "to", toIndex, "len", rangeLength, "token", token)
	p.emit(collectionID, CauseReorder)
	return nil
}

func (p *Pipeline) snapshot(collectionID string) (*Entry, bool) {
	entry, ok := p.cache.Get(collectionID)
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// rollback restores the snapshotted entry verbatim. Full restore, no
// partial patching.
func (p *Pipeline) rollback(collectionID string, snapshot *Entry, hadEntry bool) {
	if hadEntry {
		p.cache.Set(collectionID, snapshot)
	} else {
		p.cache.Invalidate(collectionID)
	}
}
