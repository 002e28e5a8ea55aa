// Package collection defines the remote ordered-collection domain: item
// and page types, the service interface the transport implements, and the
// optimistic mutation pipeline that keeps panel caches consistent.
package collection

import (
	"context"
	"errors"

	"github.com/zjrosen/splitdeck/internal/pubsub"
)

// Sentinel errors surfaced by Service implementations.
var (
	ErrNotFound        = errors.New("collection not found")
	ErrNotEditable     = errors.New("collection is not editable")
	ErrVersionConflict = errors.New("collection version conflict")
)

// Item is one entry of a remote ordered collection.
type Item struct {
	ID         string
	Title      string
	Artist     string
	DurationMS int
}

// Row pairs an item with its explicit global position in the unfiltered
// collection. A filtered view keeps the original positions so drops can
// be mapped back to the remote ordering. Position is NoPosition when the
// global position is unknown, in which case consumers degrade to
// index-based mapping.
type Row struct {
	Item     Item
	Position int
}

// NoPosition marks a row without an explicit global position.
const NoPosition = -1

// Page is one fetched window of a collection.
type Page struct {
	Items        []Item
	NextCursor   string
	Total        int
	VersionToken string
}

// ItemRef identifies items to remove: the item id plus an optional
// explicit position list to target specific instances among duplicates.
// An empty position list removes every instance of the id.
type ItemRef struct {
	ID        string
	Positions []int
}

// AppendPosition asks AddItems to append at the end of the collection.
const AppendPosition = -1

// Service is the remote ordered-collection API. Transport, auth and
// retry/backoff live behind this interface; the pipeline never retries.
type Service interface {
	FetchPage(ctx context.Context, collectionID, cursor string) (Page, error)
	AddItems(ctx context.Context, collectionID string, itemIDs []string, position int) (versionToken string, err error)
	RemoveItems(ctx context.Context, collectionID string, refs []ItemRef) (versionToken string, err error)
	Reorder(ctx context.Context, collectionID string, fromIndex, toIndex, rangeLength int, versionToken string) (newVersionToken string, err error)
	CheckEditable(ctx context.Context, collectionID string) (bool, error)
	ListCollections(ctx context.Context) ([]Info, error)
}

// Info describes a collection without its items.
type Info struct {
	ID           string
	Name         string
	Total        int
	VersionToken string
}

// Cause tags a change event with the mutation that produced it.
type Cause string

const (
	CauseAdd      Cause = "add"
	CauseRemove   Cause = "remove"
	CauseReorder  Cause = "reorder"
	CauseMetadata Cause = "metadata"
)

// EventType maps a cause onto the pubsub event vocabulary.
func (c Cause) EventType() pubsub.EventType {
	switch c {
	case CauseAdd:
		return pubsub.AddedEvent
	case CauseRemove:
		return pubsub.RemovedEvent
	case CauseReorder:
		return pubsub.ReorderedEvent
	default:
		return pubsub.MetadataEvent
	}
}

// ChangeEvent is broadcast after every mutation so all panels bound to
// the same collection can refresh independently.
type ChangeEvent struct {
	CollectionID string
	Cause        Cause
}
