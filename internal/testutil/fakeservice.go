// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/zjrosen/splitdeck/internal/collection"
)

// Call records one mutation the fake service received.
type Call struct {
	Op           string // "add" | "remove" | "reorder"
	CollectionID string
	ItemIDs      []string
	Position     int
	Refs         []collection.ItemRef
	From, To     int
	RangeLength  int
	VersionToken string
}

// FakeService is an in-memory collection.Service that records every
// mutation and can be told to fail. Ordering semantics match the remote
// contract: reorder toIndex is interpreted in pre-removal coordinates.
type FakeService struct {
	mu sync.Mutex

	Collections map[string][]collection.Item
	Names       map[string]string
	Editable    map[string]bool
	PageSize    int

	Calls   []Call
	FailOp  string // when set, that op returns FailErr
	FailErr error

	versions map[string]int
}

// NewFakeService creates an empty fake with a default page size.
func NewFakeService() *FakeService {
	return &FakeService{
		Collections: make(map[string][]collection.Item),
		Names:       make(map[string]string),
		Editable:    make(map[string]bool),
		PageSize:    100,
		versions:    make(map[string]int),
	}
}

// Seed installs a collection with the given items and marks it editable.
func (f *FakeService) Seed(id, name string, items ...collection.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Collections[id] = append([]collection.Item(nil), items...)
	f.Names[id] = name
	f.Editable[id] = true
}

// Track builds a minimal item for tests.
func Track(id, title string) collection.Item {
	return collection.Item{ID: id, Title: title, Artist: "artist-" + id, DurationMS: 180000}
}

// CallsFor returns the recorded calls touching one collection.
func (f *FakeService) CallsFor(collectionID string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.CollectionID == collectionID {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeService) fail(op string) error {
	if f.FailOp == op {
		if f.FailErr != nil {
			return f.FailErr
		}
		return fmt.Errorf("fake %s failure", op)
	}
	return nil
}

func (f *FakeService) token(id string) string {
	f.versions[id]++
	return fmt.Sprintf("v%d", f.versions[id])
}

func (f *FakeService) FetchPage(ctx context.Context, collectionID, cursor string) (collection.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("fetch"); err != nil {
		return collection.Page{}, err
	}
	items, ok := f.Collections[collectionID]
	if !ok {
		return collection.Page{}, collection.ErrNotFound
	}

	offset := 0
	if cursor != "" {
		offset, _ = strconv.Atoi(cursor)
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + f.PageSize
	next := ""
	if end < len(items) {
		next = strconv.Itoa(end)
	} else {
		end = len(items)
	}

	page := collection.Page{
		Items:        append([]collection.Item(nil), items[offset:end]...),
		NextCursor:   next,
		Total:        len(items),
		VersionToken: fmt.Sprintf("v%d", f.versions[collectionID]),
	}
	return page, nil
}

func (f *FakeService) AddItems(ctx context.Context, collectionID string, itemIDs []string, position int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{
		Op: "add", CollectionID: collectionID,
		ItemIDs: append([]string(nil), itemIDs...), Position: position,
	})
	if err := f.fail("add"); err != nil {
		return "", err
	}
	items, ok := f.Collections[collectionID]
	if !ok {
		return "", collection.ErrNotFound
	}

	added := make([]collection.Item, len(itemIDs))
	for i, id := range itemIDs {
		added[i] = f.lookupItem(id)
	}

	if position == collection.AppendPosition || position > len(items) {
		position = len(items)
	}
	if position < 0 {
		position = 0
	}
	result := make([]collection.Item, 0, len(items)+len(added))
	result = append(result, items[:position]...)
	result = append(result, added...)
	result = append(result, items[position:]...)
	f.Collections[collectionID] = result
	return f.token(collectionID), nil
}

// lookupItem finds the item in any seeded collection so cross-collection
// copies carry real metadata; unknown ids get synthesized metadata.
func (f *FakeService) lookupItem(id string) collection.Item {
	for _, items := range f.Collections {
		for _, item := range items {
			if item.ID == id {
				return item
			}
		}
	}
	return Track(id, "title-"+id)
}

func (f *FakeService) RemoveItems(ctx context.Context, collectionID string, refs []collection.ItemRef) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{
		Op: "remove", CollectionID: collectionID,
		Refs: append([]collection.ItemRef(nil), refs...),
	})
	if err := f.fail("remove"); err != nil {
		return "", err
	}
	items, ok := f.Collections[collectionID]
	if !ok {
		return "", collection.ErrNotFound
	}

	drop := make(map[int]struct{})
	for _, ref := range refs {
		if len(ref.Positions) == 0 {
			for i, item := range items {
				if item.ID == ref.ID {
					drop[i] = struct{}{}
				}
			}
			continue
		}
		for _, pos := range ref.Positions {
			if pos >= 0 && pos < len(items) && items[pos].ID == ref.ID {
				drop[pos] = struct{}{}
			}
		}
	}
	result := make([]collection.Item, 0, len(items))
	for i, item := range items {
		if _, gone := drop[i]; !gone {
			result = append(result, item)
		}
	}
	f.Collections[collectionID] = result
	return f.token(collectionID), nil
}

func (f *FakeService) Reorder(ctx context.Context, collectionID string, fromIndex, toIndex, rangeLength int, versionToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{
		Op: "reorder", CollectionID: collectionID,
		From: fromIndex, To: toIndex, RangeLength: rangeLength, VersionToken: versionToken,
	})
	if err := f.fail("reorder"); err != nil {
		return "", err
	}
	items, ok := f.Collections[collectionID]
	if !ok {
		return "", collection.ErrNotFound
	}
	if rangeLength <= 0 || fromIndex < 0 || fromIndex+rangeLength > len(items) {
		return "", fmt.Errorf("reorder out of range")
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(items) {
		toIndex = len(items)
	}

	moved := append([]collection.Item(nil), items[fromIndex:fromIndex+rangeLength]...)
	rest := append([]collection.Item(nil), items[:fromIndex]...)
	rest = append(rest, items[fromIndex+rangeLength:]...)
	insert := toIndex
	if toIndex > fromIndex {
		insert = toIndex - rangeLength
	}
	if insert > len(rest) {
		insert = len(rest)
	}
	result := append([]collection.Item(nil), rest[:insert]...)
	result = append(result, moved...)
	result = append(result, rest[insert:]...)
	f.Collections[collectionID] = result
	return f.token(collectionID), nil
}

func (f *FakeService) CheckEditable(ctx context.Context, collectionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("editable"); err != nil {
		return false, err
	}
	editable, ok := f.Editable[collectionID]
	if !ok {
		return false, collection.ErrNotFound
	}
	return editable, nil
}

func (f *FakeService) ListCollections(ctx context.Context) ([]collection.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var infos []collection.Info
	for id, items := range f.Collections {
		infos = append(infos, collection.Info{
			ID: id, Name: f.Names[id], Total: len(items),
			VersionToken: fmt.Sprintf("v%d", f.versions[id]),
		})
	}
	return infos, nil
}

var _ collection.Service = (*FakeService)(nil)
