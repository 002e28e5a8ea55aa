package collection_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/splitdeck/internal/collection"
	"github.com/zjrosen/splitdeck/internal/pubsub"
	"github.com/zjrosen/splitdeck/internal/testutil"
)

func newPipeline(t *testing.T) (*collection.Pipeline, *testutil.FakeService) {
	t.Helper()
	svc := testutil.NewFakeService()
	svc.Seed("pl-x", "Crate X",
		testutil.Track("t1", "One"),
		testutil.Track("t2", "Two"),
		testutil.Track("t3", "Three"),
		testutil.Track("t4", "Four"),
		testutil.Track("t5", "Five"),
	)
	return collection.NewPipeline(svc, collection.NewCache(svc)), svc
}

func drainEvents(t *testing.T, ch <-chan pubsub.Event[collection.ChangeEvent], want int) []collection.ChangeEvent {
	t.Helper()
	var got []collection.ChangeEvent
	timeout := time.After(time.Second)
	for len(got) < want {
		select {
		case ev := <-ch:
			got = append(got, ev.Payload)
		case <-timeout:
			t.Fatalf("expected %d events, got %d", want, len(got))
		}
	}
	return got
}

func TestPipeline_AddInvalidatesAndRefetches(t *testing.T) {
	p, svc := newPipeline(t)
	ctx := context.Background()

	_, err := p.Cache().Ensure(ctx, "pl-x")
	require.NoError(t, err)

	sub := p.Broker().Subscribe(ctx)
	require.NoError(t, p.Add(ctx, "pl-x", []string{"t9"}, 2))

	events := drainEvents(t, sub, 2)
	for _, ev := range events {
		require.Equal(t, "pl-x", ev.CollectionID)
		require.Equal(t, collection.CauseAdd, ev.Cause)
	}

	entry, ok := p.Cache().Get("pl-x")
	require.True(t, ok, "cache repopulated after the mandatory refetch")
	require.False(t, entry.Stale)
	require.Equal(t, 6, entry.Total)
	require.Equal(t, "t9", entry.Items[2].ID, "added item lands at the requested position")

	calls := svc.CallsFor("pl-x")
	require.Len(t, calls, 1)
	require.Equal(t, "add", calls[0].Op)
	require.Equal(t, 2, calls[0].Position)
}

func TestPipeline_AddMarksCacheStaleBeforeNetwork(t *testing.T) {
	p, svc := newPipeline(t)
	ctx := context.Background()
	_, err := p.Cache().Ensure(ctx, "pl-x")
	require.NoError(t, err)

	svc.FailOp = "add"
	err = p.Add(ctx, "pl-x", []string{"t9"}, 0)
	require.Error(t, err)

	entry, ok := p.Cache().Get("pl-x")
	require.True(t, ok)
	require.False(t, entry.Stale, "rollback restores the pre-mutation snapshot verbatim")
	require.Len(t, entry.Items, 5, "no fabricated rows were spliced in")
}

func TestPipeline_RemoveKeepsSpliceRefreshesToken(t *testing.T) {
	p, svc := newPipeline(t)
	ctx := context.Background()
	_, err := p.Cache().Ensure(ctx, "pl-x")
	require.NoError(t, err)

	sub := p.Broker().Subscribe(ctx)
	require.NoError(t, p.Remove(ctx, "pl-x", []collection.ItemRef{{ID: "t2", Positions: []int{1}}}))

	events := drainEvents(t, sub, 1)
	require.Equal(t, collection.CauseRemove, events[0].Cause)

	entry, _ := p.Cache().Get("pl-x")
	require.Equal(t, 4, entry.Total, "total recomputed after the splice")
	require.Equal(t, []string{"t1", "t3", "t4", "t5"}, itemIDs(entry.Items))
	require.NotEmpty(t, entry.VersionToken, "token refreshed on success")

	require.Len(t, svc.CallsFor("pl-x"), 1)
}

func TestPipeline_RemoveRollbackIsDeepEqual(t *testing.T) {
	p, svc := newPipeline(t)
	ctx := context.Background()
	before, err := p.Cache().Ensure(ctx, "pl-x")
	require.NoError(t, err)
	snapshot := before.Clone()

	svc.FailOp = "remove"
	err = p.Remove(ctx, "pl-x", []collection.ItemRef{{ID: "t2"}})
	require.Error(t, err)

	after, ok := p.Cache().Get("pl-x")
	require.True(t, ok)
	require.Equal(t, snapshot, after, "failing remove must leave the cache deep-equal to its snapshot")
}

func TestPipeline_ReorderSplicesThenRefetches(t *testing.T) {
	p, svc := newPipeline(t)
	ctx := context.Background()
	_, err := p.Cache().Ensure(ctx, "pl-x")
	require.NoError(t, err)

	sub := p.Broker().Subscribe(ctx)
	require.NoError(t, p.Reorder(ctx, "pl-x", 4, 1, 1))

	events := drainEvents(t, sub, 1)
	require.Equal(t, collection.CauseReorder, events[0].Cause)

	entry, _ := p.Cache().Get("pl-x")
	require.Equal(t, []string{"t1", "t5", "t2", "t3", "t4"}, itemIDs(entry.Items))

	calls := svc.CallsFor("pl-x")
	require.Len(t, calls, 1)
	require.Equal(t, "reorder", calls[0].Op)
	require.Equal(t, 4, calls[0].From)
	require.Equal(t, 1, calls[0].To)
	require.Equal(t, 1, calls[0].RangeLength)
	require.NotEmpty(t, calls[0].VersionToken, "cached token travels with the reorder")
}

func TestPipeline_ReorderRollback(t *testing.T) {
	p, svc := newPipeline(t)
	ctx := context.Background()
	before, err := p.Cache().Ensure(ctx, "pl-x")
	require.NoError(t, err)
	snapshot := before.Clone()

	svc.FailOp = "reorder"
	require.Error(t, p.Reorder(ctx, "pl-x", 0, 3, 1))

	after, _ := p.Cache().Get("pl-x")
	require.Equal(t, snapshot, after)
}

func TestPipeline_MutationsOnDifferentCollectionsIndependent(t *testing.T) {
	p, svc := newPipeline(t)
	svc.Seed("pl-y", "Crate Y", testutil.Track("y1", "Y One"))
	ctx := context.Background()
	_, err := p.Cache().Ensure(ctx, "pl-x")
	require.NoError(t, err)
	_, err = p.Cache().Ensure(ctx, "pl-y")
	require.NoError(t, err)

	xBefore, _ := p.Cache().Get("pl-x")
	xSnapshot := xBefore.Clone()

	require.NoError(t, p.Remove(ctx, "pl-y", []collection.ItemRef{{ID: "y1"}}))

	xAfter, _ := p.Cache().Get("pl-x")
	require.Equal(t, xSnapshot, xAfter, "mutating pl-y must not touch pl-x's cache")
}

func TestPipeline_EditableIsCached(t *testing.T) {
	p, svc := newPipeline(t)
	ctx := context.Background()

	editable, err := p.Editable(ctx, "pl-x")
	require.NoError(t, err)
	require.True(t, editable)

	// Flip the remote value; the cached answer should stick.
	svc.Editable["pl-x"] = false
	editable, err = p.Editable(ctx, "pl-x")
	require.NoError(t, err)
	require.True(t, editable, "editability is served by the read-through cache")
}

func TestPipeline_EmptyInputsAreNoOps(t *testing.T) {
	p, svc := newPipeline(t)
	ctx := context.Background()
	require.NoError(t, p.Add(ctx, "pl-x", nil, 0))
	require.NoError(t, p.Remove(ctx, "pl-x", nil))
	require.NoError(t, p.Reorder(ctx, "pl-x", 0, 1, 0))
	require.Empty(t, svc.Calls, "no remote calls for empty mutations")
}

func itemIDs(items []collection.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
