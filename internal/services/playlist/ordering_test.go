package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
)

func newTestPlaylist(n int) *models.Playlist {
	p := &models.Playlist{}
	for i := 0; i < n; i++ {
		p.Items = append(p.Items, models.PlaylistItem{
			ID:      bson.NewObjectID(),
			MediaID: bson.NewObjectID(),
			Order:   i,
		})
	}
	p.TotalItems = n
	return p
}

func assertDenseOrder(t *testing.T, p *models.Playlist) {
	t.Helper()
	for i, item := range p.Items {
		assert.Equal(t, i, item.Order, "item at index %d has order %d", i, item.Order)
	}
}

func itemIDs(p *models.Playlist) []bson.ObjectID {
	ids := make([]bson.ObjectID, len(p.Items))
	for i, item := range p.Items {
		ids[i] = item.ID
	}
	return ids
}

func TestAddItemAppend(t *testing.T) {
	p := newTestPlaylist(3)
	item := models.PlaylistItem{ID: bson.NewObjectID(), MediaID: bson.NewObjectID()}

	AddItem(p, item, nil)

	require.Len(t, p.Items, 4)
	assert.Equal(t, item.ID, p.Items[3].ID)
	assert.Equal(t, 4, p.TotalItems)
	assertDenseOrder(t, p)
}

func TestAddItemAtPosition(t *testing.T) {
	p := newTestPlaylist(3)
	before := itemIDs(p)
	item := models.PlaylistItem{ID: bson.NewObjectID(), MediaID: bson.NewObjectID()}

	pos := 1
	AddItem(p, item, &pos)

	require.Len(t, p.Items, 4)
	assert.Equal(t, before[0], p.Items[0].ID)
	assert.Equal(t, item.ID, p.Items[1].ID)
	assert.Equal(t, before[1], p.Items[2].ID)
	assert.Equal(t, before[2], p.Items[3].ID)
	assertDenseOrder(t, p)
}

func TestAddItemOutOfRangePositionAppends(t *testing.T) {
	for _, pos := range []int{-1, 10} {
		p := newTestPlaylist(2)
		item := models.PlaylistItem{ID: bson.NewObjectID(), MediaID: bson.NewObjectID()}

		AddItem(p, item, &pos)

		require.Len(t, p.Items, 3)
		assert.Equal(t, item.ID, p.Items[2].ID)
		assertDenseOrder(t, p)
	}
}

func TestAddItemSetsAddedAt(t *testing.T) {
	p := newTestPlaylist(0)
	AddItem(p, models.PlaylistItem{ID: bson.NewObjectID()}, nil)
	assert.False(t, p.Items[0].AddedAt.IsZero())
}

func TestRemoveItemCompactsOrders(t *testing.T) {
	p := newTestPlaylist(4)
	removed := p.Items[1].ID
	kept := []bson.ObjectID{p.Items[0].ID, p.Items[2].ID, p.Items[3].ID}

	require.NoError(t, RemoveItem(p, removed))

	require.Len(t, p.Items, 3)
	assert.Equal(t, kept, itemIDs(p))
	assert.Equal(t, 3, p.TotalItems)
	assertDenseOrder(t, p)
}

func TestRemoveItemNotFound(t *testing.T) {
	p := newTestPlaylist(2)
	err := RemoveItem(p, bson.NewObjectID())
	assert.ErrorIs(t, err, models.ErrItemNotFound)
	assert.Len(t, p.Items, 2)
}

func TestReorderAll(t *testing.T) {
	p := newTestPlaylist(3)
	ids := itemIDs(p)
	want := []bson.ObjectID{ids[2], ids[0], ids[1]}

	require.NoError(t, ReorderAll(p, want))

	assert.Equal(t, want, itemIDs(p))
	assertDenseOrder(t, p)
}

func TestReorderAllRejectsBadPermutations(t *testing.T) {
	p := newTestPlaylist(3)
	ids := itemIDs(p)

	cases := map[string][]bson.ObjectID{
		"too short":  {ids[0], ids[1]},
		"too long":   {ids[0], ids[1], ids[2], bson.NewObjectID()},
		"unknown id": {ids[0], ids[1], bson.NewObjectID()},
		"duplicate":  {ids[0], ids[1], ids[1]},
	}

	for name, perm := range cases {
		t.Run(name, func(t *testing.T) {
			err := ReorderAll(p, perm)
			assert.ErrorIs(t, err, models.ErrInvalidReorder)
			assert.Equal(t, ids, itemIDs(p), "playlist must be unchanged")
		})
	}
}

func TestReorderPartialMovesSubset(t *testing.T) {
	p := newTestPlaylist(4)
	ids := itemIDs(p)

	// Swap the first two items.
	err := ReorderPartial(p, []models.OrderUpdate{
		{ItemID: ids[0], Order: 1},
		{ItemID: ids[1], Order: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, []bson.ObjectID{ids[1], ids[0], ids[2], ids[3]}, itemIDs(p))
	assertDenseOrder(t, p)
}

func TestReorderPartialUnknownItem(t *testing.T) {
	p := newTestPlaylist(2)
	err := ReorderPartial(p, []models.OrderUpdate{{ItemID: bson.NewObjectID(), Order: 0}})
	assert.ErrorIs(t, err, models.ErrUnknownItem)
}

func TestReorderPartialDuplicateOrder(t *testing.T) {
	p := newTestPlaylist(3)
	ids := itemIDs(p)

	err := ReorderPartial(p, []models.OrderUpdate{
		{ItemID: ids[0], Order: 2},
		{ItemID: ids[1], Order: 2},
	})
	assert.ErrorIs(t, err, models.ErrDuplicateOrder)
	assert.Equal(t, ids, itemIDs(p))
}

func TestReorderPartialConflictWithUnchangedItem(t *testing.T) {
	p := newTestPlaylist(3)
	ids := itemIDs(p)

	// Item 2 keeps order 2, so moving item 0 there must fail.
	err := ReorderPartial(p, []models.OrderUpdate{{ItemID: ids[0], Order: 2}})
	assert.ErrorIs(t, err, models.ErrOrderConflict)
	assert.Equal(t, ids, itemIDs(p))
}

func TestReorderPartialCollisionWithinUpdateSet(t *testing.T) {
	p := newTestPlaylist(3)
	ids := itemIDs(p)

	// Both moved items may pass through each other's current orders.
	err := ReorderPartial(p, []models.OrderUpdate{
		{ItemID: ids[0], Order: 2},
		{ItemID: ids[2], Order: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{ids[2], ids[1], ids[0]}, itemIDs(p))
	assertDenseOrder(t, p)
}

func TestRecalculateTotals(t *testing.T) {
	p := newTestPlaylist(3)
	override := 5
	p.Items[1].Duration = &override

	durations := map[bson.ObjectID]int{
		p.Items[0].MediaID: 10,
		p.Items[1].MediaID: 20,
		// item 2's media is missing from the catalog
	}

	RecalculateTotals(p, durations)

	assert.Equal(t, 3, p.TotalItems)
	assert.Equal(t, 15, p.TotalDuration)
}
