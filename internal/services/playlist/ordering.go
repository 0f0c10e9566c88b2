// Package playlist provides playlist management services.
package playlist

import (
	"net/http"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
)

// Ordering operations mutate a playlist's item list in memory. Every
// successful operation leaves item orders as a dense 0..N-1 sequence with
// the slice sorted by order. Every failed operation leaves the playlist
// untouched.

// AddItem inserts an item into the playlist. When position is nil or outside
// 0..N the item is appended at the end; otherwise items at or after the
// position shift up by one and the item takes the position.
func AddItem(p *models.Playlist, item models.PlaylistItem, position *int) {
	n := len(p.Items)

	pos := n
	if position != nil && *position >= 0 && *position <= n {
		pos = *position
	}

	for i := range p.Items {
		if p.Items[i].Order >= pos {
			p.Items[i].Order++
		}
	}

	item.Order = pos
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	p.Items = append(p.Items, item)

	sortByOrder(p.Items)
	p.TotalItems = len(p.Items)
}

// RemoveItem removes the item with the given ID and compacts the remaining
// orders back to a dense sequence, preserving relative order. Returns
// models.ErrItemNotFound when no such item exists.
func RemoveItem(p *models.Playlist, itemID bson.ObjectID) error {
	idx := -1
	for i := range p.Items {
		if p.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.ErrItemNotFound
	}

	p.Items = append(p.Items[:idx], p.Items[idx+1:]...)

	sortByOrder(p.Items)
	for i := range p.Items {
		p.Items[i].Order = i
	}
	p.TotalItems = len(p.Items)

	return nil
}

// ReorderAll replaces the complete ordering of the playlist. itemIDs must be
// an exact permutation of the current item IDs; each item takes the order of
// its index in the list. Returns models.ErrInvalidReorder otherwise, leaving
// the playlist unchanged.
func ReorderAll(p *models.Playlist, itemIDs []bson.ObjectID) error {
	if len(itemIDs) != len(p.Items) {
		return models.ErrInvalidReorder
	}

	byID := lo.KeyBy(lo.Range(len(p.Items)), func(i int) bson.ObjectID {
		return p.Items[i].ID
	})

	seen := make(map[bson.ObjectID]bool, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := byID[id]; !ok || seen[id] {
			return models.ErrInvalidReorder
		}
		seen[id] = true
	}

	for pos, id := range itemIDs {
		p.Items[byID[id]].Order = pos
	}
	sortByOrder(p.Items)

	return nil
}

// ReorderPartial moves a subset of items to new positions. Validation runs
// to completion before any item is touched:
//
//   - every referenced item must exist (models.ErrUnknownItem)
//   - no two updates may claim the same order (models.ErrDuplicateOrder)
//   - a requested order must not collide with the current order of an item
//     outside the update set (models.ErrOrderConflict)
//
// Collisions among updated items are legal and are settled by the final
// ascending sort. On any error the playlist is unchanged.
func ReorderPartial(p *models.Playlist, updates []models.OrderUpdate) error {
	indexByID := make(map[bson.ObjectID]int, len(p.Items))
	for i := range p.Items {
		indexByID[p.Items[i].ID] = i
	}

	updated := make(map[bson.ObjectID]bool, len(updates))
	requested := make(map[int]bson.ObjectID, len(updates))
	for _, u := range updates {
		if _, ok := indexByID[u.ItemID]; !ok {
			return models.NewPlaylistError(models.ErrUnknownItem, "", http.StatusBadRequest).
				AddDetail("itemId", u.ItemID.Hex())
		}
		if prev, dup := requested[u.Order]; dup {
			return models.NewConflictError(models.ErrDuplicateOrder, "", map[string]any{
				"order": u.Order,
				"items": []string{prev.Hex(), u.ItemID.Hex()},
			})
		}
		requested[u.Order] = u.ItemID
		updated[u.ItemID] = true
	}

	for order, id := range requested {
		for i := range p.Items {
			if updated[p.Items[i].ID] {
				continue
			}
			if p.Items[i].Order == order {
				return models.NewConflictError(models.ErrOrderConflict, "", map[string]any{
					"order":         order,
					"movedItem":     id.Hex(),
					"unchangedItem": p.Items[i].ID.Hex(),
				})
			}
		}
	}

	for _, u := range updates {
		p.Items[indexByID[u.ItemID]].Order = u.Order
	}
	sortByOrder(p.Items)
	for i := range p.Items {
		p.Items[i].Order = i
	}

	return nil
}

// RecalculateTotals refreshes TotalItems and TotalDuration from the item
// list, resolving each item's effective duration through the catalog lookup.
// Items whose media is missing from the catalog contribute only their
// override, if any.
func RecalculateTotals(p *models.Playlist, durations map[bson.ObjectID]int) {
	p.TotalItems = len(p.Items)

	total := 0
	for i := range p.Items {
		total += p.Items[i].EffectiveDuration(durations[p.Items[i].MediaID])
	}
	p.TotalDuration = total
}

func sortByOrder(items []models.PlaylistItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Order < items[j].Order
	})
}
