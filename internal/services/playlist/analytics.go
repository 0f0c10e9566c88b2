package playlist

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
)

// popularItemsLimit caps the ranked popular-items list.
const popularItemsLimit = 10

// RecordPlayback folds a playback event into the playlist's analytics:
// the play counter and running average update incrementally, the event
// joins the bounded history window (evicting the oldest entry at
// capacity), and the popularity ranking is recomputed from the window.
func RecordPlayback(a *models.PlaylistAnalytics, event models.PlaybackEvent) {
	if event.PlayedAt.IsZero() {
		event.PlayedAt = time.Now()
	}

	a.TotalPlays++
	a.AvgPlayDuration += (float64(event.Duration) - a.AvgPlayDuration) / float64(a.TotalPlays)
	a.LastPlayed = event.PlayedAt

	a.PlayHistory = append(a.PlayHistory, event)
	if len(a.PlayHistory) > models.PlayHistoryCapacity {
		a.PlayHistory = a.PlayHistory[len(a.PlayHistory)-models.PlayHistoryCapacity:]
	}

	a.PopularItems = rankItems(a.PlayHistory)
}

// rankItems groups the history window by item and ranks by play count,
// breaking ties by most recent play.
func rankItems(history []models.PlaybackEvent) []models.ItemPopularity {
	byItem := make(map[bson.ObjectID]*models.ItemPopularity)
	for _, e := range history {
		entry, ok := byItem[e.ItemID]
		if !ok {
			entry = &models.ItemPopularity{ItemID: e.ItemID}
			byItem[e.ItemID] = entry
		}
		entry.PlayCount++
		if e.PlayedAt.After(entry.LastPlayed) {
			entry.LastPlayed = e.PlayedAt
		}
	}

	ranked := make([]models.ItemPopularity, 0, len(byItem))
	for _, entry := range byItem {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].PlayCount != ranked[j].PlayCount {
			return ranked[i].PlayCount > ranked[j].PlayCount
		}
		return ranked[i].LastPlayed.After(ranked[j].LastPlayed)
	})

	if len(ranked) > popularItemsLimit {
		ranked = ranked[:popularItemsLimit]
	}
	return ranked
}
