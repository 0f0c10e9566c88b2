package playlist

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
)

func TestRecordPlaybackRunningAverage(t *testing.T) {
	a := &models.PlaylistAnalytics{}
	itemID := bson.NewObjectID()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, duration := range []int{10, 20, 30} {
		RecordPlayback(a, models.PlaybackEvent{
			ItemID:   itemID,
			Duration: duration,
			PlayedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	assert.Equal(t, int64(3), a.TotalPlays)
	assert.InDelta(t, 20.0, a.AvgPlayDuration, 1e-9)
	assert.Equal(t, base.Add(2*time.Minute), a.LastPlayed)
}

func TestRecordPlaybackDefaultsPlayedAt(t *testing.T) {
	a := &models.PlaylistAnalytics{}
	RecordPlayback(a, models.PlaybackEvent{ItemID: bson.NewObjectID(), Duration: 5})

	require.Len(t, a.PlayHistory, 1)
	assert.False(t, a.PlayHistory[0].PlayedAt.IsZero())
	assert.False(t, a.LastPlayed.IsZero())
}

func TestRecordPlaybackHistoryEviction(t *testing.T) {
	a := &models.PlaylistAnalytics{}
	itemID := bson.NewObjectID()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	total := models.PlayHistoryCapacity + 5
	for i := 0; i < total; i++ {
		RecordPlayback(a, models.PlaybackEvent{
			ItemID:   itemID,
			Duration: i,
			PlayedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	require.Len(t, a.PlayHistory, models.PlayHistoryCapacity)
	// The oldest five events are gone; the window starts at event 5.
	assert.Equal(t, 5, a.PlayHistory[0].Duration)
	assert.Equal(t, total-1, a.PlayHistory[len(a.PlayHistory)-1].Duration)
	assert.Equal(t, int64(total), a.TotalPlays)
}

func TestRecordPlaybackPopularityRanking(t *testing.T) {
	a := &models.PlaylistAnalytics{}
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	frequent := bson.NewObjectID()
	recent := bson.NewObjectID()
	older := bson.NewObjectID()

	play := func(id bson.ObjectID, at time.Time) {
		RecordPlayback(a, models.PlaybackEvent{ItemID: id, Duration: 10, PlayedAt: at})
	}

	// Triple plays for the frequent item, then one play each for two items
	// with the same count but different recency.
	play(frequent, base)
	play(frequent, base.Add(time.Minute))
	play(frequent, base.Add(2*time.Minute))
	play(older, base.Add(3*time.Minute))
	play(recent, base.Add(4*time.Minute))

	require.Len(t, a.PopularItems, 3)
	assert.Equal(t, frequent, a.PopularItems[0].ItemID)
	assert.Equal(t, 3, a.PopularItems[0].PlayCount)
	assert.Equal(t, base.Add(2*time.Minute), a.PopularItems[0].LastPlayed)

	// Tie on count resolves to the more recently played item.
	assert.Equal(t, recent, a.PopularItems[1].ItemID)
	assert.Equal(t, older, a.PopularItems[2].ItemID)
}

func TestRecordPlaybackPopularityCapped(t *testing.T) {
	a := &models.PlaylistAnalytics{}
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < popularItemsLimit+4; i++ {
		RecordPlayback(a, models.PlaybackEvent{
			ItemID:   bson.NewObjectID(),
			Duration: 10,
			PlayedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	assert.Len(t, a.PopularItems, popularItemsLimit)
}

func TestRecordPlaybackRankingFollowsWindow(t *testing.T) {
	a := &models.PlaylistAnalytics{}
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	evicted := bson.NewObjectID()
	play := func(id bson.ObjectID, at time.Time) {
		RecordPlayback(a, models.PlaybackEvent{ItemID: id, Duration: 10, PlayedAt: at})
	}

	play(evicted, base)
	for i := 0; i < models.PlayHistoryCapacity; i++ {
		play(bson.NewObjectID(), base.Add(time.Duration(i+1)*time.Second))
	}

	// Rankings mirror the retained window, so the evicted item drops out.
	for i, entry := range a.PopularItems {
		assert.NotEqual(t, evicted, entry.ItemID, fmt.Sprintf("rank %d", i))
	}
}
