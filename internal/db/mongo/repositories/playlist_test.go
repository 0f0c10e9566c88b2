package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
)

func TestSearchSort(t *testing.T) {
	cases := []struct {
		name     string
		criteria models.PlaylistSearchCriteria
		want     bson.M
	}{
		{
			name:     "default",
			criteria: models.PlaylistSearchCriteria{},
			want:     bson.M{"lastModified": -1},
		},
		{
			name:     "name defaults ascending",
			criteria: models.PlaylistSearchCriteria{SortBy: "name"},
			want:     bson.M{"name": 1},
		},
		{
			name:     "name ascending stays ascending",
			criteria: models.PlaylistSearchCriteria{SortBy: "name", SortDirection: "asc"},
			want:     bson.M{"name": 1},
		},
		{
			name:     "name descending",
			criteria: models.PlaylistSearchCriteria{SortBy: "name", SortDirection: "desc"},
			want:     bson.M{"name": -1},
		},
		{
			name:     "created defaults descending",
			criteria: models.PlaylistSearchCriteria{SortBy: "created"},
			want:     bson.M{"createdAt": -1},
		},
		{
			name:     "created ascending",
			criteria: models.PlaylistSearchCriteria{SortBy: "created", SortDirection: "asc"},
			want:     bson.M{"createdAt": 1},
		},
		{
			name:     "items ascending",
			criteria: models.PlaylistSearchCriteria{SortBy: "items", SortDirection: "asc"},
			want:     bson.M{"totalItems": 1},
		},
		{
			name:     "default ascending",
			criteria: models.PlaylistSearchCriteria{SortDirection: "asc"},
			want:     bson.M{"lastModified": 1},
		},
		{
			name:     "text query sorts by relevance alone",
			criteria: models.PlaylistSearchCriteria{Query: "lobby"},
			want:     bson.M{"score": bson.M{"$meta": "textScore"}},
		},
		{
			name:     "text query with explicit field",
			criteria: models.PlaylistSearchCriteria{Query: "lobby", SortBy: "name", SortDirection: "asc"},
			want:     bson.M{"score": bson.M{"$meta": "textScore"}, "name": 1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, searchSort(tc.criteria))
		})
	}
}
