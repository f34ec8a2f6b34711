package seed

import (
	"context"
	"testing"

	"qipu/internal/cache"
	"qipu/internal/models"
	"qipu/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	cat := DefaultCatalog()
	assert.NotEmpty(t, cat.Tags)
	assert.NotEmpty(t, cat.Labels)

	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"Valid", "tags:\n  - name: ' padded '\nlabels: []\n", ""},
		{"Missing Name", "tags:\n  - description: nameless\n", "name is required"},
		{"Duplicate", "labels:\n  - name: a\n  - name: a\n", "duplicate"},
		{"Not YAML", "tags: [", "parse catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadCatalog([]byte(tt.raw))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "padded", got.Tags[0].Name)
		})
	}
}

func TestApplyTagsIsIdempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	cat := &Catalog{Tags: []CatalogEntry{{Name: "beach"}, {Name: "food", Description: "old"}}}
	require.NoError(t, ApplyTags(db, cat))

	cat.Tags[1].Description = "new"
	require.NoError(t, ApplyTags(db, cat))

	var tags []models.Tag
	require.NoError(t, db.Order("name").Find(&tags).Error)
	require.Len(t, tags, 2)
	assert.Equal(t, "new", tags[1].Description)
}

func TestSeed(t *testing.T) {
	cache.SetClient(nil)
	db := testutil.NewSQLiteDB(t)
	opts := Options{
		NumUsers:  4,
		NumPosts:  6,
		NumMedia:  3,
		NumEvents: 2,
		Factory:   FactoryOptions{SkipBcrypt: true, Seed: 42},
	}
	require.NoError(t, Seed(context.Background(), db, opts))

	count := func(model any) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.EqualValues(t, 4, count(&models.User{}))
	assert.EqualValues(t, 3, count(&models.Contact{}))
	assert.EqualValues(t, 6, count(&models.Post{}))
	assert.EqualValues(t, 3, count(&models.Media{}))
	assert.EqualValues(t, 2, count(&models.Event{}))
	assert.EqualValues(t, 2, count(&models.Attendee{}))
	assert.EqualValues(t, len(DefaultCatalog().Tags), count(&models.Tag{}))
	assert.EqualValues(t, len(DefaultCatalog().Labels), count(&models.RelationshipLabel{}))
	assert.NotZero(t, count(&models.PostTag{}))

	// A clean rerun leaves the same shape behind.
	opts.ShouldClean = true
	require.NoError(t, Seed(context.Background(), db, opts))
	assert.EqualValues(t, 4, count(&models.User{}))
	assert.EqualValues(t, 6, count(&models.Post{}))
}
