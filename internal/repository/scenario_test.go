package repository

import (
	"context"
	"testing"
	"time"

	"qipu/internal/cache"
	"qipu/internal/models"
	"qipu/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSQLite(t *testing.T) *gorm.DB {
	cache.SetClient(nil)
	return testutil.NewSQLiteDB(t)
}

func mustUser(t *testing.T, db *gorm.DB, name string) *models.User {
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func mustTags(t *testing.T, db *gorm.DB, names ...string) []models.Tag {
	tags := make([]models.Tag, 0, len(names))
	for _, n := range names {
		tags = append(tags, models.Tag{Name: n})
	}
	require.NoError(t, db.Create(&tags).Error)
	return tags
}

func mediaIDs(items []models.Media) []uint {
	ids := make([]uint, 0, len(items))
	for _, m := range items {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestMediaRepository_ListOwnedWithTagFilter(t *testing.T) {
	db := setupSQLite(t)
	repo := NewMediaRepository(db)
	ctx := context.Background()

	alice := mustUser(t, db, "alice")
	bob := mustUser(t, db, "bob")
	tags := mustTags(t, db, "beach", "city")
	beach, city := tags[0].ID, tags[1].ID

	newMedia := func(owner uint, tagIDs ...uint) *models.Media {
		m := &models.Media{UserID: owner, MediaType: models.MediaKindImage, Permalink: "p", StorageFile: "s", Category: 1, TagIDs: tagIDs}
		require.NoError(t, repo.Create(ctx, m))
		return m
	}
	m1 := newMedia(alice.ID, beach)
	m2 := newMedia(alice.ID, beach, city)
	m3 := newMedia(alice.ID)
	newMedia(bob.ID, beach)

	tests := []struct {
		name string
		raw  string
		want []uint
	}{
		{"No Filter", "", []uint{m1.ID, m2.ID, m3.ID}},
		{"Single Tag", "1", []uint{m1.ID, m2.ID}},
		{"Both Tags Listed Once", "1,2", []uint{m1.ID, m2.ID}},
		{"Second Tag", "2", []uint{m2.ID}},
		{"Garbage Only", "abc", []uint{}},
		{"Garbage Mixed", "abc,2", []uint{m2.ID}},
		{"Unknown Tag", "99", []uint{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := repo.ListOwned(ctx, alice.ID, ParseTagFilter(tt.raw), Page{Limit: 50})
			require.NoError(t, err)
			assert.Equal(t, tt.want, mediaIDs(items))
		})
	}

	got, err := repo.GetByID(ctx, m2.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{beach, city}, got.TagIDs)
}

func TestPostRepository_CreateRollsBackOnMissingTag(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := mustUser(t, db, "alice")
	tags := mustTags(t, db, "work")

	err := repo.Create(ctx, &models.Post{UserID: alice.ID, Content: "hello", TagIDs: []uint{tags[0].ID, 404}})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)

	p := &models.Post{UserID: alice.ID, Content: "hello", TagIDs: []uint{tags[0].ID, tags[0].ID}}
	require.NoError(t, repo.Create(ctx, p))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{tags[0].ID}, got.TagIDs)
}

func TestAttendeeRepository_ListInvolved(t *testing.T) {
	db := setupSQLite(t)
	repo := NewAttendeeRepository(db)
	ctx := context.Background()

	host := mustUser(t, db, "host")
	guest := mustUser(t, db, "guest")
	stranger := mustUser(t, db, "stranger")

	event := &models.Event{UserID: host.ID, Title: "Party", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)}
	require.NoError(t, db.Create(event).Error)
	a := &models.Attendee{EventID: event.ID, UserID: guest.ID, Status: models.StatusPending}
	require.NoError(t, repo.Create(ctx, a))

	for _, uid := range []uint{host.ID, guest.ID} {
		rows, err := repo.ListInvolved(ctx, uid, 0, Page{Limit: 50})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.NotNil(t, rows[0].Event)
		assert.Equal(t, host.ID, rows[0].Event.UserID)
	}

	rows, err := repo.ListInvolved(ctx, stranger.ID, 0, Page{Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, rows)

	err = repo.Create(ctx, &models.Attendee{EventID: event.ID, UserID: guest.ID})
	assert.Equal(t, 400, models.StatusFor(err))

	existing, err := repo.GetByEventAndUser(ctx, event.ID, guest.ID)
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, a.ID, existing.ID)
}

func TestContactRepository_Labels(t *testing.T) {
	db := setupSQLite(t)
	repo := NewContactRepository(db)
	labels := NewLabelRepository(db)
	ctx := context.Background()

	alice := mustUser(t, db, "alice")
	bob := mustUser(t, db, "bob")
	carol := mustUser(t, db, "carol")

	family := &models.RelationshipLabel{Name: "family", UserID: alice.ID}
	work := &models.RelationshipLabel{Name: "work", UserID: alice.ID}
	require.NoError(t, labels.Create(ctx, family))
	require.NoError(t, labels.Create(ctx, work))

	c := &models.Contact{RequesterID: alice.ID, RecipientID: bob.ID, Status: models.StatusPending, LabelIDs: []uint{family.ID}}
	require.NoError(t, repo.Create(ctx, c))

	require.NoError(t, repo.SetLabels(ctx, c.ID, []uint{work.ID, family.ID}))
	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{family.ID, work.ID}, got.LabelIDs)

	err = repo.SetLabels(ctx, c.ID, []uint{999})
	assert.Equal(t, 400, models.StatusFor(err))

	pair, err := repo.GetPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, c.ID, pair.ID)

	reverse, err := repo.GetPair(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, reverse)

	forBob, err := repo.ListInvolved(ctx, bob.ID, "", Page{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, forBob, 1)

	accepted, err := repo.ListInvolved(ctx, bob.ID, models.StatusAccepted, Page{Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, accepted)

	forCarol, err := repo.ListInvolved(ctx, carol.ID, "", Page{Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, forCarol)
}

func TestTagRepository_Search(t *testing.T) {
	db := setupSQLite(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	mustTags(t, db, "Travel", "travel-2024", "TRAVELLING", "time travel", "travelogue", "food", "100%")

	got, err := repo.Search(ctx, "TRAV")
	require.NoError(t, err)
	assert.Len(t, got, TagSearchLimit)
	for _, tag := range got {
		assert.Contains(t, []string{"Travel", "travel-2024", "TRAVELLING", "time travel", "travelogue"}, tag.Name)
	}

	got, err = repo.Search(ctx, "%")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100%", got[0].Name)

	got, err = repo.Search(ctx, "nothing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTagRepository_SearchCacheInvalidatedOnCreate(t *testing.T) {
	db := setupSQLite(t)
	_, _ = testutil.NewMiniredis(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	got, err := repo.Search(ctx, "jazz")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.Create(ctx, &models.Tag{Name: "Jazz"}))

	got, err = repo.Search(ctx, "jazz")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jazz", got[0].Name)
}

func TestTagRepository_SearchCacheKeepsPaddedQueriesApart(t *testing.T) {
	db := setupSQLite(t)
	_, _ = testutil.NewMiniredis(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	mustTags(t, db, "foo")

	padded, err := repo.Search(ctx, " foo")
	require.NoError(t, err)
	assert.Empty(t, padded)

	plain, err := repo.Search(ctx, "foo")
	require.NoError(t, err)
	require.Len(t, plain, 1)
	assert.Equal(t, "foo", plain[0].Name)

	padded, err = repo.Search(ctx, " foo")
	require.NoError(t, err)
	assert.Empty(t, padded)
}

func TestUserDeleteCascades(t *testing.T) {
	db := setupSQLite(t)
	users := NewUserRepository(db)
	media := NewMediaRepository(db)
	ctx := context.Background()

	alice := mustUser(t, db, "alice")
	tags := mustTags(t, db, "sun")
	m := &models.Media{UserID: alice.ID, MediaType: models.MediaKindImage, Permalink: "p", StorageFile: "s", Category: 1, TagIDs: []uint{tags[0].ID}}
	require.NoError(t, media.Create(ctx, m))

	require.NoError(t, users.Delete(ctx, alice.ID))

	var mediaCount, joinCount, tagCount int64
	db.Model(&models.Media{}).Count(&mediaCount)
	db.Model(&models.MediaTag{}).Count(&joinCount)
	db.Model(&models.Tag{}).Count(&tagCount)
	assert.Zero(t, mediaCount)
	assert.Zero(t, joinCount)
	assert.Equal(t, int64(1), tagCount)

	_, err := users.GetByID(ctx, alice.ID)
	assert.Equal(t, 404, models.StatusFor(err))
}

func TestUserTagRepository(t *testing.T) {
	db := setupSQLite(t)
	repo := NewUserTagRepository(db)
	ctx := context.Background()

	alice := mustUser(t, db, "alice")
	bob := mustUser(t, db, "bob")
	tags := mustTags(t, db, "friend")

	ut := models.NewUserTag(alice.ID, tags[0].ID, bob)
	require.NoError(t, repo.Create(ctx, ut))

	err := repo.Create(ctx, &models.UserTag{UserID: alice.ID, TagID: tags[0].ID, SubjectKind: models.TaggablePost, SubjectID: 1})
	assert.Equal(t, 400, models.StatusFor(err))

	ok, err := repo.SubjectExists(ctx, models.TaggableUser, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SubjectExists(ctx, models.TaggableEvent, 12)
	require.NoError(t, err)
	assert.False(t, ok)

	rows, err := repo.ListByUser(ctx, alice.ID, UserTagFilter{Kind: models.TaggableUser}, Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, bob.ID, rows[0].SubjectID)

	rows, err = repo.ListByUser(ctx, bob.ID, UserTagFilter{}, Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
