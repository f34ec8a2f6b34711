package database

import (
	"testing"

	modelspkg "qipu/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPersistentModels_IncludesUserTag(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.UserTag); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include UserTag")
}

func TestPersistentModels_AutoMigrateCreatesEveryTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(PersistentModels()...))

	for _, table := range []string{
		"users", "tags", "media", "posts", "post_tags", "media_tags", "events",
		"attendees", "relationship_labels", "contacts", "contact_labels", "user_tags", "uniques",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
