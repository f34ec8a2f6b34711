package database

import "qipu/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Tag{},
		&models.Media{},
		&models.Post{},
		&models.PostTag{},
		&models.MediaTag{},
		&models.Event{},
		&models.Attendee{},
		&models.RelationshipLabel{},
		&models.Contact{},
		&models.UserTag{},
		&models.Unique{},
	}
}
