package database

import "yatube/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// in foreign-key dependency order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	}
}
