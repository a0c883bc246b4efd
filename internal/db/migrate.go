package db

import (
	"fmt"

	"github.com/zulandar/waybridge/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Session{},
		&models.SessionInteraction{},
		&models.BridgeThread{},
		&models.BridgeMessage{},
		&models.BridgeMirrorLink{},
		&models.BridgeMirrorJob{},
	}
}

// AutoMigrate creates or updates all waybridge tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
