package db

import (
	"linetracker/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.TeamRating{},
		&models.Prediction{},
		&models.LineSnapshot{},
		&models.SessionSummary{},
	)
}
