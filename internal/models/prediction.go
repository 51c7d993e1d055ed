package models

import "time"

// Prediction is one model probability for a game/market/side, produced by
// the offline training pipeline and consumed read-only by the tracker.
type Prediction struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	GameID int64  `gorm:"not null;uniqueIndex:uq_predictions_key"`
	Market string `gorm:"type:varchar(20);not null;uniqueIndex:uq_predictions_key"`
	Side   string `gorm:"type:varchar(60);not null;uniqueIndex:uq_predictions_key"`

	Probability float64   `gorm:"not null"`
	Model       string    `gorm:"type:varchar(60)"`
	GameDate    time.Time `gorm:"type:date;index"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Prediction) TableName() string {
	return "predictions"
}
