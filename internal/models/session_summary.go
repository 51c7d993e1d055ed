package models

import "time"

// SessionSummary is the bookkeeping row written when a tracking session
// ends: what it saw and how it stopped.
type SessionSummary struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	StartedAt time.Time `gorm:"type:timestamptz;not null"`
	EndedAt   time.Time `gorm:"type:timestamptz;not null;index"`

	TotalChanges uint64 `gorm:"not null"`
	SteamMoves   uint64 `gorm:"not null"`
	ValueAlerts  uint64 `gorm:"not null"`
	Malformed    uint64 `gorm:"not null"`
	Filtered     uint64 `gorm:"not null"`
	LinesTracked int    `gorm:"not null"`

	FinalState string `gorm:"type:varchar(20);not null"`
}

func (SessionSummary) TableName() string {
	return "session_summaries"
}
