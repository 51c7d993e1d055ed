package models

import "time"

// TeamRating is one team's efficiency profile for a season, refreshed daily
// from the ratings feed.
type TeamRating struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	Season   int    `gorm:"not null;uniqueIndex:uq_team_ratings_season_team"`
	TeamName string `gorm:"type:varchar(80);not null;uniqueIndex:uq_team_ratings_season_team"`

	Conference string  `gorm:"type:varchar(40)"`
	Games      int     `gorm:"not null"`
	Wins       int     `gorm:"not null"`
	Losses     int     `gorm:"not null"`
	AdjOffense float64 `gorm:"not null"`
	AdjDefense float64 `gorm:"not null"`
	AdjTempo   float64 `gorm:"not null"`
	Barthag    float64 `gorm:"not null"`
	Rank       int     `gorm:"not null"`

	SyncedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (TeamRating) TableName() string {
	return "team_ratings"
}
