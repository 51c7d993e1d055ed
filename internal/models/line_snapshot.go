package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// LineSnapshot is a periodic flush of one tracked line's opening/current
// pair. Line values are stored as numerics so half-points survive exactly.
type LineSnapshot struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	GameID int64  `gorm:"not null;index:idx_line_snapshots_key"`
	Market string `gorm:"type:varchar(20);not null;index:idx_line_snapshots_key"`
	Period int    `gorm:"not null;index:idx_line_snapshots_key"`
	Team   *string `gorm:"type:varchar(60);index:idx_line_snapshots_key"`

	OpeningPoints decimal.NullDecimal `gorm:"type:numeric(6,2)"`
	CurrentPoints decimal.NullDecimal `gorm:"type:numeric(6,2)"`
	Movement      decimal.NullDecimal `gorm:"type:numeric(6,2)"`

	OpeningPriceA *int `gorm:""`
	OpeningPriceB *int `gorm:""`
	CurrentPriceA *int `gorm:""`
	CurrentPriceB *int `gorm:""`

	Steam   bool           `gorm:"not null;default:false"`
	Payload datatypes.JSON `gorm:"type:jsonb"`

	CapturedAt time.Time `gorm:"type:timestamptz;not null;index"`
}

func (LineSnapshot) TableName() string {
	return "line_snapshots"
}
