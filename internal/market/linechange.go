package market

import (
	"fmt"
	"time"
)

// Kind is the market category a line belongs to.
type Kind string

const (
	Spread    Kind = "spread"
	Total     Kind = "total"
	Moneyline Kind = "moneyline"

	// TeamTotal marks a derivative row re-tagged by the classifier. It is
	// reported for audit purposes only and never reaches the store.
	TeamTotal Kind = "team_total"
)

// Key identifies one tracked line: a game, a market, a period, and the side
// the row applies to (empty for totals).
type Key struct {
	GameID int64
	Market Kind
	Period int
	Team   string
}

func (k Key) String() string {
	if k.Team == "" {
		return fmt.Sprintf("%d/%s/p%d", k.GameID, k.Market, k.Period)
	}
	return fmt.Sprintf("%d/%s/p%d/%s", k.GameID, k.Market, k.Period, k.Team)
}

// LineChange is one accepted feed message. Numeric fields are pointers
// because "no line" and "zero line" are different things near pick'em.
type LineChange struct {
	GameID     int64
	Market     Kind
	Period     int
	Team       *string
	LinePoints *float64
	PriceA     *int
	PriceB     *int
	Timestamp  time.Time
	MovedBy    *string
	IsSteam    bool
}

func (c LineChange) Key() Key {
	team := ""
	if c.Team != nil {
		team = *c.Team
	}
	return Key{GameID: c.GameID, Market: c.Market, Period: c.Period, Team: team}
}

// Record pairs the first line ever seen for a key with the latest one.
// Opening is write-once; Current is replaced on every accepted update.
type Record struct {
	Opening LineChange
	Current LineChange
}

// Movement is current minus opening points. Nil when either side carries no
// point value (moneylines, or a row that never had a line posted).
func (r Record) Movement() *float64 {
	if r.Opening.LinePoints == nil || r.Current.LinePoints == nil {
		return nil
	}
	v := *r.Current.LinePoints - *r.Opening.LinePoints
	return &v
}

// PriceDriftA is the change in the side-A price since open.
func (r Record) PriceDriftA() *int {
	return priceDrift(r.Opening.PriceA, r.Current.PriceA)
}

// PriceDriftB is the change in the side-B price since open.
func (r Record) PriceDriftB() *int {
	return priceDrift(r.Opening.PriceB, r.Current.PriceB)
}

func priceDrift(open, cur *int) *int {
	if open == nil || cur == nil {
		return nil
	}
	v := *cur - *open
	return &v
}
