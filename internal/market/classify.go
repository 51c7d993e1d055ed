package market

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"linetracker/internal/feed"
)

// The upstream feed does not label derivative markets (team totals, props,
// misrouted in-game values) separately from primary ones; magnitude and
// period are the only reliable discriminators.
const (
	MaxPeriod       = 2
	MaxSpreadPoints = 50.0
	TotalFloor      = 110.0
	TotalCeiling    = 210.0
)

// Verdict is the classifier's decision for one raw event.
type Verdict int

const (
	// VerdictAccept: the event is a primary full-game or half line.
	VerdictAccept Verdict = iota
	// VerdictDerivative: the event fails the magnitude/period filter. The
	// returned LineChange is re-tagged for audit logging and must not be
	// stored.
	VerdictDerivative
	// VerdictMalformed: the payload is not a line-change message.
	VerdictMalformed
)

// lineMessage is the feed schema for a lineChanged invocation, as documented
// by the upstream service. Absent numerics stay nil.
type lineMessage struct {
	EventID   int64    `json:"eventId"`
	Market    string   `json:"marketType"`
	Period    *int     `json:"periodNumber"`
	Team      *string  `json:"team"`
	Points    *float64 `json:"points"`
	PriceA    *int     `json:"priceA"`
	PriceB    *int     `json:"priceB"`
	Timestamp string   `json:"timestamp"`
	MovedBy   *string  `json:"movedBy"`
}

// Classify turns a raw hub event into at most one LineChange. It is a pure
// function of its input: no I/O, no shared state.
func Classify(ev feed.RawEvent) (*LineChange, Verdict) {
	if !strings.EqualFold(ev.Method, "lineChanged") || len(ev.Args) == 0 {
		return nil, VerdictMalformed
	}
	var msg lineMessage
	if err := json.Unmarshal(ev.Args[0], &msg); err != nil {
		return nil, VerdictMalformed
	}
	if msg.EventID <= 0 {
		return nil, VerdictMalformed
	}

	kind, ok := parseKind(msg.Market)
	if !ok {
		return nil, VerdictMalformed
	}
	// Moneylines carry prices only; everything else needs a point value.
	if kind == Moneyline && msg.Points != nil {
		return nil, VerdictMalformed
	}
	if kind != Moneyline && msg.Points == nil {
		return nil, VerdictMalformed
	}

	period := 0
	if msg.Period != nil {
		period = *msg.Period
	}

	change := &LineChange{
		GameID:     msg.EventID,
		Market:     kind,
		Period:     period,
		Team:       msg.Team,
		LinePoints: msg.Points,
		PriceA:     msg.PriceA,
		PriceB:     msg.PriceB,
		Timestamp:  parseTimestamp(msg.Timestamp),
		MovedBy:    msg.MovedBy,
	}

	if derivative(change) {
		// Re-tag so audit consumers can see what was filtered.
		if change.Market == Spread || change.Market == Total {
			change.Market = TeamTotal
		}
		return change, VerdictDerivative
	}
	return change, VerdictAccept
}

// derivative reports whether the row is a team total, player prop, or a
// misclassified in-game value rather than a primary market.
func derivative(c *LineChange) bool {
	if c.Period > MaxPeriod || c.Period < 0 {
		return true
	}
	if c.LinePoints == nil {
		return false
	}
	switch c.Market {
	case Spread:
		return math.Abs(*c.LinePoints) > MaxSpreadPoints
	case Total:
		return *c.LinePoints < TotalFloor || *c.LinePoints > TotalCeiling
	}
	return false
}

func parseKind(tag string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "spread", "ps", "pointspread":
		return Spread, true
	case "total", "ou", "overunder":
		return Total, true
	case "moneyline", "ml":
		return Moneyline, true
	}
	return "", false
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC()
	}
	return time.Now().UTC()
}
