package market

import (
	"math"
	"strings"
)

// DefaultSteamThreshold is the line move, in points, treated as steam when
// it happens in a single repricing.
const DefaultSteamThreshold = 1.0

// defaultMovers are moved-by attributions that identify automated or
// large-market repricers upstream.
var defaultMovers = []string{"steam", "autoprice", "velocity"}

// Detector classifies a change as a steam move. Pure given its inputs;
// the threshold comes from configuration, not a hidden constant.
type Detector struct {
	Threshold float64
	Movers    []string
}

func NewDetector(threshold float64) Detector {
	if threshold <= 0 {
		threshold = DefaultSteamThreshold
	}
	return Detector{Threshold: threshold, Movers: defaultMovers}
}

// IsSteam is true when the upstream attribution names a known repricer, or
// when the line jumped at least Threshold points from the prior current
// value for the same key.
func (d Detector) IsSteam(change LineChange, prior *Record) bool {
	if d.movedBySteam(change.MovedBy) {
		return true
	}
	if prior == nil || change.LinePoints == nil || prior.Current.LinePoints == nil {
		return false
	}
	return math.Abs(*change.LinePoints-*prior.Current.LinePoints) >= d.Threshold
}

func (d Detector) movedBySteam(movedBy *string) bool {
	if movedBy == nil {
		return false
	}
	attribution := strings.ToLower(strings.TrimSpace(*movedBy))
	if attribution == "" {
		return false
	}
	movers := d.Movers
	if len(movers) == 0 {
		movers = defaultMovers
	}
	for _, m := range movers {
		if strings.Contains(attribution, m) {
			return true
		}
	}
	return false
}
