package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linetracker/internal/oddsmath"
	"linetracker/internal/predictions"
	"linetracker/internal/session"
)

// SessionHandler exposes the tracker's read-only snapshot: state, counters,
// tracked lines, and edge assessments for sides the model covers.
type SessionHandler struct {
	Session     *session.Session
	Predictions predictions.Provider
	Threshold   float64
	Logger      *zap.Logger
}

func (h *SessionHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/session", h.session)
	r.GET("/api/v1/lines", h.lines)
	r.GET("/api/v1/edges", h.edges)
}

func (h *SessionHandler) session(c *gin.Context) {
	if h.Session == nil {
		Error(c, http.StatusServiceUnavailable, "no session", nil)
		return
	}
	snap := h.Session.Snapshot()
	Ok(c, gin.H{
		"state":      snap.State,
		"counters":   snap.Counters,
		"lines":      len(snap.Records),
		"started_at": snap.StartedAt,
	}, nil)
}

type lineView struct {
	GameID        int64    `json:"game_id"`
	Market        string   `json:"market"`
	Period        int      `json:"period"`
	Team          *string  `json:"team,omitempty"`
	OpeningPoints *float64 `json:"opening_points,omitempty"`
	CurrentPoints *float64 `json:"current_points,omitempty"`
	Movement      *float64 `json:"movement,omitempty"`
	PriceA        *int     `json:"price_a,omitempty"`
	PriceB        *int     `json:"price_b,omitempty"`
	PriceDriftA   *int     `json:"price_drift_a,omitempty"`
	PriceDriftB   *int     `json:"price_drift_b,omitempty"`
	Steam         bool     `json:"steam"`
}

func (h *SessionHandler) lines(c *gin.Context) {
	if h.Session == nil {
		Error(c, http.StatusServiceUnavailable, "no session", nil)
		return
	}
	snap := h.Session.Snapshot()
	views := make([]lineView, 0, len(snap.Records))
	for _, rec := range snap.Records {
		views = append(views, lineView{
			GameID:        rec.Current.GameID,
			Market:        string(rec.Current.Market),
			Period:        rec.Current.Period,
			Team:          rec.Current.Team,
			OpeningPoints: rec.Opening.LinePoints,
			CurrentPoints: rec.Current.LinePoints,
			Movement:      rec.Movement(),
			PriceA:        rec.Current.PriceA,
			PriceB:        rec.Current.PriceB,
			PriceDriftA:   rec.PriceDriftA(),
			PriceDriftB:   rec.PriceDriftB(),
			Steam:         rec.Current.IsSteam,
		})
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].GameID != views[j].GameID {
			return views[i].GameID < views[j].GameID
		}
		return views[i].Market < views[j].Market
	})
	Ok(c, views, map[string]any{"count": len(views)})
}

func (h *SessionHandler) edges(c *gin.Context) {
	if h.Session == nil {
		Error(c, http.StatusServiceUnavailable, "no session", nil)
		return
	}
	if h.Predictions == nil {
		Ok(c, []oddsmath.EdgeAssessment{}, map[string]any{"count": 0})
		return
	}
	snap := h.Session.Snapshot()
	out := make([]gin.H, 0)
	for _, rec := range snap.Records {
		cur := rec.Current
		if cur.PriceA == nil {
			continue
		}
		side := "over"
		if cur.Team != nil {
			side = *cur.Team
		}
		prob, ok := h.Predictions.Probability(cur.GameID, cur.Market, side)
		if !ok {
			continue
		}
		assessment, err := oddsmath.Assess(side, prob, *cur.PriceA, h.Threshold)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("edge report row skipped", zap.Int64("game_id", cur.GameID), zap.Error(err))
			}
			continue
		}
		out = append(out, gin.H{
			"game_id":    cur.GameID,
			"market":     cur.Market,
			"period":     cur.Period,
			"assessment": assessment,
		})
	}
	Ok(c, out, map[string]any{"count": len(out)})
}
