package session

import (
	"go.uber.org/zap"

	"linetracker/internal/market"
	"linetracker/internal/oddsmath"
)

// Observer receives pipeline callbacks. The three monitor front-ends
// (terminal table, log tail, alert fan-out) all hang off this interface
// instead of reimplementing the state machine.
type Observer interface {
	OnStateChange(prev, next State)
	OnLineChange(rec market.Record, change market.LineChange)
	OnSteamMove(rec market.Record, change market.LineChange)
	OnValueAlert(change market.LineChange, assessment oddsmath.EdgeAssessment)
}

// LogObserver renders session activity as structured log lines.
type LogObserver struct {
	Logger *zap.Logger
}

func (o *LogObserver) OnStateChange(prev, next State) {}

func (o *LogObserver) OnLineChange(rec market.Record, change market.LineChange) {
	if o == nil || o.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.Int64("game_id", change.GameID),
		zap.String("market", string(change.Market)),
		zap.Int("period", change.Period),
	}
	if change.Team != nil {
		fields = append(fields, zap.String("team", *change.Team))
	}
	if change.LinePoints != nil {
		fields = append(fields, zap.Float64("line", *change.LinePoints))
	}
	if mv := rec.Movement(); mv != nil {
		fields = append(fields, zap.Float64("movement", *mv))
	}
	if change.PriceA != nil {
		fields = append(fields, zap.Int("price_a", *change.PriceA))
	}
	if change.PriceB != nil {
		fields = append(fields, zap.Int("price_b", *change.PriceB))
	}
	o.Logger.Info("line changed", fields...)
}

func (o *LogObserver) OnSteamMove(rec market.Record, change market.LineChange) {
	if o == nil || o.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.Int64("game_id", change.GameID),
		zap.String("market", string(change.Market)),
	}
	if change.LinePoints != nil {
		fields = append(fields, zap.Float64("line", *change.LinePoints))
	}
	if change.MovedBy != nil {
		fields = append(fields, zap.String("moved_by", *change.MovedBy))
	}
	o.Logger.Warn("steam move", fields...)
}

func (o *LogObserver) OnValueAlert(change market.LineChange, assessment oddsmath.EdgeAssessment) {
	if o == nil || o.Logger == nil {
		return
	}
	o.Logger.Info("value alert",
		zap.Int64("game_id", change.GameID),
		zap.String("market", string(change.Market)),
		zap.String("side", assessment.Side),
		zap.Float64("model_prob", assessment.ModelProb),
		zap.Float64("implied_prob", assessment.ImpliedProb),
		zap.Float64("edge", assessment.Edge),
		zap.Int("price", assessment.MarketPrice),
	)
}
