package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"linetracker/internal/market"
	"linetracker/internal/models"
	"linetracker/internal/repository"
)

// SnapshotWriter flushes the session's line records to storage on a cron
// interval and writes the bookkeeping summary when the session ends. It
// lives outside the event path so persistence latency never stalls the
// stream consumer.
type SnapshotWriter struct {
	Session *Session
	Repo    repository.Repository
	Logger  *zap.Logger
}

// Flush persists one row per tracked line as of now.
func (w *SnapshotWriter) Flush(ctx context.Context) error {
	if w == nil || w.Session == nil || w.Repo == nil {
		return nil
	}
	snap := w.Session.Snapshot()
	if len(snap.Records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]models.LineSnapshot, 0, len(snap.Records))
	for _, rec := range snap.Records {
		rows = append(rows, snapshotRow(rec, now))
	}
	if err := w.Repo.InsertLineSnapshots(ctx, rows); err != nil {
		return err
	}
	if w.Logger != nil {
		w.Logger.Debug("line snapshots flushed", zap.Int("rows", len(rows)))
	}
	return nil
}

// Summarize records how the session ended.
func (w *SnapshotWriter) Summarize(ctx context.Context) error {
	if w == nil || w.Session == nil || w.Repo == nil {
		return nil
	}
	snap := w.Session.Snapshot()
	return w.Repo.InsertSessionSummary(ctx, &models.SessionSummary{
		StartedAt:    snap.StartedAt,
		EndedAt:      time.Now().UTC(),
		TotalChanges: snap.Counters.TotalChanges,
		SteamMoves:   snap.Counters.SteamMoves,
		ValueAlerts:  snap.Counters.ValueAlerts,
		Malformed:    snap.Counters.Malformed,
		Filtered:     snap.Counters.Filtered,
		LinesTracked: len(snap.Records),
		FinalState:   string(snap.State),
	})
}

func snapshotRow(rec market.Record, capturedAt time.Time) models.LineSnapshot {
	cur := rec.Current
	payload, _ := json.Marshal(map[string]any{
		"opening_at": rec.Opening.Timestamp,
		"current_at": cur.Timestamp,
		"moved_by":   cur.MovedBy,
	})
	return models.LineSnapshot{
		GameID:        cur.GameID,
		Market:        string(cur.Market),
		Period:        cur.Period,
		Team:          cur.Team,
		OpeningPoints: nullDecimal(rec.Opening.LinePoints),
		CurrentPoints: nullDecimal(cur.LinePoints),
		Movement:      nullDecimal(rec.Movement()),
		OpeningPriceA: rec.Opening.PriceA,
		OpeningPriceB: rec.Opening.PriceB,
		CurrentPriceA: cur.PriceA,
		CurrentPriceB: cur.PriceB,
		Steam:         cur.IsSteam,
		Payload:       datatypes.JSON(payload),
		CapturedAt:    capturedAt,
	}
}

func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*v), Valid: true}
}
