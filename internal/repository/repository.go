package repository

import (
	"context"
	"time"

	"linetracker/internal/models"
)

// Repository is the storage surface the tracker's collaborators use. The
// live core itself never blocks on it; persistence runs on cron flushes and
// session boundaries.
type Repository interface {
	UpsertTeamRating(ctx context.Context, item *models.TeamRating) error
	ListTeamRatings(ctx context.Context, season int) ([]models.TeamRating, error)

	UpsertPrediction(ctx context.Context, item *models.Prediction) error
	ListPredictionsByDate(ctx context.Context, date time.Time) ([]models.Prediction, error)

	InsertLineSnapshots(ctx context.Context, items []models.LineSnapshot) error
	DeleteLineSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	InsertSessionSummary(ctx context.Context, item *models.SessionSummary) error
}
