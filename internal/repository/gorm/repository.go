package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linetracker/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UpsertTeamRating(ctx context.Context, item *models.TeamRating) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.TeamName) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "season"}, {Name: "team_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"conference",
			"games",
			"wins",
			"losses",
			"adj_offense",
			"adj_defense",
			"adj_tempo",
			"barthag",
			"rank",
			"synced_at",
		}),
	}).Create(item).Error
}

func (s *Store) ListTeamRatings(ctx context.Context, season int) ([]models.TeamRating, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.TeamRating
	if err := s.db.WithContext(ctx).
		Model(&models.TeamRating{}).
		Where("season = ?", season).
		Order("rank asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpsertPrediction(ctx context.Context, item *models.Prediction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "game_id"}, {Name: "market"}, {Name: "side"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"probability",
			"model",
			"game_date",
		}),
	}).Create(item).Error
}

func (s *Store) ListPredictionsByDate(ctx context.Context, date time.Time) ([]models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Prediction
	query := s.db.WithContext(ctx).Model(&models.Prediction{})
	if !date.IsZero() {
		query = query.Where("game_date = ?", date.Format("2006-01-02"))
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertLineSnapshots(ctx context.Context, items []models.LineSnapshot) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(items, 200).Error
}

func (s *Store) DeleteLineSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil || cutoff.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("captured_at < ?", cutoff).
		Delete(&models.LineSnapshot{})
	return res.RowsAffected, res.Error
}

func (s *Store) InsertSessionSummary(ctx context.Context, item *models.SessionSummary) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}
