package predictions

import (
	"context"
	"strings"
	"testing"
	"time"

	"linetracker/internal/market"
	"linetracker/internal/models"
)

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"game_id,market,side,probability",
		"501,spread,Duke,0.62",
		"501,total,over,0.54",
		"502,moneyline,UNC,0.71",
	}, "\n")

	table, err := parseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len = %d, want 3", table.Len())
	}

	prob, ok := table.Probability(501, market.Spread, "duke")
	if !ok || prob != 0.62 {
		t.Errorf("Probability(501, spread, duke) = (%v, %v), want (0.62, true)", prob, ok)
	}
	// Lookups are case and whitespace insensitive on side.
	if _, ok := table.Probability(502, market.Moneyline, "  UNC "); !ok {
		t.Error("side normalization failed")
	}
	if _, ok := table.Probability(999, market.Spread, "duke"); ok {
		t.Error("unknown game should miss")
	}
}

func TestParseCSVWithoutHeader(t *testing.T) {
	table, err := parseCSV(strings.NewReader("501,spread,duke,0.62\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("Len = %d, want 1", table.Len())
	}
}

func TestParseCSVRejectsBadRows(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad game id", "abc,spread,duke,0.62\n"},
		{"bad probability", "501,spread,duke,lots\n"},
		{"probability too high", "501,spread,duke,1.2\n"},
		{"probability zero", "501,spread,duke,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseCSV(strings.NewReader(tt.input)); err == nil {
				t.Fatal("want error")
			}
		})
	}
}

func TestTablePutValidatesRange(t *testing.T) {
	table := NewTable()
	if err := table.Put(501, market.Spread, "duke", 0.5); err != nil {
		t.Fatalf("valid put: %v", err)
	}
	for _, prob := range []float64{0, 1, -0.1, 1.1} {
		if err := table.Put(501, market.Spread, "duke", prob); err == nil {
			t.Errorf("Put(%f): want error", prob)
		}
	}
}

type stubPredictionRepo struct {
	rows []models.Prediction
	err  error
}

func (r *stubPredictionRepo) ListPredictionsByDate(ctx context.Context, date time.Time) ([]models.Prediction, error) {
	return r.rows, r.err
}

func (r *stubPredictionRepo) UpsertTeamRating(ctx context.Context, item *models.TeamRating) error {
	return nil
}
func (r *stubPredictionRepo) ListTeamRatings(ctx context.Context, season int) ([]models.TeamRating, error) {
	return nil, nil
}
func (r *stubPredictionRepo) UpsertPrediction(ctx context.Context, item *models.Prediction) error {
	return nil
}
func (r *stubPredictionRepo) InsertLineSnapshots(ctx context.Context, items []models.LineSnapshot) error {
	return nil
}
func (r *stubPredictionRepo) DeleteLineSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
func (r *stubPredictionRepo) InsertSessionSummary(ctx context.Context, item *models.SessionSummary) error {
	return nil
}

func TestFromStore(t *testing.T) {
	repo := &stubPredictionRepo{rows: []models.Prediction{
		{GameID: 501, Market: "spread", Side: "Duke", Probability: 0.62},
		{GameID: 501, Market: "total", Side: "over", Probability: 0.54},
	}}
	table, err := FromStore(context.Background(), repo, time.Now())
	if err != nil {
		t.Fatalf("FromStore: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}
	if prob, ok := table.Probability(501, market.Spread, "duke"); !ok || prob != 0.62 {
		t.Errorf("Probability = (%v, %v), want (0.62, true)", prob, ok)
	}
}

func TestFromStoreRejectsBadRow(t *testing.T) {
	repo := &stubPredictionRepo{rows: []models.Prediction{
		{GameID: 501, Market: "spread", Side: "duke", Probability: 1.4},
	}}
	if _, err := FromStore(context.Background(), repo, time.Now()); err == nil {
		t.Fatal("want error for out-of-range probability")
	}
}
