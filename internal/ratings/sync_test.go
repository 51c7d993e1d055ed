package ratings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"linetracker/internal/models"
)

type stubRatingRepo struct {
	upserted []models.TeamRating
}

func (r *stubRatingRepo) UpsertTeamRating(ctx context.Context, item *models.TeamRating) error {
	r.upserted = append(r.upserted, *item)
	return nil
}

func (r *stubRatingRepo) ListTeamRatings(ctx context.Context, season int) ([]models.TeamRating, error) {
	return r.upserted, nil
}

func (r *stubRatingRepo) UpsertPrediction(ctx context.Context, item *models.Prediction) error {
	return nil
}
func (r *stubRatingRepo) ListPredictionsByDate(ctx context.Context, date time.Time) ([]models.Prediction, error) {
	return nil, nil
}
func (r *stubRatingRepo) InsertLineSnapshots(ctx context.Context, items []models.LineSnapshot) error {
	return nil
}
func (r *stubRatingRepo) DeleteLineSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
func (r *stubRatingRepo) InsertSessionSummary(ctx context.Context, item *models.SessionSummary) error {
	return nil
}

func TestSyncUpsertsSeasonResults(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"team":"Duke","conf":"ACC","g":30,"wins":26,"losses":4,"adjoe":121.3,"adjde":92.1,"adj_t":68.4,"barthag":0.963,"rk":4},
			{"team":"","conf":"","g":0,"wins":0,"losses":0,"adjoe":0,"adjde":0,"adj_t":0,"barthag":0,"rk":0},
			{"team":"UNC","conf":"ACC","g":31,"wins":24,"losses":7,"adjoe":118.9,"adjde":95.0,"adj_t":70.1,"barthag":0.921,"rk":11}
		]`))
	}))
	defer srv.Close()

	repo := &stubRatingRepo{}
	syncer := &Syncer{Repo: repo, BaseURL: srv.URL, Season: 2026}
	if err := syncer.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if gotPath != "/2026_team_results.json" {
		t.Errorf("path = %q, want /2026_team_results.json", gotPath)
	}
	if len(repo.upserted) != 2 {
		t.Fatalf("upserted %d teams, want 2 (blank team skipped)", len(repo.upserted))
	}
	duke := repo.upserted[0]
	if duke.TeamName != "Duke" || duke.Season != 2026 || duke.AdjOffense != 121.3 || duke.Rank != 4 {
		t.Errorf("first row = %+v", duke)
	}
	if duke.SyncedAt.IsZero() {
		t.Error("SyncedAt not stamped")
	}
}

func TestSyncClientErrorDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "no such season", http.StatusNotFound)
	}))
	defer srv.Close()

	syncer := &Syncer{Repo: &stubRatingRepo{}, BaseURL: srv.URL, Season: 1999, Retries: 3}
	if err := syncer.Sync(context.Background()); err == nil {
		t.Fatal("want error for 404")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("requests = %d, a 404 must not be retried", n)
	}
}

func TestSyncWithoutRepoIsNoop(t *testing.T) {
	syncer := &Syncer{}
	if err := syncer.Sync(context.Background()); err != nil {
		t.Fatalf("nil repo should be a noop, got %v", err)
	}
}
