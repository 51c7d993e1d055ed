// Package ratings refreshes team efficiency ratings from the Barttorvik
// JSON feed. It runs on a daily cron and feeds the offline model pipeline;
// the live tracker never reads it.
package ratings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"linetracker/internal/models"
	"linetracker/internal/repository"
)

// barttorvikTeam is one row of the season results JSON.
type barttorvikTeam struct {
	Team     string  `json:"team"`
	Conf     string  `json:"conf"`
	Games    int     `json:"g"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	AdjOE    float64 `json:"adjoe"`
	AdjDE    float64 `json:"adjde"`
	AdjTempo float64 `json:"adj_t"`
	Barthag  float64 `json:"barthag"`
	Rank     int     `json:"rk"`
}

type Syncer struct {
	Repo    repository.Repository
	Logger  *zap.Logger
	HTTP    *http.Client
	BaseURL string
	Season  int
	Retries int
}

// Sync fetches the current season's ratings and upserts them.
func (s *Syncer) Sync(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	teams, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch ratings: %w", err)
	}
	now := time.Now().UTC()
	stored := 0
	for _, t := range teams {
		if strings.TrimSpace(t.Team) == "" {
			continue
		}
		item := &models.TeamRating{
			Season:     s.Season,
			TeamName:   t.Team,
			Conference: t.Conf,
			Games:      t.Games,
			Wins:       t.Wins,
			Losses:     t.Losses,
			AdjOffense: t.AdjOE,
			AdjDefense: t.AdjDE,
			AdjTempo:   t.AdjTempo,
			Barthag:    t.Barthag,
			Rank:       t.Rank,
			SyncedAt:   now,
		}
		if err := s.Repo.UpsertTeamRating(ctx, item); err != nil {
			return fmt.Errorf("upsert %s: %w", t.Team, err)
		}
		stored++
	}
	if s.Logger != nil {
		s.Logger.Info("team ratings synced", zap.Int("season", s.Season), zap.Int("teams", stored))
	}
	return nil
}

func (s *Syncer) fetch(ctx context.Context) ([]barttorvikTeam, error) {
	url := fmt.Sprintf("%s/%d_team_results.json", strings.TrimRight(s.BaseURL, "/"), s.Season)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "linetracker-ratings-sync/1.0")

	httpClient := s.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	retries := s.Retries
	if retries <= 0 {
		retries = 3
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			if err := sleepWithJitter(ctx, time.Duration(attempt)*2*time.Second); err != nil {
				return nil, err
			}
		}
		resp, err := httpClient.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("ratings feed status %d", resp.StatusCode)
			// Client errors will not heal on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return nil, lastErr
			}
			continue
		}
		var teams []barttorvikTeam
		err = json.NewDecoder(resp.Body).Decode(&teams)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return teams, nil
	}
	return nil, lastErr
}

func sleepWithJitter(ctx context.Context, base time.Duration) error {
	jitter := time.Duration(rand.Int63n(int64(time.Second)))
	timer := time.NewTimer(base + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
