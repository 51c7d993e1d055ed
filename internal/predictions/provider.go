// Package predictions supplies model probabilities to the tracker. The
// tracker never fits or stores a model; probabilities always come from the
// offline pipeline, by file or by table.
package predictions

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"linetracker/internal/market"
)

// Provider answers "what does the model think of this side" for one
// game/market. The second return is false when no prediction exists.
type Provider interface {
	Probability(gameID int64, kind market.Kind, side string) (float64, bool)
}

type key struct {
	gameID int64
	kind   market.Kind
	side   string
}

// Table is an in-memory Provider filled from a file or the database.
type Table struct {
	mu    sync.RWMutex
	probs map[key]float64
}

func NewTable() *Table {
	return &Table{probs: map[key]float64{}}
}

func (t *Table) Put(gameID int64, kind market.Kind, side string, prob float64) error {
	if prob <= 0 || prob >= 1 {
		return fmt.Errorf("probability %.4f for game %d out of (0,1)", prob, gameID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.probs[key{gameID: gameID, kind: kind, side: normalizeSide(side)}] = prob
	return nil
}

func (t *Table) Probability(gameID int64, kind market.Kind, side string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	prob, ok := t.probs[key{gameID: gameID, kind: kind, side: normalizeSide(side)}]
	return prob, ok
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.probs)
}

// LoadFile reads the offline model's prediction file: a CSV with a header
// and rows game_id,market,side,probability.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open predictions: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	table := NewTable()
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("predictions line %d: %w", line+1, err)
		}
		line++
		if line == 1 && strings.EqualFold(row[0], "game_id") {
			continue
		}
		if len(row) < 4 {
			return nil, fmt.Errorf("predictions line %d: want 4 columns, got %d", line, len(row))
		}
		gameID, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("predictions line %d: game_id: %w", line, err)
		}
		prob, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("predictions line %d: probability: %w", line, err)
		}
		kind := market.Kind(strings.ToLower(strings.TrimSpace(row[1])))
		if err := table.Put(gameID, kind, row[2], prob); err != nil {
			return nil, fmt.Errorf("predictions line %d: %w", line, err)
		}
	}
	return table, nil
}

func normalizeSide(side string) string {
	return strings.ToLower(strings.TrimSpace(side))
}
