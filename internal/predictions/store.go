package predictions

import (
	"context"
	"fmt"
	"time"

	"linetracker/internal/market"
	"linetracker/internal/repository"
)

// FromStore warms a Table from the predictions table, typically with the
// current slate's date. Rows with out-of-range probabilities are rejected
// rather than clamped.
func FromStore(ctx context.Context, repo repository.Repository, date time.Time) (*Table, error) {
	rows, err := repo.ListPredictionsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	table := NewTable()
	for _, row := range rows {
		if err := table.Put(row.GameID, market.Kind(row.Market), row.Side, row.Probability); err != nil {
			return nil, err
		}
	}
	return table, nil
}
