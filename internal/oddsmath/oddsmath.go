// Package oddsmath converts American prices to probabilities and measures
// betting edge against model-supplied probabilities.
package oddsmath

import (
	"errors"
	"math"
)

var (
	// ErrInvalidOdds is returned for a zero American price. Zero is not a
	// valid quote in the American format.
	ErrInvalidOdds = errors.New("american odds cannot be zero")
	// ErrInvalidProbability is returned when a model probability falls
	// outside (0,1). The value is never clamped; a bad input is a caller
	// bug and must fail loudly.
	ErrInvalidProbability = errors.New("model probability must be in (0,1)")
)

// EdgeAssessment is the result of comparing a model probability with a
// posted market price.
type EdgeAssessment struct {
	Side         string  `json:"side"`
	ModelProb    float64 `json:"model_prob"`
	MarketPrice  int     `json:"market_price"`
	ImpliedProb  float64 `json:"implied_prob"`
	Edge         float64 `json:"edge"`
	IsValueAlert bool    `json:"is_value_alert"`
}

// ImpliedProbability converts an American price to the probability the
// market is charging for: |odds|/(|odds|+100) for favorites, 100/(odds+100)
// for underdogs.
func ImpliedProbability(american int) (float64, error) {
	if american == 0 {
		return 0, ErrInvalidOdds
	}
	if american < 0 {
		risk := math.Abs(float64(american))
		return risk / (risk + 100.0), nil
	}
	return 100.0 / (float64(american) + 100.0), nil
}

// Edge is the model probability minus the market's implied probability.
// Positive values mean the model likes the side more than the price does.
func Edge(modelProb float64, american int) (float64, error) {
	if modelProb <= 0 || modelProb >= 1 {
		return 0, ErrInvalidProbability
	}
	implied, err := ImpliedProbability(american)
	if err != nil {
		return 0, err
	}
	return modelProb - implied, nil
}

// Assess computes the edge for one side and flags it as a value alert when
// |edge| meets the threshold.
func Assess(side string, modelProb float64, american int, threshold float64) (EdgeAssessment, error) {
	edge, err := Edge(modelProb, american)
	if err != nil {
		return EdgeAssessment{}, err
	}
	implied, _ := ImpliedProbability(american)
	return EdgeAssessment{
		Side:         side,
		ModelProb:    modelProb,
		MarketPrice:  american,
		ImpliedProb:  implied,
		Edge:         edge,
		IsValueAlert: math.Abs(edge) >= threshold,
	}, nil
}
