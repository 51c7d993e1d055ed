package oddsmath

import (
	"errors"
	"math"
	"testing"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name     string
		american int
		want     float64
	}{
		{"standard favorite -110", -110, 0.5238},
		{"underdog +150", 150, 0.4},
		{"even +100", 100, 0.5},
		{"even -100", -100, 0.5},
		{"big favorite -300", -300, 0.75},
		{"big underdog +300", 300, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImpliedProbability(tt.american)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("ImpliedProbability(%d) = %f, want %f", tt.american, got, tt.want)
			}
		})
	}
}

func TestImpliedProbabilityZeroOdds(t *testing.T) {
	if _, err := ImpliedProbability(0); !errors.Is(err, ErrInvalidOdds) {
		t.Fatalf("want ErrInvalidOdds, got %v", err)
	}
}

func TestEdge(t *testing.T) {
	got, err := Edge(0.55, -110)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.0262) > 0.0001 {
		t.Errorf("Edge(0.55, -110) = %f, want 0.0262", got)
	}
}

func TestEdgeRejectsOutOfRangeProbability(t *testing.T) {
	for _, prob := range []float64{0, 1, -0.2, 1.5} {
		if _, err := Edge(prob, -110); !errors.Is(err, ErrInvalidProbability) {
			t.Errorf("Edge(%f, -110): want ErrInvalidProbability, got %v", prob, err)
		}
	}
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name      string
		modelProb float64
		american  int
		threshold float64
		wantAlert bool
	}{
		{"thin edge below threshold", 0.55, -110, 0.05, false},
		{"fat edge above threshold", 0.65, -110, 0.05, true},
		{"negative edge above threshold", 0.40, -110, 0.05, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assess("duke", tt.modelProb, tt.american, tt.threshold)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsValueAlert != tt.wantAlert {
				t.Errorf("IsValueAlert = %v, want %v (edge %f)", got.IsValueAlert, tt.wantAlert, got.Edge)
			}
			if got.Side != "duke" {
				t.Errorf("Side = %q, want duke", got.Side)
			}
			if math.Abs(got.Edge-(got.ModelProb-got.ImpliedProb)) > 1e-12 {
				t.Errorf("Edge %f does not equal ModelProb-ImpliedProb", got.Edge)
			}
		})
	}
}

func TestAssessPropagatesInvalidOdds(t *testing.T) {
	if _, err := Assess("duke", 0.55, 0, 0.05); !errors.Is(err, ErrInvalidOdds) {
		t.Fatalf("want ErrInvalidOdds, got %v", err)
	}
}
