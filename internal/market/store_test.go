package market

import (
	"testing"
	"time"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }

func spreadChange(points float64, priceA, priceB int, ts time.Time) LineChange {
	return LineChange{
		GameID:     501,
		Market:     Spread,
		Period:     0,
		Team:       sptr("duke"),
		LinePoints: fptr(points),
		PriceA:     iptr(priceA),
		PriceB:     iptr(priceB),
		Timestamp:  ts,
	}
}

func TestApplyFirstSightSetsOpeningAndCurrent(t *testing.T) {
	store := NewStore()
	change := spreadChange(3.0, -110, -110, time.Now())

	rec := store.Apply(change)
	if rec.Opening.LinePoints == nil || *rec.Opening.LinePoints != 3.0 {
		t.Fatalf("opening = %v, want 3.0", rec.Opening.LinePoints)
	}
	if rec.Current.LinePoints == nil || *rec.Current.LinePoints != 3.0 {
		t.Fatalf("current = %v, want 3.0", rec.Current.LinePoints)
	}
	if mv := rec.Movement(); mv == nil || *mv != 0 {
		t.Fatalf("movement = %v, want 0", mv)
	}
}

func TestOpeningIsNeverOverwritten(t *testing.T) {
	store := NewStore()
	t0 := time.Now()
	store.Apply(spreadChange(3.0, -110, -110, t0))
	store.Apply(spreadChange(2.0, -115, -105, t0.Add(time.Minute)))
	rec := store.Apply(spreadChange(1.5, -120, -100, t0.Add(2*time.Minute)))

	if *rec.Opening.LinePoints != 3.0 {
		t.Fatalf("opening = %v, want 3.0", *rec.Opening.LinePoints)
	}
	if *rec.Current.LinePoints != 1.5 {
		t.Fatalf("current = %v, want 1.5", *rec.Current.LinePoints)
	}
	if mv := rec.Movement(); mv == nil || *mv != -1.5 {
		t.Fatalf("movement = %v, want -1.5", mv)
	}
}

// The feed provides no strict ordering guarantee. A delayed event with an
// older timestamp still replaces current: the upstream service is
// authoritative for current-state semantics, so latest arrival wins.
func TestApplyAcceptsOutOfOrderTimestamps(t *testing.T) {
	store := NewStore()
	t0 := time.Now()
	store.Apply(spreadChange(3.0, -110, -110, t0))
	store.Apply(spreadChange(2.0, -115, -105, t0.Add(time.Minute)))
	rec := store.Apply(spreadChange(2.5, -112, -108, t0.Add(30*time.Second)))

	if *rec.Current.LinePoints != 2.5 {
		t.Fatalf("current = %v, want 2.5 (latest arrival)", *rec.Current.LinePoints)
	}
	if !rec.Current.Timestamp.Equal(t0.Add(30 * time.Second)) {
		t.Fatalf("current timestamp should be the delayed event's")
	}
	if *rec.Opening.LinePoints != 3.0 {
		t.Fatalf("opening = %v, want 3.0", *rec.Opening.LinePoints)
	}
}

func TestMovementNilForMoneyline(t *testing.T) {
	store := NewStore()
	ml := LineChange{GameID: 501, Market: Moneyline, Team: sptr("duke"), PriceA: iptr(-150), PriceB: iptr(130)}
	store.Apply(ml)
	ml2 := ml
	ml2.PriceA = iptr(-160)
	ml2.PriceB = iptr(140)
	rec := store.Apply(ml2)

	if mv := rec.Movement(); mv != nil {
		t.Fatalf("movement = %v, want nil for moneyline", *mv)
	}
	if drift := rec.PriceDriftA(); drift == nil || *drift != -10 {
		t.Fatalf("price drift A = %v, want -10", drift)
	}
	if drift := rec.PriceDriftB(); drift == nil || *drift != 10 {
		t.Fatalf("price drift B = %v, want 10", drift)
	}
}

func TestKeysSeparateTeamsPeriodsAndMarkets(t *testing.T) {
	store := NewStore()
	base := spreadChange(3.0, -110, -110, time.Now())
	store.Apply(base)

	other := base
	other.Team = sptr("unc")
	store.Apply(other)

	half := base
	half.Period = 1
	store.Apply(half)

	total := LineChange{GameID: 501, Market: Total, LinePoints: fptr(145.5)}
	store.Apply(total)

	if store.Len() != 4 {
		t.Fatalf("Len = %d, want 4 distinct keys", store.Len())
	}
	if _, ok := store.Get(base.Key()); !ok {
		t.Fatal("base key missing")
	}
	if _, ok := store.Get(total.Key()); !ok {
		t.Fatal("total key missing")
	}
}

func TestAllReturnsCopies(t *testing.T) {
	store := NewStore()
	store.Apply(spreadChange(3.0, -110, -110, time.Now()))

	records := store.All()
	if len(records) != 1 {
		t.Fatalf("All returned %d records, want 1", len(records))
	}
	// Mutating the snapshot must not leak into the store.
	records[0].Current.LinePoints = fptr(99.0)
	rec, _ := store.Get(Key{GameID: 501, Market: Spread, Team: "duke"})
	if *rec.Current.LinePoints != 3.0 {
		t.Fatalf("store mutated through snapshot: %v", *rec.Current.LinePoints)
	}
}
