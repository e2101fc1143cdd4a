package tracking

import (
	"errors"
	"math"
	"testing"
)

func TestEntityStore_HistoryNeverExceedsBound(t *testing.T) {
	cfg := testConfig()
	s := NewEntityStore(cfg)

	for i := 0; i < 100; i++ {
		mustUpdate(t, s, Observation{
			ID:        "e1",
			Position:  Vec3{X: float64(i)},
			Timestamp: float64(i) * 0.05,
		})
		e, _ := s.Get("e1")
		if e.SampleCount() > cfg.HistoryLength {
			t.Fatalf("after %d updates history length %d > %d", i+1, e.SampleCount(), cfg.HistoryLength)
		}
	}

	e, _ := s.Get("e1")
	samples := e.History.Samples()
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp <= samples[i-1].Timestamp {
			t.Fatalf("history not strictly ordered at %d: %v <= %v", i, samples[i].Timestamp, samples[i-1].Timestamp)
		}
	}
}

func TestEntityStore_HistoryWindowEvictsOldSamples(t *testing.T) {
	cfg := testConfig()
	cfg.HistoryWindow = 1.0
	s := NewEntityStore(cfg)

	mustUpdate(t, s, Observation{ID: "e1", Timestamp: 0})
	mustUpdate(t, s, Observation{ID: "e1", Timestamp: 0.5})
	mustUpdate(t, s, Observation{ID: "e1", Timestamp: 1.8})

	e, _ := s.Get("e1")
	if e.SampleCount() != 1 {
		t.Errorf("SampleCount() = %d, want 1 (samples at 0 and 0.5 aged out)", e.SampleCount())
	}
	if e.Velocity != (Vec3{}) {
		t.Errorf("Velocity = %+v, want zero with a single sample", e.Velocity)
	}
}

func TestEntityStore_VelocityFromTwoSamples(t *testing.T) {
	s := NewEntityStore(testConfig())

	mustUpdate(t, s, Observation{ID: "e1", Position: Vec3{X: 0}, Timestamp: 1.0})
	e, _ := s.Get("e1")
	if e.Velocity != (Vec3{}) {
		t.Fatalf("Velocity with one sample = %+v, want zero", e.Velocity)
	}

	mustUpdate(t, s, Observation{ID: "e1", Position: Vec3{X: 100}, Timestamp: 1.1})
	e, _ = s.Get("e1")

	speed := math.Sqrt(e.Velocity.X*e.Velocity.X + e.Velocity.Y*e.Velocity.Y + e.Velocity.Z*e.Velocity.Z)
	if math.Abs(speed-1000) > 1e-6 {
		t.Errorf("speed = %v, want 1000", speed)
	}
}

func TestEntityStore_VelocityUsesLookback(t *testing.T) {
	cfg := testConfig()
	cfg.VelocityLookback = 3
	s := NewEntityStore(cfg)

	// Jittery positions: consecutive differencing would swing wildly,
	// differencing three samples back sees the underlying 10 u/s.
	positions := []float64{0, 1.5, 1.5, 3, 4.5, 4.5, 6}
	for i, x := range positions {
		mustUpdate(t, s, Observation{ID: "e1", Position: Vec3{X: x}, Timestamp: float64(i) * 0.1})
	}

	e, _ := s.Get("e1")
	// newest x=6 at t=0.6, three back x=3 at t=0.3
	if math.Abs(e.Velocity.X-10) > 1e-9 {
		t.Errorf("Velocity.X = %v, want 10", e.Velocity.X)
	}
}

func TestEntityStore_TinyDtKeepsVelocity(t *testing.T) {
	cfg := testConfig()
	cfg.VelocityLookback = 1
	s := NewEntityStore(cfg)

	mustUpdate(t, s, Observation{ID: "e1", Position: Vec3{X: 0}, Timestamp: 1})
	mustUpdate(t, s, Observation{ID: "e1", Position: Vec3{X: 10}, Timestamp: 2})
	mustUpdate(t, s, Observation{ID: "e1", Position: Vec3{X: 50}, Timestamp: 2.0000001})

	e, _ := s.Get("e1")
	if math.Abs(e.Velocity.X-10) > 1e-9 {
		t.Errorf("Velocity.X = %v, want previous 10 (near-zero dt skipped)", e.Velocity.X)
	}
	if e.SampleCount() != 3 {
		t.Errorf("SampleCount() = %d, want 3", e.SampleCount())
	}
}

func TestEntityStore_InvalidSamplesDoNotMutate(t *testing.T) {
	s := NewEntityStore(testConfig())
	mustUpdate(t, s, Observation{ID: "e1", Position: Vec3{X: 1}, Timestamp: 5, Health: 80, Visible: true})
	before, _ := s.Get("e1")

	tests := []struct {
		name string
		obs  Observation
	}{
		{"nan position", Observation{ID: "e1", Position: Vec3{X: math.NaN()}, Timestamp: 6}},
		{"inf position", Observation{ID: "e1", Position: Vec3{Z: math.Inf(-1)}, Timestamp: 6}},
		{"nan timestamp", Observation{ID: "e1", Timestamp: math.NaN()}},
		{"negative timestamp", Observation{ID: "e1", Timestamp: -1}},
		{"nan health", Observation{ID: "e1", Timestamp: 6, Health: math.NaN()}},
		{"stale timestamp", Observation{ID: "e1", Timestamp: 4}},
		{"duplicate timestamp", Observation{ID: "e1", Timestamp: 5}},
		{"unknown class", Observation{ID: "e1", Timestamp: 6, Classification: Classification(42)}},
		{"empty id", Observation{Timestamp: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Update(tt.obs)
			if !errors.Is(err, ErrInvalidSample) {
				t.Fatalf("Update() error = %v, want ErrInvalidSample", err)
			}
			after, _ := s.Get("e1")
			if after.SampleCount() != before.SampleCount() || after.LastSeen != before.LastSeen ||
				after.Health != before.Health || after.Visible != before.Visible {
				t.Errorf("entity mutated: before %+v after %+v", before, after)
			}
		})
	}

	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestEntityStore_PruneRemovesExpired(t *testing.T) {
	cfg := testConfig()
	cfg.ExpiryWindow = 30
	s := NewEntityStore(cfg)

	mustUpdate(t, s, Observation{ID: "old", Timestamp: 10})
	mustUpdate(t, s, Observation{ID: "fresh", Timestamp: 35})

	if n := s.Prune(40); n != 0 {
		t.Errorf("Prune(40) removed %d, want 0", n)
	}
	if n := s.Prune(40.5); n != 1 {
		t.Errorf("Prune(40.5) removed %d, want 1", n)
	}
	if _, ok := s.Get("old"); ok {
		t.Error("expired entity still present after Prune")
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("fresh entity removed by Prune")
	}
}

func TestEntityStore_GetReturnsCopy(t *testing.T) {
	s := NewEntityStore(testConfig())
	mustUpdate(t, s, Observation{ID: "e1", Timestamp: 1})

	e, _ := s.Get("e1")
	e.History.Push(Sample{Timestamp: 99})
	e.Health = -5

	again, _ := s.Get("e1")
	if again.SampleCount() != 1 || again.Health != 0 {
		t.Errorf("store state changed through a copy: %+v", again)
	}
}

func TestEntityStore_EntitiesSortedAndReset(t *testing.T) {
	s := NewEntityStore(testConfig())
	for _, id := range []string{"c", "a", "b"} {
		mustUpdate(t, s, Observation{ID: id, Timestamp: 1})
	}

	got := s.Entities()
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("Entities() order = %v", []string{got[0].ID, got[1].ID, got[2].ID})
	}

	if !s.SetScore("a", 250) {
		t.Error("SetScore on tracked entity returned false")
	}
	if e, _ := s.Get("a"); e.ThreatScore != 100 {
		t.Errorf("ThreatScore = %d, want clamped 100", e.ThreatScore)
	}
	if s.SetScore("missing", 10) {
		t.Error("SetScore on missing entity returned true")
	}

	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len() after Reset = %d", s.Len())
	}
}

func TestEntityStore_PruneAfterClockRegression(t *testing.T) {
	cfg := testConfig()
	cfg.ExpiryWindow = 30
	s := NewEntityStore(cfg)

	st := EntityState{ID: "x", Classification: ClassHostile, LastSeen: 500, Samples: []SampleState{{X: 1, T: 500}}}
	if err := s.Restore(st); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	// The host clock restarted: updates for x are out of order.
	if err := s.Update(Observation{ID: "x", Timestamp: 1}); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("Update(t=1) error = %v, want ErrInvalidSample", err)
	}
	if n := s.Prune(1); n != 1 {
		t.Fatalf("Prune(1) removed %d, want 1", n)
	}
	mustUpdate(t, s, Observation{ID: "x", Timestamp: 1})
	if e, _ := s.Get("x"); e.SampleCount() != 1 || e.LastSeen != 1 {
		t.Errorf("recreated entity = %+v", e)
	}

	// Slightly ahead of now is within the window and kept.
	mustUpdate(t, s, Observation{ID: "y", Timestamp: 20})
	if n := s.Prune(1); n != 0 {
		t.Errorf("Prune(1) removed %d with y only 19 s ahead, want 0", n)
	}
}

func TestEntityStore_DiscardAfter(t *testing.T) {
	s := NewEntityStore(testConfig())
	mustUpdate(t, s, Observation{ID: "early", Timestamp: 1})
	mustUpdate(t, s, Observation{ID: "late", Timestamp: 5})

	if n := s.DiscardAfter(5); n != 0 {
		t.Errorf("DiscardAfter(5) removed %d, want 0", n)
	}
	if n := s.DiscardAfter(2); n != 1 {
		t.Errorf("DiscardAfter(2) removed %d, want 1", n)
	}
	if _, ok := s.Get("late"); ok {
		t.Error("late entity survived DiscardAfter(2)")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
