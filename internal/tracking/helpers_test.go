package tracking

import (
	"testing"
	"time"
)

// testConfig returns the built-in defaults with a small history so bound
// checks exercise eviction quickly.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.HistoryLength = 8
	return cfg
}

// entityAt builds a single-sample entity directly, bypassing the store.
func entityAt(id string, pos Vec3) TrackedEntity {
	h := NewHistory(8)
	h.Push(Sample{Position: pos, Timestamp: 1})
	return TrackedEntity{
		ID:             id,
		History:        h,
		LastSeen:       1,
		Classification: ClassHostile,
		Visible:        true,
		Health:         100,
	}
}

func mustUpdate(t *testing.T, s *EntityStore, obs Observation) {
	t.Helper()
	if err := s.Update(obs); err != nil {
		t.Fatalf("Update(%+v) failed: %v", obs, err)
	}
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
