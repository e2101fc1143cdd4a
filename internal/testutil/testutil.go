// Package testutil provides shared test fixtures: synthetic frame streams
// and scratch database paths.
package testutil

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/tracksight/internal/tracking"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TempDBPath returns a path for a SQLite file inside the test's temp dir.
func TempDBPath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tracksight.db")
}

// CrossingFrames returns n frames, dt seconds apart from t=1, for an
// observer at the origin facing +X. Entity "a" walks across the aim line
// 100 units out, one unit per frame from Y=n; from frame n/2 a stationary
// entity "b" sits almost on the aim line at X=80.
func CrossingFrames(n int, dt float64) []tracking.Frame {
	frames := make([]tracking.Frame, n)
	for i := range frames {
		ts := 1 + float64(i)*dt
		f := tracking.Frame{
			Timestamp:      ts,
			ObserverFacing: tracking.Vec3{X: 1},
			Observations: []tracking.Observation{
				{ID: "a", Position: tracking.Vec3{X: 100, Y: float64(n - i)}, Timestamp: ts, Visible: true, Health: 100},
			},
		}
		if i >= n/2 {
			f.Observations = append(f.Observations, tracking.Observation{
				ID: "b", Position: tracking.Vec3{X: 80, Y: 0.5}, Timestamp: ts, Visible: true, Health: 100,
			})
		}
		frames[i] = f
	}
	return frames
}

// JSONL encodes frames one per line.
func JSONL(t testing.TB, frames []tracking.Frame) string {
	t.Helper()
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	for _, f := range frames {
		AssertNoError(t, enc.Encode(f))
	}
	return sb.String()
}
