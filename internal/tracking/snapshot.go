package tracking

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/banshee-data/tracksight/internal/monitoring"
	"github.com/banshee-data/tracksight/internal/timeutil"
)

// SnapshotBuffer hands frames from a scanning goroutine to the decision
// loop. The writer publishes a private copy and swaps a pointer, so the
// reader always sees a complete frame.
type SnapshotBuffer struct {
	latest atomic.Pointer[Frame]
	seq    atomic.Uint64
}

// Publish stores a copy of frame as the latest snapshot.
func (b *SnapshotBuffer) Publish(frame Frame) {
	f := frame
	f.Observations = append([]Observation(nil), frame.Observations...)
	b.latest.Store(&f)
	b.seq.Add(1)
}

// Latest returns the most recent snapshot. The returned frame must be
// treated as read-only.
func (b *SnapshotBuffer) Latest() (Frame, bool) {
	f := b.latest.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}

// Seq returns how many frames have been published.
func (b *SnapshotBuffer) Seq() uint64 { return b.seq.Load() }

// FrameSource produces the host's current view of the world.
type FrameSource interface {
	Poll(ctx context.Context) (Frame, error)
}

// FrameSourceFunc adapts a function to FrameSource.
type FrameSourceFunc func(ctx context.Context) (Frame, error)

// Poll calls f.
func (f FrameSourceFunc) Poll(ctx context.Context) (Frame, error) { return f(ctx) }

// Scanner polls a FrameSource on a fixed interval and publishes each frame
// into a SnapshotBuffer.
type Scanner struct {
	source   FrameSource
	buffer   *SnapshotBuffer
	clock    timeutil.Clock
	interval time.Duration
}

// NewScanner creates a scanner. A nil clock uses the real clock.
func NewScanner(source FrameSource, buffer *SnapshotBuffer, clock timeutil.Clock, interval time.Duration) *Scanner {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Scanner{source: source, buffer: buffer, clock: clock, interval: interval}
}

// Run polls until ctx is cancelled. Poll errors are logged and the tick skipped.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			frame, err := s.source.Poll(ctx)
			if err != nil {
				monitoring.Logf("scanner: poll failed: %v", err)
				continue
			}
			s.buffer.Publish(frame)
		}
	}
}
