package tracking

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracksight/internal/timeutil"
)

func TestSnapshotBuffer(t *testing.T) {
	var b SnapshotBuffer

	_, ok := b.Latest()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), b.Seq())

	obs := []Observation{{ID: "a", Timestamp: 1}}
	b.Publish(Frame{Timestamp: 1, Observations: obs})
	obs[0].ID = "mutated"

	f, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, "a", f.Observations[0].ID, "published frame must not alias the caller's slice")
	assert.Equal(t, uint64(1), b.Seq())

	b.Publish(Frame{Timestamp: 2})
	f, _ = b.Latest()
	assert.Equal(t, 2.0, f.Timestamp)
	assert.Equal(t, uint64(2), b.Seq())
}

func TestScanner_PublishesUntilCancelled(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	var polls atomic.Int32
	source := FrameSourceFunc(func(ctx context.Context) (Frame, error) {
		n := polls.Add(1)
		if n == 2 {
			return Frame{}, errors.New("host busy")
		}
		return Frame{Timestamp: float64(n)}, nil
	})

	var buf SnapshotBuffer
	scanner := NewScanner(source, &buf, clock, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scanner.Run(ctx) }()

	require.Eventually(t, func() bool {
		clock.Advance(50 * time.Millisecond)
		return buf.Seq() >= 3
	}, 2*time.Second, time.Millisecond)

	// The failed poll was skipped, not published.
	assert.Less(t, buf.Seq(), uint64(polls.Load()))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop after cancel")
	}
}
