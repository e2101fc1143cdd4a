package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracksight/internal/config"
	"github.com/banshee-data/tracksight/internal/storage"
	"github.com/banshee-data/tracksight/internal/testutil"
)

// framesJSONL is twenty frames 50 ms apart: "a" crosses in front of the
// observer and "b" appears on the aim line half way through.
func framesJSONL(t *testing.T) string {
	return testutil.JSONL(t, testutil.CrossingFrames(20, 0.05))
}

func TestReplay_NoDB(t *testing.T) {
	input := framesJSONL(t) + "not json\n\n" + `{"timestamp": 3, "observer_facing": {"X": 1}, "observations": [{"id": "x", "position": {"X": 1}, "timestamp": -1}]}` + "\n"

	sum, err := replay(strings.NewReader(input), replayOptions{Tuning: config.EmptyTuningConfig(), Quiet: true})
	require.NoError(t, err)

	assert.Equal(t, "", sum.SessionID)
	assert.Equal(t, 21, sum.Frames)
	assert.Equal(t, 1, sum.BadLines)
	assert.Equal(t, 30, sum.Accepted)
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, 21, sum.Selections, "the store still holds both entities on the last frame")
	assert.Equal(t, 2, sum.Switches, "a first, then b once it appears on the aim line")
	assert.Contains(t, sum.String(), "(not recorded)")
}

func TestReplay_RecordsAndResumes(t *testing.T) {
	db, err := storage.NewDB(testutil.TempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	tuning := config.EmptyTuningConfig()
	first, err := replay(strings.NewReader(framesJSONL(t)), replayOptions{Tuning: tuning, Neural: true, DB: db, Notes: "first", Quiet: true})
	require.NoError(t, err)
	require.NotEmpty(t, first.SessionID)

	sels, err := db.Selections(first.SessionID)
	require.NoError(t, err)
	assert.Len(t, sels, first.Selections)
	assert.Equal(t, "a", sels[0].EntityID)
	assert.Equal(t, "b", sels[len(sels)-1].EntityID)

	states, err := db.LoadEntities(first.SessionID)
	require.NoError(t, err)
	assert.Len(t, states, 2)

	_, ok, err := db.LoadWeights(first.SessionID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Continue from the saved state with one later frame and an outcome.
	next := `{"timestamp": 2.5, "observer_facing": {"X": 1}, "outcome": true, "observations": [{"id": "b", "position": {"X": 79, "Y": 0.5}, "timestamp": 2.5, "visible": true, "health": 100}]}` + "\n" +
		`{"timestamp": 2.55, "observer_facing": {"X": 1}, "outcome": false, "observations": []}` + "\n"
	second, err := replay(strings.NewReader(next), replayOptions{Tuning: tuning, Neural: true, DB: db, ResumeID: first.SessionID, Quiet: true})
	require.NoError(t, err)

	assert.Equal(t, 2, second.Restored)
	assert.Equal(t, 0, second.Discarded)
	assert.Equal(t, 1, second.Outcomes, "the first outcome has no selection to credit")
	assert.NotEqual(t, first.SessionID, second.SessionID)

	sessions, err := db.Sessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestReplay_ResumeFromLaterClock(t *testing.T) {
	db, err := storage.NewDB(testutil.TempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	tuning := config.EmptyTuningConfig()
	first, err := replay(strings.NewReader(framesJSONL(t)), replayOptions{Tuning: tuning, DB: db, Quiet: true})
	require.NoError(t, err)

	// The saved tracks end at t=1.95; this stream restarts its clock at 0.5.
	next := `{"timestamp": 0.5, "observer_facing": {"X": 1}, "observations": [{"id": "a", "position": {"X": 100, "Y": 3}, "timestamp": 0.5, "visible": true, "health": 100}]}` + "\n"
	second, err := replay(strings.NewReader(next), replayOptions{Tuning: tuning, DB: db, ResumeID: first.SessionID, Quiet: true})
	require.NoError(t, err)

	assert.Equal(t, 2, second.Restored)
	assert.Equal(t, 2, second.Discarded)
	assert.Equal(t, 1, second.Accepted)
	assert.Equal(t, 0, second.Rejected)

	states, err := db.LoadEntities(second.SessionID)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "a", states[0].ID)
	assert.Equal(t, 0.5, states[0].LastSeen)
}

func TestReplay_ResumeUnknownSession(t *testing.T) {
	db, err := storage.NewDB(testutil.TempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = replay(strings.NewReader(""), replayOptions{Tuning: config.EmptyTuningConfig(), DB: db, ResumeID: "nope"})
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}
