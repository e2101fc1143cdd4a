package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/banshee-data/tracksight/internal/config"
	"github.com/banshee-data/tracksight/internal/neural"
	"github.com/banshee-data/tracksight/internal/storage"
	"github.com/banshee-data/tracksight/internal/timeutil"
	"github.com/banshee-data/tracksight/internal/tracking"
)

// maxLineBytes bounds one JSONL frame.
const maxLineBytes = 4 << 20

// replayFrame is a tracking.Frame plus an optional engagement outcome.
type replayFrame struct {
	tracking.Frame
	Outcome *bool `json:"outcome,omitempty"`
}

type replayOptions struct {
	Tuning   *config.TuningConfig
	Neural   bool
	DB       *storage.DB // nil: nothing is recorded
	Notes    string
	ResumeID string
	Quiet    bool
}

type summary struct {
	SessionID  string
	Frames     int
	BadLines   int
	Accepted   int
	Rejected   int
	Selections int
	Switches   int // Selections whose target differs from the previous one
	Outcomes   int
	Restored   int
	Discarded  int // Restored entities newer than the first frame
}

func (s summary) String() string {
	id := s.SessionID
	if id == "" {
		id = "(not recorded)"
	}
	return fmt.Sprintf("session=%s frames=%d bad_lines=%d observations=%d rejected=%d selections=%d switches=%d outcomes=%d restored=%d discarded=%d",
		id, s.Frames, s.BadLines, s.Accepted, s.Rejected, s.Selections, s.Switches, s.Outcomes, s.Restored, s.Discarded)
}

// replayEpoch anchors host seconds onto the mock clock.
var replayEpoch = time.Unix(0, 0).UTC()

func hostTime(seconds float64) time.Time {
	return replayEpoch.Add(time.Duration(seconds * float64(time.Second)))
}

// replay runs every frame in r through a fresh engine. The engine's clock
// follows the frame timestamps, so rate limits behave as they did live.
func replay(r io.Reader, opts replayOptions) (summary, error) {
	var sum summary

	cfg := tracking.ConfigFromTuning(opts.Tuning)
	clock := timeutil.NewMockClock(replayEpoch)

	var net *neural.Net
	var corrector tracking.Corrector
	if opts.Neural {
		net = neural.New(neural.ConfigFromTuning(opts.Tuning))
		corrector = net
	}
	eng := tracking.NewEngine(cfg, clock, corrector)

	if opts.DB != nil {
		if opts.ResumeID != "" {
			n, err := resumeFrom(opts.DB, opts.ResumeID, eng.Store(), net)
			if err != nil {
				return sum, err
			}
			sum.Restored = n
		}
		session, err := opts.DB.StartSession(opts.Notes)
		if err != nil {
			return sum, err
		}
		sum.SessionID = session.ID
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lastTarget := ""
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}

		var f replayFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			sum.BadLines++
			log.Printf("line %d: skipping malformed frame: %v", line, err)
			continue
		}

		if f.Outcome != nil && eng.ReportOutcome(*f.Outcome) {
			sum.Outcomes++
		}

		if !math.IsNaN(f.Timestamp) && !math.IsInf(f.Timestamp, 0) {
			if sum.Frames == 0 && sum.Restored > 0 {
				// Restored tracks from a later host clock would reject every
				// update in this stream.
				if n := eng.Store().DiscardAfter(f.Timestamp); n > 0 {
					sum.Discarded = n
					log.Printf("resume: discarded %d entities seen after t=%.3f", n, f.Timestamp)
				}
			}
			if t := hostTime(f.Timestamp); t.After(clock.Now()) {
				clock.Set(t)
			}
		}

		res := eng.Tick(f.Frame)
		sum.Frames++
		sum.Accepted += res.Accepted
		sum.Rejected += res.Rejected

		if !res.HasCandidate {
			continue
		}
		sum.Selections++
		c := res.Candidate
		if c.Entity.ID != lastTarget {
			sum.Switches++
			lastTarget = c.Entity.ID
			if !opts.Quiet {
				log.Printf("t=%.3f target=%s class=%s threat=%d offset=%.2f conf=%.2f aim=(%.2f, %.2f)",
					f.Timestamp, c.Entity.ID, c.Entity.Classification, c.Entity.ThreatScore,
					c.AngularOffset, c.Confidence, res.Aim.Pitch, res.Aim.Yaw)
			}
		}
		if opts.DB != nil {
			if err := opts.DB.RecordSelection(sum.SessionID, f.Timestamp, c); err != nil {
				return sum, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("reading frames: %w", err)
	}

	if opts.DB != nil {
		if err := opts.DB.SaveEntities(sum.SessionID, eng.Store().Snapshot()); err != nil {
			return sum, err
		}
		if net != nil {
			if err := opts.DB.SaveWeights(sum.SessionID, net.Weights()); err != nil {
				return sum, err
			}
		}
	}
	return sum, nil
}

// resumeFrom restores a previous session's entities and, when both the
// session and this run use the network, its weights.
func resumeFrom(db *storage.DB, sessionID string, store *tracking.EntityStore, net *neural.Net) (int, error) {
	n, err := db.RestoreInto(store, sessionID)
	if err != nil {
		return n, fmt.Errorf("resume %s: %w", sessionID, err)
	}
	if net == nil {
		return n, nil
	}
	w, ok, err := db.LoadWeights(sessionID)
	if err != nil {
		return n, err
	}
	if ok {
		if err := net.SetWeights(w); err != nil {
			return n, err
		}
	}
	return n, nil
}
