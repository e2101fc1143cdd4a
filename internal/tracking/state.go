package tracking

import (
	"fmt"
)

// SampleState is the serialised form of a Sample.
type SampleState struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	T float64 `json:"t"`
}

// EntityState is the serialisable form of a TrackedEntity. Restoring it
// reproduces the entity exactly, so predictions match the original.
type EntityState struct {
	ID             string         `json:"id"`
	Classification Classification `json:"classification"`
	Visible        bool           `json:"visible"`
	Health         float64        `json:"health"`
	ThreatScore    int            `json:"threat_score"`
	LastSeen       float64        `json:"last_seen"`
	Velocity       Vec3           `json:"velocity"`
	Samples        []SampleState  `json:"samples"`
}

// State returns the serialisable form of e.
func (e TrackedEntity) State() EntityState {
	st := EntityState{
		ID:             e.ID,
		Classification: e.Classification,
		Visible:        e.Visible,
		Health:         e.Health,
		ThreatScore:    e.ThreatScore,
		LastSeen:       e.LastSeen,
		Velocity:       e.Velocity,
	}
	if e.History != nil {
		for _, s := range e.History.Samples() {
			st.Samples = append(st.Samples, SampleState{X: s.Position.X, Y: s.Position.Y, Z: s.Position.Z, T: s.Timestamp})
		}
	}
	return st
}

// Snapshot returns the state of every entity, sorted by id.
func (s *EntityStore) Snapshot() []EntityState {
	entities := s.Entities()
	out := make([]EntityState, len(entities))
	for i, e := range entities {
		out[i] = e.State()
	}
	return out
}

// Restore replaces (or creates) the entity described by st. Samples must be
// finite and strictly increasing in time; the newest HistoryLength samples
// are kept.
func (s *EntityStore) Restore(st EntityState) error {
	if st.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidSample)
	}
	if !st.Classification.Valid() {
		return fmt.Errorf("%w: %s for %q", ErrInvalidSample, st.Classification, st.ID)
	}
	if !isFiniteVec(st.Velocity) || !isFinite(st.Health) || !isFinite(st.LastSeen) {
		return fmt.Errorf("%w: non-finite state for %q", ErrInvalidSample, st.ID)
	}

	h := NewHistory(s.cfg.HistoryLength)
	prev := 0.0
	for i, ss := range st.Samples {
		pos := Vec3{X: ss.X, Y: ss.Y, Z: ss.Z}
		if !isFiniteVec(pos) || !isFinite(ss.T) {
			return fmt.Errorf("%w: non-finite sample %d for %q", ErrInvalidSample, i, st.ID)
		}
		if i > 0 && ss.T <= prev {
			return fmt.Errorf("%w: sample %d out of order for %q", ErrInvalidSample, i, st.ID)
		}
		prev = ss.T
		h.Push(Sample{Position: pos, Timestamp: ss.T})
	}

	e := &TrackedEntity{
		ID:             st.ID,
		History:        h,
		Velocity:       st.Velocity,
		LastSeen:       st.LastSeen,
		Classification: st.Classification,
		ThreatScore:    clampScore(st.ThreatScore),
		Visible:        st.Visible,
		Health:         st.Health,
		scored:         true,
	}
	if h.Len() < 2 {
		e.Velocity = Vec3{}
	}

	s.mu.Lock()
	s.entities[st.ID] = e
	s.mu.Unlock()
	return nil
}
