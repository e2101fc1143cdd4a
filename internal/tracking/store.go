package tracking

import (
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// EntityStore owns every TrackedEntity. All access goes through its
// methods; callers only ever see copies.
type EntityStore struct {
	mu       sync.RWMutex
	cfg      Config
	entities map[string]*TrackedEntity
}

// NewEntityStore creates an empty store.
func NewEntityStore(cfg Config) *EntityStore {
	return &EntityStore{
		cfg:      cfg,
		entities: make(map[string]*TrackedEntity),
	}
}

func validateObservation(obs Observation) error {
	if obs.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidSample)
	}
	if !isFiniteVec(obs.Position) {
		return fmt.Errorf("%w: non-finite position for %q", ErrInvalidSample, obs.ID)
	}
	if !isFinite(obs.Timestamp) || obs.Timestamp < 0 {
		return fmt.Errorf("%w: bad timestamp %v for %q", ErrInvalidSample, obs.Timestamp, obs.ID)
	}
	if !isFinite(obs.Health) {
		return fmt.Errorf("%w: non-finite health for %q", ErrInvalidSample, obs.ID)
	}
	if !obs.Classification.Valid() {
		return fmt.Errorf("%w: %s for %q", ErrInvalidSample, obs.Classification, obs.ID)
	}
	return nil
}

// Update inserts or updates the entity described by obs. Rejected
// observations return an error wrapping ErrInvalidSample and leave the
// store untouched.
func (s *EntityStore) Update(obs Observation) error {
	if err := validateObservation(obs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[obs.ID]
	if ok {
		if newest, has := e.History.Newest(); has && obs.Timestamp <= newest.Timestamp {
			return fmt.Errorf("%w: timestamp %v not after %v for %q",
				ErrInvalidSample, obs.Timestamp, newest.Timestamp, obs.ID)
		}
	} else {
		e = &TrackedEntity{
			ID:      obs.ID,
			History: NewHistory(s.cfg.HistoryLength),
		}
		s.entities[obs.ID] = e
	}

	e.History.Push(Sample{Position: obs.Position, Timestamp: obs.Timestamp})
	if s.cfg.HistoryWindow > 0 {
		e.History.DropBefore(obs.Timestamp - s.cfg.HistoryWindow)
	}
	s.updateVelocity(e)

	e.LastSeen = obs.Timestamp
	e.Visible = obs.Visible
	e.Health = obs.Health
	e.Classification = obs.Classification
	return nil
}

// updateVelocity differences the newest sample against one up to
// VelocityLookback steps back, which smooths per-frame jitter compared to
// consecutive differencing. A near-zero elapsed time leaves velocity as is.
func (s *EntityStore) updateVelocity(e *TrackedEntity) {
	n := e.History.Len()
	if n < 2 {
		e.Velocity = Vec3{}
		return
	}
	k := s.cfg.VelocityLookback
	if k < 1 {
		k = 1
	}
	if k > n-1 {
		k = n - 1
	}
	newest := e.History.At(n - 1)
	older := e.History.At(n - 1 - k)
	dt := newest.Timestamp - older.Timestamp
	if dt <= 0 || dt < s.cfg.MinVelocityDt {
		return
	}
	v := r3.Scale(1/dt, r3.Sub(newest.Position, older.Position))
	if !isFiniteVec(v) {
		return
	}
	e.Velocity = v
}

// Prune removes entities not updated for longer than the expiry window
// and returns how many were removed. Entities last seen more than the
// expiry window after now are removed too: the host clock went backwards
// and they would otherwise reject every update and never age out.
func (s *EntityStore) Prune(now float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entities {
		age := now - e.LastSeen
		if age > s.cfg.ExpiryWindow || -age > s.cfg.ExpiryWindow {
			delete(s.entities, id)
			removed++
		}
	}
	return removed
}

// DiscardAfter removes entities last seen after ts and returns how many
// were removed.
func (s *EntityStore) DiscardAfter(ts float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entities {
		if e.LastSeen > ts {
			delete(s.entities, id)
			removed++
		}
	}
	return removed
}

// Get returns a copy of the entity with the given id.
func (s *EntityStore) Get(id string) (TrackedEntity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	if !ok {
		return TrackedEntity{}, false
	}
	return e.clone(), true
}

// Entities returns copies of all entities sorted by id.
func (s *EntityStore) Entities() []TrackedEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TrackedEntity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of tracked entities.
func (s *EntityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Reset drops every entity.
func (s *EntityStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[string]*TrackedEntity)
}

// SetScore stores a computed threat score, clamped to [0, 100].
// It returns false if the entity is no longer tracked.
func (s *EntityStore) SetScore(id string, score int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[id]
	if !ok {
		return false
	}
	e.ThreatScore = clampScore(score)
	e.scored = true
	return true
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
