package tracking

import (
	"fmt"
)

// Classification is the host-supplied category of an entity.
type Classification int

const (
	ClassHostile Classification = iota
	ClassNeutral
	ClassNonPlayerAgent
)

var classNames = map[Classification]string{
	ClassHostile:        "hostile",
	ClassNeutral:        "neutral",
	ClassNonPlayerAgent: "non_player_agent",
}

// AllClassifications lists every defined classification in declaration order.
func AllClassifications() []Classification {
	return []Classification{ClassHostile, ClassNeutral, ClassNonPlayerAgent}
}

func (c Classification) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return fmt.Sprintf("classification(%d)", int(c))
}

// Valid reports whether c is a defined classification.
func (c Classification) Valid() bool {
	_, ok := classNames[c]
	return ok
}

// ParseClassification maps a config/wire name back to a Classification.
func ParseClassification(s string) (Classification, error) {
	for c, name := range classNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown classification %q", s)
}

// MarshalText encodes the classification by name.
func (c Classification) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a classification name.
func (c *Classification) UnmarshalText(b []byte) error {
	v, err := ParseClassification(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Observation is one entity as reported by the host for a single frame.
type Observation struct {
	ID             string         `json:"id"`
	Position       Vec3           `json:"position"`
	Timestamp      float64        `json:"timestamp"`
	Visible        bool           `json:"visible"`
	Health         float64        `json:"health"`
	Classification Classification `json:"classification"`
}

// TrackedEntity is the engine's accumulated view of one subject.
// Values handed out by EntityStore are deep copies and safe to keep.
type TrackedEntity struct {
	ID             string
	History        *History
	Velocity       Vec3 // zero until two samples exist
	LastSeen       float64
	Classification Classification
	ThreatScore    int // [0, 100]
	Visible        bool
	Health         float64

	scored bool // ThreatScore has been computed at least once
}

// Position returns the newest sampled position, or the zero vector when
// the entity has no history.
func (e TrackedEntity) Position() Vec3 {
	if e.History == nil {
		return Vec3{}
	}
	s, _ := e.History.Newest()
	return s.Position
}

// SampleCount returns the number of history samples held.
func (e TrackedEntity) SampleCount() int {
	if e.History == nil {
		return 0
	}
	return e.History.Len()
}

func (e *TrackedEntity) clone() TrackedEntity {
	c := *e
	if e.History != nil {
		c.History = e.History.Clone()
	}
	return c
}
