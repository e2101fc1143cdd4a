package tracking

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Cosine bounds between bearings from the observer. Two entities more
// than 120° apart surround the observer; more than ~143° apart, they
// oppose each other across it.
const (
	surroundedCos = -0.5
	opposedCos    = -0.8
)

// Assessment summarises the tracked population around the observer.
type Assessment struct {
	Tracked    int  `json:"tracked"`
	Threats    int  `json:"threats"` // ThreatScore above the threshold
	Surrounded bool `json:"surrounded"`
	Opposed    bool `json:"opposed"`
	Advantage  bool `json:"advantage"` // Neither surrounded nor opposed, at most one threat
}

// Assess counts entities and threats and checks whether any two tracked
// entities lie on widely separated bearings from the observer. Entities on
// top of the observer have no bearing and are ignored for that check.
func Assess(entities []TrackedEntity, observerPos Vec3, threatThreshold int) Assessment {
	var a Assessment
	bearings := make([]Vec3, 0, len(entities))

	for _, e := range entities {
		if e.SampleCount() == 0 {
			continue
		}
		a.Tracked++
		if e.ThreatScore > threatThreshold {
			a.Threats++
		}
		if dir := unitOrZero(r3.Sub(e.Position(), observerPos)); dir != (Vec3{}) {
			bearings = append(bearings, dir)
		}
	}

	for i := 0; i < len(bearings); i++ {
		for j := i + 1; j < len(bearings); j++ {
			c := r3.Dot(bearings[i], bearings[j])
			if c < surroundedCos {
				a.Surrounded = true
			}
			if c < opposedCos {
				a.Opposed = true
			}
		}
	}
	a.Advantage = !a.Surrounded && !a.Opposed && a.Threats <= 1
	return a
}
