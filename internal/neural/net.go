// Package neural implements a small fixed-topology feed-forward network
// used as an optional prediction corrector. It is a deterministic
// heuristic layer, not a trained model: weights start from a seeded
// uniform draw and are nudged by a gradient-free reinforcement rule.
package neural

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/tracksight/internal/config"
	"github.com/banshee-data/tracksight/internal/tracking"
)

// Topology: velocity (3) + closing speed + distance + bias -> hidden -> xyz.
const (
	InputSize  = 6
	HiddenSize = 6
	OutputSize = 3
)

// Feature normalisation and output scale.
const (
	velocityScale = 100.0
	closingScale  = 1000.0
	distanceScale = 300.0
	outputScale   = 100.0 // correction grows with distance/outputScale
	leakySlope    = 0.01
	stepScale     = 0.1
)

// Config holds the network's seed and adaptation parameters.
type Config struct {
	Seed             uint64
	BaseLearningRate float64
	DecayFactor      float64
	MinConfidence    float64 // Outcomes reported with lower confidence are ignored
}

// DefaultConfig returns the built-in network configuration.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Seed:             cfg.GetNeuralSeed(),
		BaseLearningRate: cfg.GetNeuralLearningRate(),
		DecayFactor:      cfg.GetNeuralDecayFactor(),
		MinConfidence:    cfg.GetNeuralMinConfidence(),
	}
}

// Net is a two-layer network with leaky ReLU hidden units. It implements
// tracking.Corrector and tracking.Reinforcer and is safe for concurrent use.
type Net struct {
	mu      sync.Mutex
	cfg     Config
	hidden  *mat.Dense // InputSize x HiddenSize
	output  *mat.Dense // HiddenSize x OutputSize
	updates int
}

// New creates a network whose weights are drawn uniformly from [-0.5, 0.5)
// using a PCG source seeded from cfg.Seed. Equal seeds give equal networks.
func New(cfg Config) *Net {
	u := distuv.Uniform{Min: -0.5, Max: 0.5, Src: rand.NewPCG(cfg.Seed, cfg.Seed)}

	hidden := mat.NewDense(InputSize, HiddenSize, nil)
	for i := 0; i < InputSize; i++ {
		for j := 0; j < HiddenSize; j++ {
			hidden.Set(i, j, u.Rand())
		}
	}
	output := mat.NewDense(HiddenSize, OutputSize, nil)
	for i := 0; i < HiddenSize; i++ {
		for j := 0; j < OutputSize; j++ {
			output.Set(i, j, u.Rand())
		}
	}
	return &Net{cfg: cfg, hidden: hidden, output: output}
}

func leakyReLU(x float64) float64 {
	if x > 0 {
		return x
	}
	return leakySlope * x
}

// features builds the normalised input vector.
func features(f tracking.Features) []float64 {
	return []float64{
		f.Velocity.X / velocityScale,
		f.Velocity.Y / velocityScale,
		f.Velocity.Z / velocityScale,
		f.ClosingSpeed / closingScale,
		f.Distance / distanceScale,
		1, // bias
	}
}

// Forward runs the network on a raw input vector of length InputSize.
func (n *Net) Forward(in []float64) ([]float64, error) {
	if len(in) != InputSize {
		return nil, fmt.Errorf("neural: input length %d, want %d", len(in), InputSize)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.forward(in), nil
}

func (n *Net) forward(in []float64) []float64 {
	x := mat.NewVecDense(InputSize, append([]float64(nil), in...))

	var h mat.VecDense
	h.MulVec(n.hidden.T(), x)
	for i := 0; i < h.Len(); i++ {
		h.SetVec(i, leakyReLU(h.AtVec(i)))
	}

	var out mat.VecDense
	out.MulVec(n.output.T(), &h)
	return []float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// Correct returns the network's offset for f, scaled by distance. Without
// distance context the correction is zero.
func (n *Net) Correct(f tracking.Features) tracking.Vec3 {
	in := features(f)
	for _, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return tracking.Vec3{}
		}
	}

	n.mu.Lock()
	out := n.forward(in)
	n.mu.Unlock()

	scale := f.Distance / outputScale
	return tracking.Vec3{X: out[0] * scale, Y: out[1] * scale, Z: out[2] * scale}
}

// LearningRate returns the rate the next Reinforce call will use.
func (n *Net) LearningRate() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rate(n.updates + 1)
}

func (n *Net) rate(updates int) float64 {
	return n.cfg.BaseLearningRate / (1 + n.cfg.DecayFactor*float64(updates))
}

// Updates returns how many outcomes have been reported.
func (n *Net) Updates() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.updates
}

// Reinforce nudges every weight by rate*sign(outcome)*confidence along a
// fixed alternating pattern. Every call advances the decay counter; calls
// with confidence below MinConfidence change no weights.
func (n *Net) Reinforce(success bool, confidence float64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.updates++
	rate := n.rate(n.updates)
	if !(confidence >= n.cfg.MinConfidence) {
		return
	}

	step := rate * confidence * stepScale
	if !success {
		step = -step
	}

	for i := 0; i < InputSize; i++ {
		for j := 0; j < HiddenSize; j++ {
			n.hidden.Set(i, j, n.hidden.At(i, j)+step*pattern((i*j)%2 != 0))
		}
	}
	for i := 0; i < HiddenSize; i++ {
		for j := 0; j < OutputSize; j++ {
			n.output.Set(i, j, n.output.At(i, j)+step*pattern((i+j)%3 != 0))
		}
	}
}

func pattern(positive bool) float64 {
	if positive {
		return 1
	}
	return -1
}

// Weights is a serialisable copy of the network parameters.
type Weights struct {
	Hidden  []float64 `json:"hidden"` // row-major InputSize x HiddenSize
	Output  []float64 `json:"output"` // row-major HiddenSize x OutputSize
	Updates int       `json:"updates"`
}

// Weights returns a copy of the current parameters.
func (n *Net) Weights() Weights {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Weights{
		Hidden:  append([]float64(nil), n.hidden.RawMatrix().Data...),
		Output:  append([]float64(nil), n.output.RawMatrix().Data...),
		Updates: n.updates,
	}
}

// SetWeights replaces the parameters.
func (n *Net) SetWeights(w Weights) error {
	if len(w.Hidden) != InputSize*HiddenSize || len(w.Output) != HiddenSize*OutputSize {
		return fmt.Errorf("neural: weight shape mismatch: hidden %d, output %d", len(w.Hidden), len(w.Output))
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hidden = mat.NewDense(InputSize, HiddenSize, append([]float64(nil), w.Hidden...))
	n.output = mat.NewDense(HiddenSize, OutputSize, append([]float64(nil), w.Output...))
	n.updates = w.Updates
	return nil
}
