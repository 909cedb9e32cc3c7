package scene

import (
	"math"

	"github.com/ayusman/cakewish/internal/state"
)

// jitterAmplitude is the per-frame vertical drift added while scattered.
const jitterAmplitude = 0.005

// particleField tracks the rendered position of every structural particle.
type particleField struct {
	particles []Particle
	current   []Vec3
}

func newParticleField(particles []Particle) *particleField {
	current := make([]Vec3, len(particles))
	for i, p := range particles {
		current[i] = p.Initial
	}
	return &particleField{particles: particles, current: current}
}

// particleTarget is the assembled position under ASSEMBLED and the scattered
// position otherwise.
func particleTarget(p Particle, s state.AppState) Vec3 {
	if s == state.Assembled {
		return p.Target
	}
	return p.Initial
}

func (f *particleField) step(s state.AppState, t, factor float64) {
	for i, p := range f.particles {
		cur := f.current[i].Lerp(particleTarget(p, s), factor)
		if s == state.Scattered {
			cur.Y += math.Sin(t+float64(p.ID)) * jitterAmplitude
		}
		f.current[i] = cur
	}
}

func (f *particleField) positions() []Vec3 {
	out := make([]Vec3, len(f.current))
	copy(out, f.current)
	return out
}
