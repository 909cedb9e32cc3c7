package scene

import (
	"math"

	"github.com/ayusman/cakewish/internal/state"
)

// Breathing amplitude per axis while scattered (mix 0) and assembled (mix 1).
const (
	breathScattered = 0.1
	breathAssembled = 0.02
)

// FrostingFrame carries what a renderer needs to place frosting particles:
// the assembly mix in [0, 1] and the elapsed time driving the breathing.
// Positions is filled only when the animator is asked for it.
type FrostingFrame struct {
	Mix       float64 `json:"mix"`
	Time      float64 `json:"time"`
	Positions []Vec3  `json:"positions,omitempty"`
}

// frostingField animates a single mix value shared by all frosting particles.
type frostingField struct {
	particles []FrostingParticle
	mix       float64
}

func newFrostingField(particles []FrostingParticle, initial state.AppState) *frostingField {
	f := &frostingField{particles: particles}
	f.mix = frostingTarget(initial)
	return f
}

func frostingTarget(s state.AppState) float64 {
	if s == state.Assembled {
		return 1
	}
	return 0
}

func (f *frostingField) step(s state.AppState, factor float64) {
	f.mix = Lerp(f.mix, frostingTarget(s), factor)
}

func (f *frostingField) positions(t float64) []Vec3 {
	out := make([]Vec3, len(f.particles))
	for i, p := range f.particles {
		out[i] = FrostingPosition(p, f.mix, t)
	}
	return out
}

// FrostingPosition returns where p is drawn for a given mix and time.
// Breathing is strong while scattered and nearly still when assembled.
func FrostingPosition(p FrostingParticle, mix, t float64) Vec3 {
	pos := p.Initial.Lerp(p.Target, mix)
	strength := Lerp(breathScattered, breathAssembled, mix)
	pos.X += math.Sin(t*2.0+p.Phase) * strength
	pos.Y += math.Cos(t*1.5+p.Phase) * strength
	pos.Z += math.Sin(t*2.2+p.Phase) * strength
	return pos
}
