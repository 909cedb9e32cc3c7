package scene

import (
	"math"
	"math/rand"

	"github.com/ayusman/cakewish/internal/state"
)

var (
	candleOnCake = Vec3{X: 0, Y: 2.3, Z: 0}
	candleStart  = Vec3{X: 0, Y: 10, Z: 0}
)

// Flame holds the ambient flame and light attributes. They depend only on time.
type Flame struct {
	Scale          Vec3    `json:"scale"`
	SwayX          float64 `json:"sway_x"`
	SwayZ          float64 `json:"sway_z"`
	LightIntensity float64 `json:"light_intensity"`
	LightDistance  float64 `json:"light_distance"`
	LightOffsetX   float64 `json:"light_offset_x"`
}

// CandleFrame is the candle's per-frame transform.
type CandleFrame struct {
	Position Vec3  `json:"position"`
	Flame    Flame `json:"flame"`
}

type candle struct {
	floating Vec3
	current  Vec3
}

// newCandle draws the floating point once. It is reused for every scattered phase.
func newCandle(rng *rand.Rand) *candle {
	return &candle{
		floating: Vec3{
			X: (rng.Float64() - 0.5) * 8,
			Y: 4 + rng.Float64()*4,
			Z: (rng.Float64() - 0.5) * 8,
		},
		current: candleStart,
	}
}

func (c *candle) target(s state.AppState) Vec3 {
	if s == state.Assembled {
		return candleOnCake
	}
	return c.floating
}

func (c *candle) step(s state.AppState, t, factor float64) CandleFrame {
	c.current = c.current.Lerp(c.target(s), factor)
	return CandleFrame{Position: c.current, Flame: FlameAt(t)}
}

// FlameAt computes flicker and sway at elapsed time t seconds.
func FlameAt(t float64) Flame {
	flicker := math.Sin(t*12)*0.1 + math.Cos(t*25)*0.1
	return Flame{
		Scale: Vec3{
			X: 0.7 + flicker*0.1,
			Y: 2.2 + flicker*0.3,
			Z: 0.7 + flicker*0.1,
		},
		SwayX:          math.Cos(t*2.5) * 0.08,
		SwayZ:          math.Sin(t*3) * 0.08,
		LightIntensity: 2 + flicker*1.5,
		LightDistance:  6 + flicker,
		LightOffsetX:   math.Sin(t*15) * 0.02,
	}
}
