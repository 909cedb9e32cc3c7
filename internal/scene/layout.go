package scene

import (
	"math"
	"math/rand"
)

// Palette used by structural particles.
var Palette = []string{
	"#FFFFF0", // ivory
	"#556B2F", // matte green
	"#D4AF37", // gold
	"#B22222", // red
}

// Shape kinds for structural particles.
const (
	ShapeSphere = "sphere"
	ShapeCube   = "cube"
)

// Cake silhouette: two overlapping tiers.
const (
	topTierRadius    = 1.8
	topTierMinY      = 1.0
	topTierHeight    = 1.5
	bottomTierRadius = 2.8
	bottomTierMinY   = -1.0
	bottomTierHeight = 2.0

	scatterRadius = 12.0
)

// Particle is a structural particle. It never changes after generation.
type Particle struct {
	ID      int     `json:"id"`
	Initial Vec3    `json:"initial"`
	Target  Vec3    `json:"target"`
	Color   string  `json:"color"`
	Shape   string  `json:"shape"`
	Scale   float64 `json:"scale"`
}

// FrostingParticle is a soft point sprite layered over the cake.
type FrostingParticle struct {
	Initial Vec3    `json:"initial"`
	Target  Vec3    `json:"target"`
	Size    float64 `json:"size"`
	Gold    bool    `json:"gold"`
	Phase   float64 `json:"phase"`
}

// GenerateParticles builds n structural particles. About 40% land in the top tier.
func GenerateParticles(rng *rand.Rand, n int) []Particle {
	particles := make([]Particle, n)
	for i := range particles {
		target := cakePoint(rng, 0.6)
		initial := pointInSphere(rng, scatterRadius)

		shape := ShapeCube
		if rng.Float64() > 0.5 {
			shape = ShapeSphere
		}

		particles[i] = Particle{
			ID:      i,
			Initial: initial,
			Target:  target,
			Color:   Palette[rng.Intn(len(Palette))],
			Shape:   shape,
			Scale:   0.1 + rng.Float64()*0.15,
		}
	}
	return particles
}

// GenerateFrosting builds n frosting particles. Sizes follow a power curve in
// [1, 8] so most are small; roughly one in five is gold.
func GenerateFrosting(rng *rand.Rand, n int) []FrostingParticle {
	frosting := make([]FrostingParticle, n)
	for i := range frosting {
		initial := pointInSphere(rng, scatterRadius)
		target := cakePoint(rng, 0.65)
		frosting[i] = FrostingParticle{
			Initial: initial,
			Target:  target,
			Size:    1 + math.Pow(rng.Float64(), 5)*7,
			Gold:    rng.Float64() < 0.2,
			Phase:   rng.Float64() * 10,
		}
	}
	return frosting
}

// cakePoint samples a point in one of the two tiers. A draw above topCut
// selects the top tier. Radii use sqrt sampling for uniform disk area.
func cakePoint(rng *rand.Rand, topCut float64) Vec3 {
	top := rng.Float64() > topCut
	angle := rng.Float64() * 2 * math.Pi

	var r, y float64
	if top {
		r = math.Sqrt(rng.Float64()) * topTierRadius
		y = topTierMinY + rng.Float64()*topTierHeight
	} else {
		r = math.Sqrt(rng.Float64()) * bottomTierRadius
		y = bottomTierMinY + rng.Float64()*bottomTierHeight
	}

	return Vec3{X: math.Cos(angle) * r, Y: y, Z: math.Sin(angle) * r}
}

// pointInSphere samples uniformly inside a sphere of the given radius.
func pointInSphere(rng *rand.Rand, radius float64) Vec3 {
	theta := 2 * math.Pi * rng.Float64()
	phi := math.Acos(2*rng.Float64() - 1)
	r := math.Cbrt(rng.Float64()) * radius

	sinPhi := math.Sin(phi)
	return Vec3{
		X: r * sinPhi * math.Cos(theta),
		Y: r * sinPhi * math.Sin(theta),
		Z: r * math.Cos(phi),
	}
}
