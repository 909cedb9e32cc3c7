package scene

import (
	"math"
	"math/rand"
	"testing"
)

func TestGenerateParticles_Shape(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	particles := GenerateParticles(rng, 2000)

	if len(particles) != 2000 {
		t.Fatalf("got %d particles, want 2000", len(particles))
	}

	top := 0
	for i, p := range particles {
		if p.ID != i {
			t.Fatalf("particle %d has id %d", i, p.ID)
		}

		if p.Initial.Len() > scatterRadius+epsilon {
			t.Errorf("particle %d initial %v outside scatter sphere", i, p.Initial)
		}

		r := math.Hypot(p.Target.X, p.Target.Z)
		switch {
		case p.Target.Y >= bottomTierMinY && p.Target.Y < topTierMinY:
			if r > bottomTierRadius+epsilon {
				t.Errorf("bottom-tier particle %d radius %v > %v", i, r, bottomTierRadius)
			}
		case p.Target.Y >= topTierMinY && p.Target.Y <= topTierMinY+topTierHeight:
			if r > bottomTierRadius+epsilon {
				t.Errorf("particle %d radius %v outside cake", i, r)
			}
			if r <= topTierRadius {
				top++
			}
		default:
			t.Errorf("particle %d target height %v outside both tiers", i, p.Target.Y)
		}

		if p.Scale < 0.1 || p.Scale > 0.25 {
			t.Errorf("particle %d scale %v outside [0.1, 0.25]", i, p.Scale)
		}
		if p.Shape != ShapeSphere && p.Shape != ShapeCube {
			t.Errorf("particle %d has shape %q", i, p.Shape)
		}
	}

	// roughly 40% top tier plus some bottom-tier points above y=1
	if top < 600 {
		t.Errorf("only %d of 2000 particles in the top tier", top)
	}
}

func TestGenerateParticles_Deterministic(t *testing.T) {
	a := GenerateParticles(rand.New(rand.NewSource(7)), 50)
	b := GenerateParticles(rand.New(rand.NewSource(7)), 50)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("particle %d differs for equal seeds", i)
		}
	}
}

func TestGenerateFrosting_Ranges(t *testing.T) {
	frosting := GenerateFrosting(rand.New(rand.NewSource(1)), 5000)

	gold := 0
	for i, f := range frosting {
		if f.Size < 1 || f.Size > 8 {
			t.Errorf("frosting %d size %v outside [1, 8]", i, f.Size)
		}
		if f.Phase < 0 || f.Phase >= 10 {
			t.Errorf("frosting %d phase %v outside [0, 10)", i, f.Phase)
		}
		if f.Gold {
			gold++
		}
	}

	if gold < 750 || gold > 1250 {
		t.Errorf("gold count %d not near 20%% of 5000", gold)
	}
}

func TestPointInSphere_UniformInVolume(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const n = 20000
	inner := 0
	for i := 0; i < n; i++ {
		if pointInSphere(rng, 1).Len() < 0.5 {
			inner++
		}
	}
	// volume fraction of radius 0.5 is 1/8
	frac := float64(inner) / n
	if frac < 0.10 || frac > 0.15 {
		t.Errorf("inner fraction = %v, want about 0.125", frac)
	}
}
