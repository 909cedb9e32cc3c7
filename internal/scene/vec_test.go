package scene

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestLerp_StrictlyApproaches(t *testing.T) {
	starts := []float64{-100, -1, 0, 0.5, 3, 1e6}
	targets := []float64{0, 2.3, -7}
	factors := []float64{0.01, 0.04, 0.05, 0.5, 0.99}

	for _, x := range starts {
		for _, target := range targets {
			if x == target {
				continue
			}
			for _, f := range factors {
				once := Lerp(x, target, f)
				twice := Lerp(once, target, f)
				if !(math.Abs(twice-target) < math.Abs(x-target)) {
					t.Errorf("x=%v t=%v f=%v: |lerp²-t|=%v not < |x-t|=%v",
						x, target, f, math.Abs(twice-target), math.Abs(x-target))
				}
				if once == target {
					t.Errorf("x=%v t=%v f=%v: single step snapped to target", x, target, f)
				}
			}
		}
	}
}

func TestLerp_ConvergesWithinBoundedSteps(t *testing.T) {
	const f = 0.05
	const eps = 1e-3

	for _, x := range []float64{-12, 0, 12} {
		cur := Vec3{X: x, Y: -x, Z: x / 2}
		target := Vec3{X: 1, Y: 2.3, Z: -1}
		start := cur.Sub(target).Len()

		// (1-f)^n * start < eps
		bound := int(math.Ceil(math.Log(eps/start)/math.Log(1-f))) + 1

		prev := start
		steps := 0
		for cur.Sub(target).Len() >= eps {
			cur = cur.Lerp(target, f)
			d := cur.Sub(target).Len()
			if d >= prev {
				t.Fatalf("distance did not decrease: %v -> %v", prev, d)
			}
			prev = d
			steps++
			if steps > bound {
				t.Fatalf("did not converge within %d steps (start %v)", bound, start)
			}
		}
	}
}

func TestVec3_RotateY(t *testing.T) {
	v := Vec3{X: 1, Y: 5, Z: 0}

	got := v.RotateY(math.Pi / 2)
	if math.Abs(got.X) > epsilon || math.Abs(got.Z+1) > epsilon || got.Y != 5 {
		t.Errorf("RotateY(π/2) = %+v, want (0,5,-1)", got)
	}

	back := got.RotateY(-math.Pi / 2)
	if back.Sub(v).Len() > epsilon {
		t.Errorf("rotation round trip = %+v, want %+v", back, v)
	}
}

func TestLookAtEuler_FacesTarget(t *testing.T) {
	tests := []struct {
		name   string
		pos    Vec3
		target Vec3
	}{
		{"straight ahead", Vec3{0, 0, 4}, Vec3{0, 0, 10}},
		{"off to the side", Vec3{2, 1, 0}, Vec3{-3, 0, 5}},
		{"behind", Vec3{0, 0, 4}, Vec3{1, 2, -6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rot, ok := lookAtEuler(tt.pos, tt.target)
			if !ok {
				t.Fatal("lookAtEuler returned !ok")
			}

			// Apply Rx(rot.X) * Ry(rot.Y) to +Z.
			sy, cy := math.Sincos(rot.Y)
			sx, cx := math.Sincos(rot.X)
			fwd := Vec3{X: sy, Y: -sx * cy, Z: cx * cy}

			want := tt.target.Sub(tt.pos).Scale(1 / tt.target.Sub(tt.pos).Len())
			if fwd.Sub(want).Len() > 1e-9 {
				t.Errorf("forward = %+v, want %+v", fwd, want)
			}
		})
	}

	if _, ok := lookAtEuler(Vec3{1, 1, 1}, Vec3{1, 1, 1}); ok {
		t.Error("coincident points should report !ok")
	}
}
