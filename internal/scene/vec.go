// Package scene computes where every visual entity should be each frame.
//
// All state here is plain numbers: the animator reads the application state,
// moves each entity's current transform a fraction of the way toward its
// target and returns a Frame for a renderer to draw. Nothing in this package
// touches a graphics API.
package scene

import "math"

// Vec3 is a 3D vector or point.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Lerp moves a toward b by fraction f. With 0 < f < 1 the result is strictly
// closer to b than a is, and never reaches it in finite steps.
func Lerp(a, b, f float64) float64 {
	return a + (b-a)*f
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Lerp interpolates every component toward o by fraction f.
func (v Vec3) Lerp(o Vec3, f float64) Vec3 {
	return Vec3{Lerp(v.X, o.X, f), Lerp(v.Y, o.Y, f), Lerp(v.Z, o.Z, f)}
}

func (v Vec3) LenSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.LenSq())
}

// DistSq returns the squared distance between v and o.
func (v Vec3) DistSq(o Vec3) float64 {
	return v.Sub(o).LenSq()
}

// RotateY rotates v about the Y axis by angle radians (right-handed, Y up).
func (v Vec3) RotateY(angle float64) Vec3 {
	s, c := math.Sincos(angle)
	return Vec3{
		X: v.X*c + v.Z*s,
		Y: v.Y,
		Z: -v.X*s + v.Z*c,
	}
}

// lookAtEuler returns XYZ Euler angles that turn an object's +Z axis from
// pos toward target. ok is false when the two points coincide.
func lookAtEuler(pos, target Vec3) (rot Vec3, ok bool) {
	d := target.Sub(pos)
	l := d.Len()
	if l < 1e-9 {
		return Vec3{}, false
	}
	return Vec3{
		X: math.Atan2(-d.Y, d.Z),
		Y: math.Asin(d.X / l),
	}, true
}
