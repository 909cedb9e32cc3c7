package scene

import (
	"math"
	"math/rand"

	"github.com/ayusman/cakewish/internal/state"
)

// Ring layout and zoom pose.
const (
	RingRadius = 4.0

	assembledRingScale  = 0.6
	assembledHeightMul  = 0.5
	assembledPhotoScale = 0.5
	bobAmplitude        = 0.5
	zoomScale           = 3.0
)

var (
	zoomPosition = Vec3{X: 0, Y: 0, Z: 4}
	zoomLookAt   = Vec3{X: 0, Y: 0, Z: 10}
)

// PhotoFrame is one photo panel's per-frame transform.
type PhotoFrame struct {
	Index       int     `json:"index"`
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	AspectRatio float64 `json:"aspect_ratio"`
	Position    Vec3    `json:"position"`
	Scale       Vec3    `json:"scale"`
	Rotation    Vec3    `json:"rotation"`
	Zoomed      bool    `json:"zoomed"`
}

type photoAnim struct {
	height   float64
	position Vec3
	scale    Vec3
	rotation Vec3
}

// RingPosition places item index of total evenly on a circle of RingRadius
// at the given height.
func RingPosition(index, total int, height float64) Vec3 {
	theta := ringAngle(index, total)
	return Vec3{
		X: math.Cos(theta) * RingRadius,
		Y: height,
		Z: math.Sin(theta) * RingRadius,
	}
}

func ringAngle(index, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(index) / float64(total) * 2 * math.Pi
}

// photoRing keeps per-photo animation state keyed by photo id, so entries
// survive the list growing.
type photoRing struct {
	rng   *rand.Rand
	anims map[string]*photoAnim
}

func newPhotoRing(rng *rand.Rand) *photoRing {
	return &photoRing{rng: rng, anims: make(map[string]*photoAnim)}
}

// anim returns the state for id, creating it on first sight with a ring
// height drawn once.
func (r *photoRing) anim(id string) *photoAnim {
	a, ok := r.anims[id]
	if !ok {
		a = &photoAnim{
			height: r.rng.Float64() * 2,
			scale:  Vec3{X: 1, Y: 1, Z: 1},
		}
		r.anims[id] = a
	}
	return a
}

// step advances every photo. yaw is the group rotation; the zoomed panel
// faces the viewpoint expressed in the group's rotated frame.
func (r *photoRing) step(snap state.Snapshot, yaw, t, factor float64) []PhotoFrame {
	total := len(snap.Photos)
	active, hasActive := snap.ActiveIndex()

	frames := make([]PhotoFrame, 0, total)
	for i, p := range snap.Photos {
		if p.ID == "" {
			continue
		}
		a := r.anim(p.ID)
		zoomed := hasActive && active == i
		ring := RingPosition(i, total, a.height)

		var targetPos, targetRot Vec3
		targetScale := 1.0

		switch {
		case zoomed:
			targetPos = zoomPosition
			targetScale = zoomScale
		case snap.State == state.Assembled:
			targetPos = ring.Scale(assembledRingScale)
			targetPos.Y = ring.Y * assembledHeightMul
			targetScale = assembledPhotoScale
			targetRot = Vec3{Y: -t * 0.05}
		default:
			targetPos = ring
			targetPos.Y += math.Sin(t+float64(i)) * bobAmplitude
			targetRot = Vec3{X: math.Sin(t) * 0.2, Y: ringAngle(i, total)}
		}

		a.position = a.position.Lerp(targetPos, factor)
		a.scale = a.scale.Lerp(Vec3{X: targetScale, Y: targetScale, Z: 1}, factor)

		if zoomed {
			if rot, ok := lookAtEuler(a.position, zoomLookAt.RotateY(-yaw)); ok {
				a.rotation = rot
			}
		} else {
			a.rotation.X = Lerp(a.rotation.X, targetRot.X, factor)
			a.rotation.Y = Lerp(a.rotation.Y, targetRot.Y, factor)
		}

		frames = append(frames, PhotoFrame{
			Index:       i,
			ID:          p.ID,
			URL:         p.URL,
			AspectRatio: p.AspectRatio,
			Position:    a.position,
			Scale:       a.scale,
			Rotation:    a.rotation,
			Zoomed:      zoomed,
		})
	}
	return frames
}
