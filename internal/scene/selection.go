package scene

import "math"

// Viewpoint is the approximate camera position used to pick the photo to zoom.
var Viewpoint = Vec3{X: 0, Y: 2, Z: 8}

// selectionHeight is the average ring height assumed when picking.
const selectionHeight = 1.0

// SelectNearestPhoto returns the index of the ring photo closest to viewpoint
// once the ring is rotated by yaw. The first index wins ties. It returns -1
// when there are no photos.
func SelectNearestPhoto(total int, yaw float64, viewpoint Vec3) int {
	best := -1
	bestDist := math.Inf(1)
	for i := 0; i < total; i++ {
		p := RingPosition(i, total, selectionHeight).RotateY(yaw)
		if d := p.DistSq(viewpoint); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
