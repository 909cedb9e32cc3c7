package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MotionDetector decides whether anything moved in front of the camera
// between two frames. Frames are reduced to a small blurred grayscale sample
// before comparison, so a hand entering the shot registers and sensor noise
// does not.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64 // percent of sample pixels that must change
	prev      gocv.Mat
	primed    bool
}

const (
	// SampleWidth is the width frames are shrunk to before diffing.
	SampleWidth = 160
	blurKernel  = 5
	// PixelDelta is the gray level change that counts a pixel as moved.
	PixelDelta = 25
)

// NewMotionDetector returns a detector that reports motion once more than
// threshold percent of the sample changes.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Detect compares frame with the previous one and returns whether it moved
// and the percentage of the sample that changed. The first frame after
// construction or Reset only primes the detector.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	cur := motionSample(*frame)
	defer m.keep(cur)

	if !m.primed || cur.Rows() != m.prev.Rows() || cur.Cols() != m.prev.Cols() {
		m.primed = true
		return false, 0
	}

	changed := changedPercent(cur, m.prev)
	return changed > m.threshold, changed
}

// keep replaces the stored sample with cur. Caller holds mu.
func (m *MotionDetector) keep(cur gocv.Mat) {
	m.prev.Close()
	m.prev = cur
}

// motionSample returns a grayscale, downscaled and blurred copy of frame.
func motionSample(frame gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	small := gocv.NewMat()
	defer small.Close()
	if gray.Cols() > SampleWidth {
		h := max(1, gray.Rows()*SampleWidth/gray.Cols())
		gocv.Resize(gray, &small, image.Point{X: SampleWidth, Y: h}, 0, 0, gocv.InterpolationArea)
	} else {
		gray.CopyTo(&small)
	}

	out := gocv.NewMat()
	gocv.GaussianBlur(small, &out, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)
	return out
}

func changedPercent(a, b gocv.Mat) float64 {
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, PixelDelta, 255, gocv.ThresholdBinary)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total) * 100
}

// Reset drops the stored sample; the next frame primes the detector again.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keep(gocv.NewMat())
	m.primed = false
}

// Close releases the stored sample.
func (m *MotionDetector) Close() {
	m.Reset()
}

// RateController picks the capture rate from recent motion: the active rate
// while the scene moves, the idle rate after IdleTimeout without motion.
type RateController struct {
	ActiveFPS   int
	IdleFPS     int
	IdleTimeout time.Duration

	active     bool
	lastMotion time.Time
}

// NewRateController returns a controller that starts in idle mode.
func NewRateController(activeFPS, idleFPS int, idleTimeout time.Duration) *RateController {
	return &RateController{
		ActiveFPS:   activeFPS,
		IdleFPS:     idleFPS,
		IdleTimeout: idleTimeout,
	}
}

// FPS returns the rate for the current mode.
func (r *RateController) FPS() int {
	if r.active {
		return r.ActiveFPS
	}
	return r.IdleFPS
}

// Active reports whether the controller is in active mode.
func (r *RateController) Active() bool {
	return r.active
}

// Observe records one motion sample taken at now. changed is true when the
// mode flipped and the caller should apply the returned rate.
func (r *RateController) Observe(motion bool, now time.Time) (fps int, changed bool) {
	switch {
	case motion:
		r.lastMotion = now
		if !r.active {
			r.active = true
			return r.ActiveFPS, true
		}
	case r.active && now.Sub(r.lastMotion) > r.IdleTimeout:
		r.active = false
		return r.IdleFPS, true
	}
	return r.FPS(), false
}
