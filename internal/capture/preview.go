package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// PreviewQuality is the JPEG quality used for preview frames.
const PreviewQuality = 70

// MirrorJPEG flips frame horizontally, so the preview reads like a mirror,
// and encodes it as JPEG.
func MirrorJPEG(frame *gocv.Mat) ([]byte, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	mirrored := gocv.NewMat()
	defer mirrored.Close()
	gocv.Flip(*frame, &mirrored, 1)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mirrored, []int{int(gocv.IMWriteJpegQuality), PreviewQuality})
	if err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory that Close frees.
	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
