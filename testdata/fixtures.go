// Package testdata builds synthetic camera frames for tests, so nothing
// here needs a real camera or image files.
package testdata

import (
	"image"

	"gocv.io/x/gocv"
)

// Frame dimensions match the capture defaults.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// SolidFrame returns a single-color BGR frame.
func SolidFrame(b, g, r uint8) *gocv.Mat {
	mat := gocv.NewMatWithSize(FrameHeight, FrameWidth, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(float64(b), float64(g), float64(r), 0))
	return &mat
}

// MovingSequence returns frames with a bright square sliding across a black
// background, changing enough pixels between frames to read as motion.
func MovingSequence(steps int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, steps)
	for i := 0; i < steps; i++ {
		frame := SolidFrame(0, 0, 0)
		x := (i * 40) % (FrameWidth - 120)
		region := frame.Region(image.Rect(x, 180, x+120, 300))
		region.SetTo(gocv.NewScalar(255, 255, 255, 0))
		region.Close()
		frames = append(frames, frame)
	}
	return frames
}

// CloseAll releases every frame in the slice.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
