package control

import "math"

// Deltas is the additive camera adjustment produced by one confirmed frame.
type Deltas struct {
	PanX   float64
	PanY   float64
	Theta  float64
	Phi    float64
	Radius float64
	Reset  bool
}

// prevFrame holds the previous frame's filtered reference values. It is
// updated unconditionally on every hand frame, whatever the mode, so any
// mode that confirms later has a valid one-frame-back reference.
type prevFrame struct {
	indexX   float64
	indexY   float64
	avgY     float64
	angleDeg float64
}

// angleDeg returns the angle, in degrees, of the vector from the index tip
// to the middle tip.
func angleDeg(index, middle Point) float64 {
	return math.Atan2(middle.Y-index.Y, middle.X-index.X) * 180.0 / math.Pi
}

// wrapAngleDelta normalizes a frame-to-frame angle difference into
// (-180, 180], undoing a single wraparound at the ±180° boundary.
func wrapAngleDelta(d float64) float64 {
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// computeDeltas translates one frame of confirmed-mode motion into camera
// deltas. Pan signs are inverted because the camera feed is mirrored: a hand
// moving right reads as a camera-left pan.
func computeDeltas(mode Mode, index, middle Point, prev prevFrame, t Tuning) Deltas {
	var d Deltas

	switch mode {
	case ModePan:
		d.PanX = -(index.X - prev.indexX) * t.PanSensitivity
		d.PanY = -(index.Y - prev.indexY) * t.PanSensitivity
	case ModeZoomIn:
		d.Radius = -t.ZoomSpeed
	case ModeZoomOut:
		d.Radius = t.ZoomSpeed
	case ModeRotateH:
		delta := wrapAngleDelta(angleDeg(index, middle) - prev.angleDeg)
		d.Theta = delta * (t.RotateHSensitivity / 100.0)
	case ModeRotateV:
		avgY := (index.Y + middle.Y) / 2.0
		d.Phi = (avgY - prev.avgY) * t.RotateVSensitivity
	case ModeReset:
		d.Reset = true
	}

	return d
}
