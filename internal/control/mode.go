package control

// Mode is a camera control mode derived from a confirmed gesture.
type Mode string

// The closed set of control modes. Any label that is not bound, or whose
// confidence is below its mode's threshold, resolves to ModeNone.
const (
	ModeNone    Mode = "NONE"
	ModePan     Mode = "PAN"
	ModeZoomIn  Mode = "ZOOM_IN"
	ModeZoomOut Mode = "ZOOM_OUT"
	ModeRotateH Mode = "ROTATE_H"
	ModeRotateV Mode = "ROTATE_V"
	ModeReset   Mode = "RESET"
)

// Valid reports whether m is one of the defined control modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeNone, ModePan, ModeZoomIn, ModeZoomOut, ModeRotateH, ModeRotateV, ModeReset:
		return true
	}
	return false
}

// DefaultBindings maps the MediaPipe gesture recognizer's canned labels to
// control modes.
func DefaultBindings() map[string]Mode {
	return map[string]Mode{
		"Pointing_Up": ModePan,
		"Thumb_Up":    ModeZoomIn,
		"Thumb_Down":  ModeZoomOut,
		"Victory":     ModeRotateH,
		"Open_Palm":   ModeRotateV,
		"Closed_Fist": ModeReset,
	}
}
