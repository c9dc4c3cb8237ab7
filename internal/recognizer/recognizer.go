package recognizer

import "gocv.io/x/gocv"

// Gesture is one gesture classification: a canonical label (see the Label
// constants) and its confidence score in [0,1].
type Gesture struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Result is the output for one frame. Gestures is aligned with Hands:
// Gestures[i] classifies Hands[i].
type Result struct {
	Hands    []HandLandmarks
	Gestures []Gesture
}

// Top returns the primary hand and its classification. The bool reports
// whether any hand was detected at all.
func (r *Result) Top() (*HandLandmarks, Gesture, bool) {
	if r == nil || len(r.Hands) == 0 {
		return nil, Gesture{Label: LabelNone}, false
	}
	g := Gesture{Label: LabelNone}
	if len(r.Gestures) > 0 {
		g = r.Gestures[0]
	}
	return &r.Hands[0], g, true
}

// Recognizer analyzes video frames for hands and gestures.
type Recognizer interface {
	// Recognize analyzes one frame. timestampMs must not decrease across
	// calls; implementations that feed a video-mode model bump it when it
	// does. A result with no hands is a normal outcome, not an error.
	Recognize(frame *gocv.Mat, timestampMs int64) (*Result, error)

	// Close releases any resources held by the recognizer.
	Close() error
}

// Config holds recognition options.
type Config struct {
	// MaxHands is the maximum number of hands to track (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ModelPath overrides the gesture model file handed to the service.
	// Empty means the service resolves (and if needed downloads) its own.
	ModelPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.6,
		MinTrackingConf: 0.6,
	}
}
