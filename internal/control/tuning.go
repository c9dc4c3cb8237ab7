package control

import (
	"fmt"
	"time"
)

// Tuning is the full configuration surface of a session tracker. It is
// injected at construction, never read from globals; start from
// DefaultTuning and override fields as needed. The JSON form is what
// profiles persist and the tuning API serves.
type Tuning struct {
	// One Euro filter parameters.
	MinCutoffHz        float64 `json:"minCutoffHz"`
	Beta               float64 `json:"beta"`
	DerivativeCutoffHz float64 `json:"derivativeCutoffHz"`

	// ConfirmFrames is how many consecutive frames a candidate mode must
	// hold before it becomes the confirmed mode.
	ConfirmFrames int `json:"confirmFrames"`

	// Per-mode confidence thresholds. Reset carries the highest bar of any
	// mode so a stray fist never snaps the camera; pan the lowest, because
	// a pointed index finger is hard to hold without score dips. Every
	// other mode uses the generic threshold.
	MinConfidence   float64 `json:"minConfidence"`
	ResetConfidence float64 `json:"resetConfidence"`
	PanConfidence   float64 `json:"panConfidence"`

	// InactivityWindowMs is how long the hand may be absent before the
	// session resets and a single inactive packet is emitted.
	InactivityWindowMs int `json:"inactivityWindowMs"`

	// Sensitivities. RotateHSensitivity is percent-style: it is applied as
	// RotateHSensitivity/100 output degrees per degree of hand rotation.
	// ZoomSpeed is the radius change per confirmed frame.
	PanSensitivity     float64 `json:"panSensitivity"`
	RotateHSensitivity float64 `json:"rotateHSensitivity"`
	RotateVSensitivity float64 `json:"rotateVSensitivity"`
	ZoomSpeed          float64 `json:"zoomSpeed"`

	// Bindings maps raw classifier labels to control modes.
	Bindings map[string]Mode `json:"bindings"`
}

// DefaultTuning returns the stock tuning.
func DefaultTuning() Tuning {
	return Tuning{
		MinCutoffHz:        1.0,
		Beta:               0.07,
		DerivativeCutoffHz: 1.0,
		ConfirmFrames:      2,
		MinConfidence:      0.50,
		ResetConfidence:    0.80,
		PanConfidence:      0.30,
		InactivityWindowMs: 1000,
		PanSensitivity:     3.5,
		RotateHSensitivity: 200.0,
		RotateVSensitivity: 180.0,
		ZoomSpeed:          0.08,
		Bindings:           DefaultBindings(),
	}
}

// Validate checks every parameter against its allowed range.
func (t Tuning) Validate() error {
	if t.MinCutoffHz <= 0 {
		return fmt.Errorf("minCutoffHz must be positive, got %g", t.MinCutoffHz)
	}
	if t.Beta < 0 {
		return fmt.Errorf("beta must be non-negative, got %g", t.Beta)
	}
	if t.DerivativeCutoffHz <= 0 {
		return fmt.Errorf("derivativeCutoffHz must be positive, got %g", t.DerivativeCutoffHz)
	}
	if t.ConfirmFrames < 1 {
		return fmt.Errorf("confirmFrames must be at least 1, got %d", t.ConfirmFrames)
	}
	for name, v := range map[string]float64{
		"minConfidence":   t.MinConfidence,
		"resetConfidence": t.ResetConfidence,
		"panConfidence":   t.PanConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %g", name, v)
		}
	}
	if t.InactivityWindowMs <= 0 {
		return fmt.Errorf("inactivityWindowMs must be positive, got %d", t.InactivityWindowMs)
	}
	if t.PanSensitivity < 0 || t.RotateHSensitivity < 0 || t.RotateVSensitivity < 0 {
		return fmt.Errorf("sensitivities must be non-negative")
	}
	if t.ZoomSpeed < 0 {
		return fmt.Errorf("zoomSpeed must be non-negative, got %g", t.ZoomSpeed)
	}
	for label, mode := range t.Bindings {
		if !mode.Valid() {
			return fmt.Errorf("binding %q: unknown mode %q", label, mode)
		}
	}
	return nil
}

// threshold returns the required confidence for a candidate mode.
func (t Tuning) threshold(m Mode) float64 {
	switch m {
	case ModeReset:
		return t.ResetConfidence
	case ModePan:
		return t.PanConfidence
	default:
		return t.MinConfidence
	}
}

func (t Tuning) inactivityWindow() time.Duration {
	return time.Duration(t.InactivityWindowMs) * time.Millisecond
}
