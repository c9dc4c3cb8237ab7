package control

import "math"

// Packet is one camera-control command emitted by a session tracker. Deltas
// are additive: consumers apply them on top of their current camera state.
type Packet struct {
	Active     bool    `json:"active"`
	Gesture    string  `json:"gesture"`
	Confidence float64 `json:"confidence"`
	Mode       Mode    `json:"mode"`
	DPanX      float64 `json:"dPanX"`
	DPanY      float64 `json:"dPanY"`
	DTheta     float64 `json:"dTheta"`
	DPhi       float64 `json:"dPhi"`
	DRadius    float64 `json:"dRadius"`
	Reset      bool    `json:"reset"`
}

// Camera defaults a consumer restores when a packet carries reset=true. The
// tracker never applies these itself; they document the external contract.
const (
	ResetRadius   = 4.0
	ResetThetaDeg = 242.0
	ResetPhiDeg   = 79.0
	ResetPanX     = 0.0
	ResetPanY     = 0.0
)

// inactivePacket is the single packet emitted when a session times out:
// control pauses, the camera stays where it is.
func inactivePacket() Packet {
	return Packet{Gesture: "None", Mode: ModeNone}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// rounded trims p to wire precision: confidence and rotation/zoom deltas to
// four decimals, pan deltas to five.
func (p Packet) rounded() Packet {
	p.Confidence = roundTo(p.Confidence, 4)
	p.DPanX = roundTo(p.DPanX, 5)
	p.DPanY = roundTo(p.DPanY, 5)
	p.DTheta = roundTo(p.DTheta, 4)
	p.DPhi = roundTo(p.DPhi, 4)
	p.DRadius = roundTo(p.DRadius, 4)
	return p
}
