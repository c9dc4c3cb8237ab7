package control

// confirmer debounces raw per-frame classifications into a confirmed control
// mode. A candidate must hold for ConfirmFrames consecutive qualifying frames
// before it commits, so a single misclassified frame never switches modes.
type confirmer struct {
	candidate Mode
	streak    int
	confirmed Mode
}

func newConfirmer() confirmer {
	return confirmer{candidate: ModeNone, confirmed: ModeNone}
}

// step feeds one (label, confidence) observation. It returns the confirmed
// mode after this frame, whether the confirmed mode changed on this frame,
// and whether the candidate streak has reached the confirmation threshold.
func (c *confirmer) step(label string, confidence float64, t Tuning) (mode Mode, changed, atThreshold bool) {
	candidate := t.Bindings[label]
	if candidate == "" {
		candidate = ModeNone
	}
	if confidence < t.threshold(candidate) {
		candidate = ModeNone
	}

	if candidate == c.candidate {
		// Clamp the streak at the threshold so it never grows unbounded.
		if c.streak < t.ConfirmFrames {
			c.streak++
		}
	} else {
		c.candidate = candidate
		c.streak = 1
	}

	if c.streak >= t.ConfirmFrames && c.candidate != c.confirmed {
		c.confirmed = c.candidate
		changed = true
	}

	return c.confirmed, changed, c.streak >= t.ConfirmFrames
}

func (c *confirmer) reset() {
	c.candidate = ModeNone
	c.streak = 0
	c.confirmed = ModeNone
}
