package recognizer

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseResult(t *testing.T) {
	t.Run("hands with gestures", func(t *testing.T) {
		line := []byte(`{"hands":[{"points":[{"x":0.5,"y":0.5,"z":0}],"handedness":"Left","score":0.9}],"gestures":[{"label":"Victory","score":0.77}]}` + "\n")

		res, err := parseResult(line)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Hands) != 1 || len(res.Gestures) != 1 {
			t.Fatalf("expected one hand and one gesture, got %+v", res)
		}
		if res.Hands[0].Handedness != "Left" || res.Hands[0].Score != 0.9 {
			t.Errorf("unexpected hand: %+v", res.Hands[0])
		}
		if res.Hands[0].Points[Wrist] != (Point3D{X: 0.5, Y: 0.5}) {
			t.Errorf("unexpected wrist point: %+v", res.Hands[0].Points[Wrist])
		}
		if res.Gestures[0] != (Gesture{Label: "Victory", Score: 0.77}) {
			t.Errorf("expected the service classification, got %+v", res.Gestures[0])
		}
	})

	t.Run("landmarks only fall back to geometry", func(t *testing.T) {
		payload, err := json.Marshal(struct {
			Hands []HandLandmarks `json:"hands"`
		}{Hands: []HandLandmarks{ThumbsUpLandmarks()}})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		res, err := parseResult(payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Gestures) != 1 || res.Gestures[0].Label != LabelThumbUp {
			t.Fatalf("expected a geometric Thumb_Up fallback, got %+v", res.Gestures)
		}
	})

	t.Run("empty frame", func(t *testing.T) {
		res, err := parseResult([]byte(`{"hands":[],"gestures":[]}` + "\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Hands) != 0 || len(res.Gestures) != 0 {
			t.Errorf("expected an empty result, got %+v", res)
		}
	})

	t.Run("service error", func(t *testing.T) {
		_, err := parseResult([]byte(`{"error":"model load failed"}` + "\n"))
		if err == nil || !strings.Contains(err.Error(), "model load failed") {
			t.Errorf("expected the service error surfaced, got %v", err)
		}
	})

	t.Run("malformed line", func(t *testing.T) {
		if _, err := parseResult([]byte("{not json\n")); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestNextTimestamp(t *testing.T) {
	d := &MediaPipeRecognizer{}

	if got := d.nextTimestamp(100); got != 100 {
		t.Errorf("advancing clock: expected 100, got %d", got)
	}
	if got := d.nextTimestamp(100); got != 101 {
		t.Errorf("stalled clock: expected the bump to 101, got %d", got)
	}
	if got := d.nextTimestamp(50); got != 102 {
		t.Errorf("regressing clock: expected the bump to 102, got %d", got)
	}
	if got := d.nextTimestamp(200); got != 200 {
		t.Errorf("recovered clock: expected 200, got %d", got)
	}
}
