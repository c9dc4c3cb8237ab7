package recognizer

import "testing"

func TestClassifyPresets(t *testing.T) {
	tests := []struct {
		name string
		hand HandLandmarks
		want string
	}{
		{"thumbs up", ThumbsUpLandmarks(), LabelThumbUp},
		{"thumbs down", ThumbsDownLandmarks(), LabelThumbDown},
		{"open palm", OpenPalmLandmarks(), LabelOpenPalm},
		{"pointing up", PointingUpLandmarks(), LabelPointingUp},
		{"victory", VictoryLandmarks(), LabelVictory},
		{"closed fist", ClosedFistLandmarks(), LabelClosedFist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(&tt.hand)
			if got.Label != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Label)
			}
			if got.Score != tt.hand.Score {
				t.Errorf("expected the hand score %v carried through, got %v", tt.hand.Score, got.Score)
			}
		})
	}
}

func TestClassifyNone(t *testing.T) {
	t.Run("nil hand", func(t *testing.T) {
		got := Classify(nil)
		if got.Label != LabelNone || got.Score != 0 {
			t.Errorf("expected a zero None gesture, got %+v", got)
		}
	})

	t.Run("index pointing sideways", func(t *testing.T) {
		// An extended index that is not aimed upward is not Pointing_Up.
		hand := PointingUpLandmarks()
		hand.Points[IndexPIP] = Point3D{X: 0.60, Y: 0.66, Z: 0.0}
		hand.Points[IndexDIP] = Point3D{X: 0.66, Y: 0.65, Z: 0.0}
		hand.Points[IndexTip] = Point3D{X: 0.72, Y: 0.64, Z: 0.0}

		if got := Classify(&hand); got.Label != LabelNone {
			t.Errorf("expected None, got %s", got.Label)
		}
	})

	t.Run("three fingers extended", func(t *testing.T) {
		// Index, middle and ring up with the pinky curled matches no pose.
		hand := OpenPalmLandmarks()
		hand.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.67, Z: -0.04}
		hand.Points[PinkyDIP] = Point3D{X: 0.39, Y: 0.70, Z: -0.03}
		hand.Points[PinkyTip] = Point3D{X: 0.38, Y: 0.73, Z: -0.02}

		if got := Classify(&hand); got.Label != LabelNone {
			t.Errorf("expected None, got %s", got.Label)
		}
	})

	t.Run("fist with sideways thumb", func(t *testing.T) {
		// A thumb stuck out to the side is neither Thumb_Up, Thumb_Down
		// nor a closed fist.
		hand := ThumbsUpLandmarks()
		hand.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.72, Z: 0.0}
		hand.Points[ThumbIP] = Point3D{X: 0.64, Y: 0.72, Z: 0.0}
		hand.Points[ThumbTip] = Point3D{X: 0.70, Y: 0.72, Z: 0.0}

		if got := Classify(&hand); got.Label != LabelNone {
			t.Errorf("expected None, got %s", got.Label)
		}
	})
}
