package app

import (
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/recognizer"
	"gocv.io/x/gocv"
)

// movingFrames returns frames that differ completely, so every read after
// the first registers motion.
func movingFrames(t *testing.T) []*gocv.Mat {
	t.Helper()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	t.Cleanup(func() {
		black.Close()
		white.Close()
	})
	return []*gocv.Mat{&black, &white}
}

// staticFrames returns identical frames, so no read registers motion.
func staticFrames(t *testing.T) []*gocv.Mat {
	t.Helper()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	return []*gocv.Mat{&frame}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestApp_Pipeline_EmitsPackets(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	camera := capture.NewMockCamera(movingFrames(t), true)
	rec := recognizer.NewMockRecognizer()
	rec.SetResult(recognizer.ResultFor(recognizer.PointingUpLandmarks()))
	publisher := &fakePublisher{}

	a := New(Config{
		Camera:     camera,
		Recognizer: rec,
		Publisher:  publisher,
		Tuning:     control.DefaultTuning(),
	})

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, 3*time.Second, func() bool { return publisher.count() >= 3 },
		"expected packets to be published")

	last, _ := publisher.last()
	if !last.Active {
		t.Error("expected an active packet")
	}
	if last.Gesture != recognizer.LabelPointingUp {
		t.Errorf("gesture = %q, want %q", last.Gesture, recognizer.LabelPointingUp)
	}
	if last.Mode != control.ModePan {
		t.Errorf("mode = %q, want %q", last.Mode, control.ModePan)
	}

	// Motion switched the camera to the active rate
	if camera.FPS() != capture.DefaultFPS {
		t.Errorf("FPS = %d, want %d", camera.FPS(), capture.DefaultFPS)
	}

	stats := a.Stats()
	if stats.Frames == 0 {
		t.Error("expected frames to be counted")
	}
	if stats.HandFrames == 0 {
		t.Error("expected hand frames to be counted")
	}
	if stats.Packets == 0 {
		t.Error("expected packets to be counted")
	}
	if stats.Mode != string(control.ModePan) {
		t.Errorf("stats mode = %q, want %q", stats.Mode, control.ModePan)
	}
	if stats.MeanIntervalMs <= 0 {
		t.Error("expected a positive mean frame interval")
	}

	a.Stop()

	// The pipeline releases its resources on the way out
	if camera.IsOpen() {
		t.Error("expected the camera to be closed")
	}
	if !rec.Closed() {
		t.Error("expected the recognizer to be closed")
	}
}

func TestApp_Pipeline_StaysIdleWithoutMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	camera := capture.NewMockCamera(staticFrames(t), true)
	rec := recognizer.NewMockRecognizer()
	rec.SetResult(recognizer.ResultFor(recognizer.PointingUpLandmarks()))
	publisher := &fakePublisher{}

	a := New(Config{
		Camera:     camera,
		Recognizer: rec,
		Publisher:  publisher,
	})

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	// Several idle ticks worth of time
	time.Sleep(700 * time.Millisecond)

	if got := rec.Calls(); got != 0 {
		t.Errorf("Recognize calls = %d, want 0 while idle", got)
	}
	if camera.FPS() != capture.IdleFPS {
		t.Errorf("FPS = %d, want %d", camera.FPS(), capture.IdleFPS)
	}
	if publisher.count() != 0 {
		t.Errorf("packets = %d, want 0", publisher.count())
	}
}

func TestApp_Pipeline_DisabledSkipsRecognition(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	camera := capture.NewMockCamera(movingFrames(t), true)
	rec := recognizer.NewMockRecognizer()
	rec.SetResult(recognizer.ResultFor(recognizer.PointingUpLandmarks()))
	publisher := &fakePublisher{}

	a := New(Config{
		Camera:     camera,
		Recognizer: rec,
		Publisher:  publisher,
	})
	a.SetEnabled(false)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	time.Sleep(700 * time.Millisecond)

	if got := rec.Calls(); got != 0 {
		t.Errorf("Recognize calls = %d, want 0 while disabled", got)
	}
	// Motion alone must not wake a disabled pipeline
	if camera.FPS() != capture.IdleFPS {
		t.Errorf("FPS = %d, want %d", camera.FPS(), capture.IdleFPS)
	}
	if publisher.count() != 0 {
		t.Errorf("packets = %d, want 0", publisher.count())
	}
}

func TestApp_Pipeline_InactiveEdgeOnHandLoss(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	camera := capture.NewMockCamera(movingFrames(t), true)
	rec := recognizer.NewMockRecognizer()

	// Five hand frames, then the hand disappears for good
	hand := recognizer.ResultFor(recognizer.ClosedFistLandmarks())
	rec.SetScript([]*recognizer.Result{hand, hand, hand, hand, hand, {}})

	publisher := &fakePublisher{}

	a := New(Config{
		Camera:     camera,
		Recognizer: rec,
		Publisher:  publisher,
	})

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	waitFor(t, 5*time.Second, publisher.hasInactive,
		"expected one inactive packet after the hand was lost")

	// The edge fires once; afterwards the session stays silent
	count := publisher.count()
	time.Sleep(500 * time.Millisecond)
	if publisher.count() != count {
		t.Errorf("packets kept flowing after the inactive edge: %d -> %d",
			count, publisher.count())
	}

	last, _ := publisher.last()
	if last.Active {
		t.Error("expected the final packet to be inactive")
	}
	if last.Mode != control.ModeNone {
		t.Errorf("mode = %q, want %q", last.Mode, control.ModeNone)
	}
}

func TestApp_Pipeline_RecordsSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := newTestStore(t)
	camera := capture.NewMockCamera(movingFrames(t), true)
	rec := recognizer.NewMockRecognizer()
	rec.SetResult(recognizer.ResultFor(recognizer.PointingUpLandmarks()))
	publisher := &fakePublisher{}

	a := New(Config{
		Store:      s,
		Camera:     camera,
		Recognizer: rec,
		Publisher:  publisher,
		Record:     true,
	})

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, 3*time.Second, func() bool { return publisher.count() >= 5 },
		"expected packets to be published")

	a.Stop()

	sessions, err := s.Sessions().List()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}

	sess := sessions[0]
	if sess.EndedAt == nil {
		t.Error("expected the session to be ended on stop")
	}
	if sess.Frames == 0 {
		t.Error("expected recorded frames")
	}
	// The default profile is active, so the session is tagged with it
	if sess.ProfileID == "" {
		t.Error("expected the session to reference the active profile")
	}

	frames, err := s.Sessions().Frames(sess.ID)
	if err != nil {
		t.Fatalf("failed to load frames: %v", err)
	}
	if len(frames) != sess.Frames {
		t.Errorf("frame rows = %d, want %d", len(frames), sess.Frames)
	}

	first := frames[0]
	if first.Seq != 0 {
		t.Errorf("first seq = %d, want 0", first.Seq)
	}
	if first.Label != recognizer.LabelPointingUp {
		t.Errorf("label = %q, want %q", first.Label, recognizer.LabelPointingUp)
	}
	if first.RawX != 0.57 {
		t.Errorf("raw x = %f, want the preset index tip 0.57", first.RawX)
	}
	// A motionless fingertip passes through the filter unchanged
	if first.FilteredX != first.RawX {
		t.Errorf("filtered x = %f, want %f", first.FilteredX, first.RawX)
	}

	lastRow := frames[len(frames)-1]
	if lastRow.Mode != string(control.ModePan) {
		t.Errorf("last mode = %q, want %q", lastRow.Mode, control.ModePan)
	}
}
