// Package app runs the frame pipeline for the Mudra camera control system:
// one producer goroutine reading camera frames, recognizing the hand, and
// driving the control tracker.
package app

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/recognizer"
	"github.com/ayusman/mudra/internal/store"
	"github.com/google/uuid"
)

// Pipeline timing constants.
const (
	// IdleTimeoutMs is how long the pipeline waits with no motion, no hand,
	// and no live mode before dropping the camera back to capture.IdleFPS.
	IdleTimeoutMs = 2000

	// recordBatch is how many frame rows are buffered before a flush to
	// the store.
	recordBatch = 30
)

// Publisher receives packets emitted by the pipeline. Publish must not
// block; it reports whether the packet was accepted.
type Publisher interface {
	Publish(p control.Packet) bool
}

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	Publisher    Publisher
	CameraID     int
	MotionThresh float64

	// Tuning seeds the tracker. An invalid or zero tuning falls back to
	// control.DefaultTuning.
	Tuning control.Tuning

	// Record captures every processed frame into a session in the store.
	Record bool

	// Camera and Recognizer override the defaults, mainly for tests.
	Camera     capture.Camera
	Recognizer recognizer.Recognizer
}

// App orchestrates capture, recognition, and the control tracker.
type App struct {
	config Config

	camera     capture.Camera
	motion     *capture.MotionDetector
	recognizer recognizer.Recognizer
	tracker    *control.Tracker
	publisher  Publisher

	enabled       bool
	pendingTuning *control.Tuning
	idle          bool
	lastMode      control.Mode
	mu            sync.RWMutex

	stopCh chan struct{}
	done   chan struct{}

	frames     atomic.Uint64
	handFrames atomic.Uint64
	packets    atomic.Uint64
	pace       *pace

	// Recording state, confined to the pipeline goroutine after Start.
	sessionID string
	buffer    []store.FrameRow
	seq       int
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	tuning := config.Tuning
	if err := tuning.Validate(); err != nil {
		tuning = control.DefaultTuning()
	}

	a := &App{
		config:    config,
		camera:    config.Camera,
		motion:    capture.NewMotionDetector(motionThreshold),
		tracker:   control.NewTracker(tuning),
		publisher: config.Publisher,
		enabled:   true,
		idle:      true,
		lastMode:  control.ModeNone,
		pace:      newPace(),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(config.CameraID)
	}

	// Try the MediaPipe bridge first, fall back to the mock recognizer
	if config.Recognizer != nil {
		a.recognizer = config.Recognizer
	} else if mp, err := recognizer.NewMediaPipeRecognizer(recognizer.DefaultConfig()); err == nil {
		a.recognizer = mp
		log.Println("Using MediaPipe hand recognition")
	} else {
		log.Printf("MediaPipe not available (%v), using mock recognizer", err)
		a.recognizer = recognizer.NewMockRecognizer()
	}

	// Restore the persisted pause state
	if config.Store != nil {
		if v, err := config.Store.Settings().Get("enabled"); err == nil {
			a.enabled = v != "false"
		}
	}

	return a
}

// SetEnabled pauses or resumes control output. The pipeline keeps running
// either way; while paused it feeds the tracker no-hand frames so any live
// mode winds down through the normal inactivity edge.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.config.Store != nil {
		v := "true"
		if !enabled {
			v = "false"
		}
		if err := a.config.Store.Settings().Set("enabled", v); err != nil {
			log.Printf("failed to persist enabled flag: %v", err)
		}
	}
}

// IsEnabled returns whether control output is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// ApplyTuning validates t and hands it to the pipeline goroutine, which
// swaps it into the tracker between frames.
func (a *App) ApplyTuning(t control.Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	a.pendingTuning = &t
	a.mu.Unlock()
	return nil
}

// takePendingTuning returns and clears any tuning handed over since the
// last frame.
func (a *App) takePendingTuning() (control.Tuning, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pendingTuning == nil {
		return control.Tuning{}, false
	}
	t := *a.pendingTuning
	a.pendingTuning = nil
	return t, true
}

// Start opens the camera and begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(capture.IdleFPS)

	if a.config.Record && a.config.Store != nil {
		a.startRecording()
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(a.stopCh, a.done)

	log.Println("Control pipeline started")
	return nil
}

// startRecording opens a session for this run, tagged with the active
// profile when there is one. Callers hold a.mu.
func (a *App) startRecording() {
	sess := &store.Session{ID: uuid.New().String()}
	if p, err := a.config.Store.Profiles().GetActive(); err == nil {
		sess.ProfileID = p.ID
	}

	if err := a.config.Store.Sessions().Create(sess); err != nil {
		log.Printf("failed to start recording session: %v", err)
		return
	}

	a.sessionID = sess.ID
	a.buffer = make([]store.FrameRow, 0, recordBatch)
	log.Printf("Recording session %s", sess.ID)
}

// Stop halts the pipeline and waits for it to release its resources.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	stopCh, done := a.stopCh, a.done
	a.stopCh = nil
	a.mu.Unlock()

	close(stopCh)
	<-done

	log.Println("Control pipeline stopped")
}

// Mode returns the most recently confirmed control mode.
func (a *App) Mode() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return string(a.lastMode)
}

// Stats returns a snapshot of pipeline throughput and pacing.
func (a *App) Stats() PipelineStats {
	a.mu.RLock()
	idle := a.idle
	mode := a.lastMode
	a.mu.RUnlock()

	fps := capture.DefaultFPS
	if idle {
		fps = capture.IdleFPS
	}

	s := PipelineStats{
		Frames:     a.frames.Load(),
		HandFrames: a.handFrames.Load(),
		Packets:    a.packets.Load(),
		Idle:       idle,
		FPS:        fps,
		Mode:       string(mode),
	}
	s.MeanIntervalMs, s.P50IntervalMs, s.P95IntervalMs = a.pace.intervals()
	s.MeanProcessMs, _, s.P95ProcessMs = a.pace.processing()
	return s
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// publishState records the loop state readable by Stats and Mode.
func (a *App) publishState(idle bool, mode control.Mode) {
	a.mu.Lock()
	a.idle = idle
	a.lastMode = mode
	a.mu.Unlock()
}
