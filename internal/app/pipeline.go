package app

import (
	"log"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/recognizer"
	"github.com/ayusman/mudra/internal/store"
	"gocv.io/x/gocv"
)

// run is the producer loop turning camera frames into control packets.
//
// Pipeline logic:
// 1. Start idle (capture.IdleFPS, recognition skipped)
// 2. On motion, switch to active (capture.DefaultFPS, recognition on)
// 3. Recognize the hand and feed the tracker one sample per frame;
//    a no-hand frame feeds nil so the inactivity edge can fire
// 4. Publish emitted packets without blocking
// 5. After IdleTimeoutMs with no motion, no hand, and no live mode,
//    drop back to idle
//
// The stop channel is checked at the top of every iteration; the loop
// releases the camera, recognizer, and recording session on exit.
func (a *App) run(stopCh, done chan struct{}) {
	defer close(done)
	defer a.release()

	idle := true
	lastEvent := time.Now()
	frameInterval := time.Second / time.Duration(capture.IdleFPS)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			now := time.Now()

			// Live retuning lands between frames
			if t, ok := a.takePendingTuning(); ok {
				a.tracker.SetTuning(t)
			}

			enabled := a.IsEnabled()

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("error reading frame: %v", err)
				continue
			}

			motion, _ := a.motion.Detect(frame)
			if motion && enabled {
				lastEvent = now

				if idle {
					idle = false
					a.camera.SetFPS(capture.DefaultFPS)
					frameInterval = time.Second / time.Duration(capture.DefaultFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active capture")
				}
			}

			// Recognition runs only while enabled and awake; the tracker
			// still sees every frame either way.
			var sample *control.Sample
			if enabled && !idle {
				sample = a.recognize(frame, now)
			}
			frame.Close()

			if sample != nil {
				lastEvent = now
				a.handFrames.Add(1)
			}

			packet, emitted := a.tracker.Track(sample, now)
			mode := a.tracker.Mode()
			if mode != control.ModeNone {
				lastEvent = now
			}

			if emitted {
				a.packets.Add(1)
				if a.publisher != nil {
					a.publisher.Publish(packet)
				}
			}

			a.record(sample, packet, emitted, now)

			if !idle && now.Sub(lastEvent) > time.Duration(IdleTimeoutMs)*time.Millisecond {
				idle = true
				a.camera.SetFPS(capture.IdleFPS)
				frameInterval = time.Second / time.Duration(capture.IdleFPS)
				ticker.Reset(frameInterval)
				log.Println("Switched to idle capture")
			}

			a.frames.Add(1)
			a.pace.observe(now, time.Since(now))
			a.publishState(idle, mode)
		}
	}
}

// recognize runs the classifier on one frame and converts its top hand to a
// control sample. A nil return means no usable hand.
func (a *App) recognize(frame *gocv.Mat, now time.Time) *control.Sample {
	result, err := a.recognizer.Recognize(frame, now.UnixMilli())
	if err != nil {
		log.Printf("error recognizing frame: %v", err)
		return nil
	}

	hand, g, ok := result.Top()
	if !ok {
		return nil
	}

	index := hand.Points[recognizer.IndexTip]
	middle := hand.Points[recognizer.MiddleTip]

	return &control.Sample{
		IndexTip:   control.Point{X: index.X, Y: index.Y},
		MiddleTip:  control.Point{X: middle.X, Y: middle.Y},
		Label:      g.Label,
		Confidence: g.Score,
	}
}

// record buffers one frame row for the recording session. Only frames that
// carried a hand or emitted a packet are kept; pure idle ticks are not.
func (a *App) record(sample *control.Sample, p control.Packet, emitted bool, now time.Time) {
	if a.sessionID == "" {
		return
	}
	if sample == nil && !emitted {
		return
	}

	row := store.FrameRow{
		Seq:        a.seq,
		TsMs:       now.UnixMilli(),
		Label:      p.Gesture,
		Confidence: p.Confidence,
		Mode:       string(p.Mode),
		DPanX:      p.DPanX,
		DPanY:      p.DPanY,
		DTheta:     p.DTheta,
		DPhi:       p.DPhi,
		DRadius:    p.DRadius,
		Active:     p.Active,
		Reset:      p.Reset,
	}
	if sample != nil {
		row.RawX = sample.IndexTip.X
		row.RawY = sample.IndexTip.Y
		if f, ok := a.tracker.Filtered(); ok {
			row.FilteredX = f.X
			row.FilteredY = f.Y
		}
	}

	a.seq++
	a.buffer = append(a.buffer, row)

	if len(a.buffer) >= recordBatch {
		a.flushFrames()
	}
}

// flushFrames writes buffered rows to the store in one transaction.
func (a *App) flushFrames() {
	if len(a.buffer) == 0 {
		return
	}

	if err := a.config.Store.Sessions().AppendFrames(a.sessionID, a.buffer); err != nil {
		log.Printf("error flushing recorded frames: %v", err)
	}
	a.buffer = a.buffer[:0]
}

// release closes the recording session and the capture and recognition
// resources. It runs on the pipeline goroutine after the stop signal.
func (a *App) release() {
	if a.sessionID != "" {
		a.flushFrames()
		if err := a.config.Store.Sessions().End(a.sessionID); err != nil {
			log.Printf("error ending recording session: %v", err)
		}
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("error closing camera: %v", err)
	}

	a.motion.Close()

	if err := a.recognizer.Close(); err != nil {
		log.Printf("error closing recognizer: %v", err)
	}
}
