package recognizer

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// serviceIdleTimeout is how long the Python service may sit unused before
// it is shut down. The next Recognize restarts it.
const serviceIdleTimeout = 30 * time.Second

// MediaPipeRecognizer implements Recognizer by bridging to a Python
// MediaPipe service over a pipe. Each frame is shipped as a length-prefixed
// JPEG plus a millisecond timestamp; the service answers with one JSON line
// of hands and gesture classifications. The process is started lazily on
// first use.
type MediaPipeRecognizer struct {
	config Config

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	started   bool
	lastTs    int64
	idleTimer *time.Timer
}

// NewMediaPipeRecognizer creates a recognizer backed by the MediaPipe
// service. It fails fast when the service script cannot be found.
func NewMediaPipeRecognizer(config Config) (*MediaPipeRecognizer, error) {
	if findServiceScript() == "" {
		return nil, fmt.Errorf("mediapipe_service.py not found")
	}
	return &MediaPipeRecognizer{config: config}, nil
}

// Recognize ships one frame to the service and parses its answer. The
// timestamp is bumped if it does not advance past the previous frame's,
// since the video-mode model rejects non-monotonic input.
func (d *MediaPipeRecognizer) Recognize(frame *gocv.Mat, timestampMs int64) (*Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	data := buf.GetBytes()

	// Header: 4-byte frame length, 8-byte timestamp, both big-endian.
	header := make([]byte, 12)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(data)))
	binary.BigEndian.PutUint64(header[4:12], uint64(d.nextTimestamp(timestampMs)))

	if _, err := d.stdin.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result, err := parseResult(line)
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()
	return result, nil
}

// Close shuts down the Python service.
func (d *MediaPipeRecognizer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// nextTimestamp enforces a strictly increasing timestamp stream. Callers
// hold d.mu.
func (d *MediaPipeRecognizer) nextTimestamp(ts int64) int64 {
	if ts <= d.lastTs {
		ts = d.lastTs + 1
	}
	d.lastTs = ts
	return ts
}

func (d *MediaPipeRecognizer) ensureStarted() error {
	if d.started {
		return nil
	}

	scriptPath := findServiceScript()
	if scriptPath == "" {
		return fmt.Errorf("mediapipe_service.py not found")
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	args := []string{
		scriptPath,
		fmt.Sprintf("--max-hands=%d", d.config.MaxHands),
		fmt.Sprintf("--min-confidence=%g", d.config.MinConfidence),
		fmt.Sprintf("--min-tracking-confidence=%g", d.config.MinTrackingConf),
	}
	if d.config.ModelPath != "" {
		args = append(args, "--model="+d.config.ModelPath)
	}
	d.cmd = exec.Command(pythonPath, args...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

func (d *MediaPipeRecognizer) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeRecognizer) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(serviceIdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

// findServiceScript locates mediapipe_service.py, preferring the working
// directory, then the executable's directory, then the user install.
func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(execDir, "scripts/mediapipe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".mudra/scripts/mediapipe_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if absPath, err := filepath.Abs(path); err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment
// near the binary or the user install.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if absPath, err := filepath.Abs(path); err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// Wire types for the service's JSON lines.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type jsonGesture struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (h jsonHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	for i := 0; i < NumLandmarks && i < len(h.Points); i++ {
		lm.Points[i] = Point3D{X: h.Points[i].X, Y: h.Points[i].Y, Z: h.Points[i].Z}
	}
	return lm
}

// parseResult decodes one response line. Hands missing a gesture entry are
// classified geometrically, so older service builds that emit landmarks
// only still drive the full pipeline.
func parseResult(line []byte) (*Result, error) {
	var resp struct {
		Hands    []jsonHand    `json:"hands"`
		Gestures []jsonGesture `json:"gestures"`
		Error    string        `json:"error"`
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", resp.Error)
	}

	result := &Result{
		Hands:    make([]HandLandmarks, len(resp.Hands)),
		Gestures: make([]Gesture, len(resp.Hands)),
	}
	for i, h := range resp.Hands {
		result.Hands[i] = h.toHandLandmarks()
		if i < len(resp.Gestures) && resp.Gestures[i].Label != "" {
			result.Gestures[i] = Gesture(resp.Gestures[i])
		} else {
			result.Gestures[i] = Classify(&result.Hands[i])
		}
	}
	return result, nil
}
