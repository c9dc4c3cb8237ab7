package app

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// paceWindow is how many recent frames the pace statistics cover.
const paceWindow = 120

// PipelineStats is a point-in-time snapshot of pipeline throughput.
type PipelineStats struct {
	Frames     uint64 `json:"frames"`
	HandFrames uint64 `json:"handFrames"`
	Packets    uint64 `json:"packets"`

	Idle bool   `json:"idle"`
	FPS  int    `json:"fps"`
	Mode string `json:"mode"`

	MeanIntervalMs float64 `json:"meanIntervalMs"`
	P50IntervalMs  float64 `json:"p50IntervalMs"`
	P95IntervalMs  float64 `json:"p95IntervalMs"`
	MeanProcessMs  float64 `json:"meanProcessMs"`
	P95ProcessMs   float64 `json:"p95ProcessMs"`
}

// pace keeps rings of recent inter-frame intervals and per-frame processing
// times, in milliseconds. The pipeline goroutine writes; Stats reads.
type pace struct {
	mu       sync.Mutex
	interval *ring
	process  *ring
	lastTick time.Time
}

func newPace() *pace {
	return &pace{
		interval: newRing(paceWindow),
		process:  newRing(paceWindow),
	}
}

// observe records one frame: its tick time and how long processing took.
func (p *pace) observe(tick time.Time, processing time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lastTick.IsZero() {
		p.interval.add(float64(tick.Sub(p.lastTick)) / float64(time.Millisecond))
	}
	p.lastTick = tick
	p.process.add(float64(processing) / float64(time.Millisecond))
}

// intervals returns mean, p50, and p95 of recent inter-frame intervals.
func (p *pace) intervals() (mean, p50, p95 float64) {
	p.mu.Lock()
	samples := p.interval.snapshot()
	p.mu.Unlock()
	return summarize(samples)
}

// processing returns mean, p50, and p95 of recent processing times.
func (p *pace) processing() (mean, p50, p95 float64) {
	p.mu.Lock()
	samples := p.process.snapshot()
	p.mu.Unlock()
	return summarize(samples)
}

// summarize reduces a sample set to mean, p50, and p95. Quantiles follow
// the empirical distribution, so they need the samples sorted.
func summarize(samples []float64) (mean, p50, p95 float64) {
	if len(samples) == 0 {
		return 0, 0, 0
	}

	sort.Float64s(samples)
	mean = stat.Mean(samples, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, samples, nil)
	p95 = stat.Quantile(0.95, stat.Empirical, samples, nil)
	return mean, p50, p95
}

// ring is a fixed-size overwrite-oldest buffer of float64 samples.
type ring struct {
	values []float64
	next   int
	full   bool
}

func newRing(size int) *ring {
	return &ring{values: make([]float64, size)}
}

func (r *ring) add(v float64) {
	r.values[r.next] = v
	r.next++
	if r.next == len(r.values) {
		r.next = 0
		r.full = true
	}
}

// snapshot copies out the live samples. Insertion order is not preserved,
// which does not matter for rank statistics.
func (r *ring) snapshot() []float64 {
	n := r.next
	if r.full {
		n = len(r.values)
	}
	out := make([]float64, n)
	copy(out, r.values[:n])
	return out
}
