package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler tracks presented and dropped frames together with heap statistics.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	presented      uint64
	dropped        uint64
	windowFrames   int
	windowDropped  int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32

	now func() time.Time
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - interval: how often statistics are logged; zero means one second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		now:            time.Now,
	}
}

// FramePresented records a frame that reached the display.
//
// Returns:
//   - bool: true if stats were logged by this call
func (p *Profiler) FramePresented() bool {
	p.presented++
	p.windowFrames++
	return p.tick()
}

// FrameDropped records a frame that was skipped because acquiring or submitting it failed.
//
// Returns:
//   - bool: true if stats were logged by this call
func (p *Profiler) FrameDropped() bool {
	p.dropped++
	p.windowDropped++
	return p.tick()
}

// Presented returns the number of frames presented since creation.
func (p *Profiler) Presented() uint64 {
	return p.presented
}

// Dropped returns the number of frames dropped since creation.
func (p *Profiler) Dropped() uint64 {
	return p.dropped
}

// tick logs FPS, frame totals, heap size and GC activity once the interval has elapsed.
func (p *Profiler) tick() bool {
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.windowFrames) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	gcCount := p.memStats.NumGC

	log.Printf("[Profiler] FPS: %.2f | Presented: %d | Dropped: %d (+%d) | Heap: %.2f MB | GC: +%d",
		fps, p.presented, p.dropped, p.windowDropped, allocMB, gcCount-p.lastGCCount)

	p.windowFrames = 0
	p.windowDropped = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	return true
}
