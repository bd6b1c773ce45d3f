package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Debug mode configuration
var (
	DebugEnabled bool
	DebugLog     *log.Logger
	debugLogFile *os.File
)

var debugLogFileName = filepath.Join(os.TempDir(), "blockterm-debug.log")

// InitDebug initializes debug logging if BT_DEBUG=1 is set.
// Called by Initialize.
func InitDebug() {
	if os.Getenv("BT_DEBUG") != "1" {
		// No-op logger to prevent nil pointer panics
		DebugLog = log.New(io.Discard, "", 0)
		return
	}

	DebugEnabled = true

	f, err := os.OpenFile(debugLogFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		if ErrorLog != nil {
			ErrorLog.Printf("could not open debug log file: %s", err)
		}
		DebugLog = log.New(io.Discard, "", 0)
		return
	}

	DebugLog = log.New(f, "DEBUG:", log.Ldate|log.Ltime|log.Lmicroseconds)
	debugLogFile = f

	DebugLog.Println("Debug mode enabled")
	DebugLog.Printf("Debug log: %s", debugLogFileName)
}

// CloseDebug closes the debug log file.
func CloseDebug() {
	if debugLogFile != nil {
		_ = debugLogFile.Close()
		fmt.Println("wrote debug logs to " + debugLogFileName)
	}
}

// Debug logs a debug message if debug mode is enabled.
func Debug(format string, v ...interface{}) {
	if DebugEnabled && DebugLog != nil {
		DebugLog.Printf(format, v...)
	}
}

// FrameProfiler tracks per-frame render timings and row-cache effectiveness.
type FrameProfiler struct {
	mu           sync.RWMutex
	frameCount   int64
	totalTime    time.Duration
	lastFrameAt  time.Time
	frameTimings []time.Duration // Rolling window of frame times
	cacheHits    int64
	cacheMisses  int64
}

// Global profiler instance
var profiler = &FrameProfiler{
	frameTimings: make([]time.Duration, 0, 100),
}

// GetProfiler returns the global frame profiler.
func GetProfiler() *FrameProfiler {
	return profiler
}

// RecordFrame records a complete frame render.
func (p *FrameProfiler) RecordFrame(elapsed time.Duration) {
	if !DebugEnabled {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	p.totalTime += elapsed
	p.lastFrameAt = time.Now()

	// Keep rolling window of last 100 frame times
	if len(p.frameTimings) >= 100 {
		p.frameTimings = p.frameTimings[1:]
	}
	p.frameTimings = append(p.frameTimings, elapsed)

	// Log slow frames (> 16ms = 60fps threshold)
	if elapsed > 16*time.Millisecond && DebugLog != nil {
		DebugLog.Printf("SLOW FRAME: %v", elapsed)
	}
}

// RecordRowLookup records one row-cache lookup outcome.
func (p *FrameProfiler) RecordRowLookup(hit bool) {
	if !DebugEnabled {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if hit {
		p.cacheHits++
	} else {
		p.cacheMisses++
	}
}

// GetStats returns a summary of render statistics.
func (p *FrameProfiler) GetStats() string {
	if !DebugEnabled {
		return ""
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	out := "\n=== Frame Profile ===\n"
	out += fmt.Sprintf("Total frames: %d\n", p.frameCount)

	if p.frameCount > 0 {
		avgFrame := p.totalTime / time.Duration(p.frameCount)
		out += fmt.Sprintf("Avg frame time: %v\n", avgFrame)
	}

	if len(p.frameTimings) > 0 {
		var sum time.Duration
		min := p.frameTimings[0]
		max := p.frameTimings[0]
		for _, t := range p.frameTimings {
			sum += t
			if t < min {
				min = t
			}
			if t > max {
				max = t
			}
		}
		avg := sum / time.Duration(len(p.frameTimings))
		out += fmt.Sprintf("Recent %d frames: avg=%v min=%v max=%v\n",
			len(p.frameTimings), avg, min, max)
	}

	total := p.cacheHits + p.cacheMisses
	if total > 0 {
		out += fmt.Sprintf("Row cache: %d hits / %d misses (%.1f%% hit rate)\n",
			p.cacheHits, p.cacheMisses, 100*float64(p.cacheHits)/float64(total))
	}

	return out
}

// LogStats logs the current render statistics.
func (p *FrameProfiler) LogStats() {
	if DebugEnabled && DebugLog != nil {
		DebugLog.Print(p.GetStats())
	}
}

// Reset clears all profiling data.
func (p *FrameProfiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount = 0
	p.totalTime = 0
	p.frameTimings = make([]time.Duration, 0, 100)
	p.cacheHits = 0
	p.cacheMisses = 0
}

// ParserTrace logs marker-scanner events.
func ParserTrace(format string, v ...interface{}) {
	if DebugEnabled && DebugLog != nil {
		DebugLog.Printf("[PARSER] "+format, v...)
	}
}

// PtyTrace logs pty reader/writer events.
func PtyTrace(format string, v ...interface{}) {
	if DebugEnabled && DebugLog != nil {
		DebugLog.Printf("[PTY] "+format, v...)
	}
}

// BlockTrace logs block lifecycle transitions.
func BlockTrace(format string, v ...interface{}) {
	if DebugEnabled && DebugLog != nil {
		DebugLog.Printf("[BLOCK] "+format, v...)
	}
}
