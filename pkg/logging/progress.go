package logging

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/eunmann/cci-extract/pkg/humanfmt"
)

// recentBatches is how many batches feed the ETA moving average.
const recentBatches = 8

// ProgressTracker counts processed items (sectors) reported in batches and
// estimates the time remaining. It is safe for concurrent use.
type ProgressTracker struct {
	total     int64
	completed atomic.Int64
	failed    atomic.Int64
	startTime time.Time
	log       zerolog.Logger
	phase     string

	mu     sync.Mutex
	recent []batchRate
}

type batchRate struct {
	items int64
	took  time.Duration
}

// NewProgressTracker creates a tracker for total items.
func NewProgressTracker(phase string, total int64, log zerolog.Logger) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: time.Now(),
		log:       log,
		phase:     phase,
		recent:    make([]batchRate, 0, recentBatches),
	}
}

// Record adds a batch of n completed items that took d.
func (pt *ProgressTracker) Record(n int64, d time.Duration) {
	if n <= 0 {
		return
	}
	pt.completed.Add(n)

	pt.mu.Lock()
	if len(pt.recent) == recentBatches {
		pt.recent = pt.recent[1:]
	}
	pt.recent = append(pt.recent, batchRate{items: n, took: d})
	pt.mu.Unlock()
}

// RecordFailed counts n items that were processed but failed.
func (pt *ProgressTracker) RecordFailed(n int64) {
	pt.failed.Add(n)
}

// Progress returns completed, failed and total counts.
func (pt *ProgressTracker) Progress() (completed, failed, total int64) {
	return pt.completed.Load(), pt.failed.Load(), pt.total
}

// ProgressPct returns the share of items processed, 0-100.
func (pt *ProgressTracker) ProgressPct() float64 {
	if pt.total == 0 {
		return 100.0
	}
	done := pt.completed.Load() + pt.failed.Load()
	return float64(done) * 100.0 / float64(pt.total)
}

// ETA estimates the remaining time from the recent batch rate, falling back
// to the overall rate.
func (pt *ProgressTracker) ETA() time.Duration {
	completed := pt.completed.Load()
	remaining := pt.Remaining()
	if completed == 0 || remaining <= 0 {
		return 0
	}

	pt.mu.Lock()
	var items int64
	var took time.Duration
	for _, b := range pt.recent {
		items += b.items
		took += b.took
	}
	pt.mu.Unlock()

	if items == 0 || took <= 0 {
		items, took = completed, time.Since(pt.startTime)
	}
	perItem := took / time.Duration(items)
	return perItem * time.Duration(remaining)
}

// Elapsed returns time since tracking started.
func (pt *ProgressTracker) Elapsed() time.Duration {
	return time.Since(pt.startTime)
}

// Remaining returns how many items are left.
func (pt *ProgressTracker) Remaining() int64 {
	return pt.total - pt.completed.Load() - pt.failed.Load()
}

// Report logs a progress event for the tracker's phase.
func (pt *ProgressTracker) Report(msg string) {
	NewCompletionEvent(pt.log, "progress", pt.phase, pt.Elapsed()).
		ProgressFromTracker(pt).
		Log(msg)
}

// CompletionEvent builds a structured completion log line.
type CompletionEvent struct {
	log     zerolog.Logger
	event   string
	phase   string
	elapsed time.Duration
	fields  map[string]interface{}
}

// NewCompletionEvent creates a completion event builder.
func NewCompletionEvent(log zerolog.Logger, event, phase string, elapsed time.Duration) *CompletionEvent {
	return &CompletionEvent{
		log:     log,
		event:   event,
		phase:   phase,
		elapsed: elapsed,
		fields:  make(map[string]interface{}),
	}
}

// Str adds a string field.
func (ce *CompletionEvent) Str(key, val string) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Int adds an int field.
func (ce *CompletionEvent) Int(key string, val int) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Int64 adds an int64 field.
func (ce *CompletionEvent) Int64(key string, val int64) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Uint64 adds a uint64 field.
func (ce *CompletionEvent) Uint64(key string, val uint64) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Bytes adds a byte count, with a human-readable companion in pretty mode.
func (ce *CompletionEvent) Bytes(key string, bytes int64) *CompletionEvent {
	ce.fields[key] = bytes
	if IsPrettyMode() {
		ce.fields[key+"_h"] = humanfmt.Bytes(bytes)
	}
	return ce
}

// Count adds a count, with a human-readable companion in pretty mode.
func (ce *CompletionEvent) Count(key string, n int64) *CompletionEvent {
	ce.fields[key] = n
	if IsPrettyMode() {
		ce.fields[key+"_h"] = humanfmt.Count(n)
	}
	return ce
}

// ProgressFromTracker adds completed, failed, total, percentage and ETA.
func (ce *CompletionEvent) ProgressFromTracker(pt *ProgressTracker) *CompletionEvent {
	completed, failed, total := pt.Progress()
	ce.fields["completed"] = completed
	ce.fields["failed"] = failed
	ce.fields["total"] = total
	if total > 0 {
		ce.fields["progress_pct"] = pt.ProgressPct()
	}
	if eta := pt.ETA(); eta > 0 {
		ce.fields["eta_ms"] = eta.Milliseconds()
		if IsPrettyMode() {
			ce.fields["eta_h"] = humanfmt.Duration(eta)
		}
	}
	return ce
}

// Throughput adds bytes per second over the event's elapsed time.
func (ce *CompletionEvent) Throughput(bytes int64) *CompletionEvent {
	if ce.elapsed > 0 {
		ce.fields["throughput_bps"] = float64(bytes) / ce.elapsed.Seconds()
		if IsPrettyMode() {
			ce.fields["throughput_h"] = humanfmt.Throughput(bytes, ce.elapsed)
		}
	}
	return ce
}

// Log emits the event at info level.
func (ce *CompletionEvent) Log(msg string) {
	ce.emit(ce.log.Info(), msg)
}

// LogDebug emits the event at debug level.
func (ce *CompletionEvent) LogDebug(msg string) {
	ce.emit(ce.log.Debug(), msg)
}

func (ce *CompletionEvent) emit(e *zerolog.Event, msg string) {
	e = e.Str("event", ce.event).
		Str("phase", ce.phase).
		Int64("duration_ms", ce.elapsed.Milliseconds())

	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(ce.elapsed))
	}

	for k, v := range ce.fields {
		e = e.Interface(k, v)
	}

	e.Msg(msg)
}

// PhaseComplete starts a phase_completed event.
func PhaseComplete(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "phase_completed", phase, elapsed)
}

// FileCreated starts a file_created event.
func FileCreated(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "file_created", phase, elapsed)
}

// SliceFetched starts a slice_fetched event for one downloaded slice.
func SliceFetched(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "slice_fetched", phase, elapsed)
}
