package metrics

import (
	"sync"
	"time"
)

// Recorder captures lightweight in-memory counters about scheduling
// operations, mirroring them to OTel instruments when telemetry is enabled.
type Recorder struct {
	mu    sync.Mutex
	stats opStats
	otel  *otelInstruments
}

type opStats struct {
	assignments    int
	displacements  int
	clears         int
	undos          int
	waitlistJoins  int
	waitlistServed int
	estimates      int
	conflicts      int
}

// NewRecorder returns a recorder with no telemetry backend.
func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{otel: otel}
}

// RecordAssignment counts a successful court assignment and whether it
// displaced an occupant.
func (r *Recorder) RecordAssignment(displaced bool) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.assignments++
	if displaced {
		r.stats.displacements++
	}
	r.mu.Unlock()
	r.otel.recordAssignment(displaced)
}

// RecordClear counts a court clear.
func (r *Recorder) RecordClear(reason string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.clears++
	r.mu.Unlock()
	r.otel.recordClear(reason)
}

// RecordTakeoverUndo counts a takeover undo attempt and whether it fell back
// to a clear.
func (r *Recorder) RecordTakeoverUndo(fellBack bool) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.undos++
	r.mu.Unlock()
	r.otel.recordTakeoverUndo(fellBack)
}

// RecordWaitlistJoin counts a waitlist join.
func (r *Recorder) RecordWaitlistJoin() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.waitlistJoins++
	r.mu.Unlock()
	r.otel.recordWaitlistJoin()
}

// RecordWaitlistServed counts an entry assigned off the waitlist.
func (r *Recorder) RecordWaitlistServed(passThrough bool) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.waitlistServed++
	r.mu.Unlock()
	r.otel.recordWaitlistServed(passThrough)
}

// RecordEstimate counts a wait-estimate computation (cache misses only).
func (r *Recorder) RecordEstimate() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.estimates++
	r.mu.Unlock()
	r.otel.recordEstimate()
}

// RecordVersionConflict counts an apply lost to a concurrent writer.
func (r *Recorder) RecordVersionConflict(op string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.conflicts++
	r.mu.Unlock()
	r.otel.recordVersionConflict(op)
}

// RecordHTTPRequest tracks request count and latency.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// Snapshot is a copy of the in-memory counters, used by tests and the
// health endpoint.
type Snapshot struct {
	Assignments    int
	Displacements  int
	Clears         int
	Undos          int
	WaitlistJoins  int
	WaitlistServed int
	Estimates      int
	Conflicts      int
}

// Snapshot returns the current counter values.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Assignments:    r.stats.assignments,
		Displacements:  r.stats.displacements,
		Clears:         r.stats.clears,
		Undos:          r.stats.undos,
		WaitlistJoins:  r.stats.waitlistJoins,
		WaitlistServed: r.stats.waitlistServed,
		Estimates:      r.stats.estimates,
		Conflicts:      r.stats.conflicts,
	}
}
