package core

import (
	"sync"
	"sync/atomic"
	"time"

	"pkt.systems/notetabs/internal/persist"
	"pkt.systems/notetabs/schema"
	"pkt.systems/pslog"
)

// debouncedWriter coalesces bursts of mutations into a single durable write
// once the store has been quiet for the configured delay.
//
// Scheduling state is guarded by owner (the service mutex). writeMu
// serializes physical writes so snapshots land in capture order. Lock order
// is writeMu then owner.
type debouncedWriter struct {
	owner   sync.Locker
	capture func() ([]schema.Tab, uint64)
	slot    persist.Slot
	key     string
	delay   time.Duration
	clock   Clock
	logger  pslog.Logger

	// guarded by owner
	timer      Timer
	gen        uint64
	superseded uint64

	writeMu     sync.Mutex
	stopped     bool // guarded by writeMu
	writes      atomic.Uint64
	failures    atomic.Uint64
	lastVersion atomic.Uint64
}

type writerConfig struct {
	Owner   sync.Locker
	Capture func() ([]schema.Tab, uint64)
	Slot    persist.Slot
	Key     string
	Delay   time.Duration
	Clock   Clock
	Logger  pslog.Logger
}

func newDebouncedWriter(cfg writerConfig) *debouncedWriter {
	return &debouncedWriter{
		owner:   cfg.Owner,
		capture: cfg.Capture,
		slot:    cfg.Slot,
		key:     cfg.Key,
		delay:   cfg.Delay,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
	}
}

// scheduleLocked replaces any pending flush with one that fires after the
// quiet delay. Callers hold owner.
func (w *debouncedWriter) scheduleLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.superseded++
	}
	w.gen++
	gen := w.gen
	w.timer = w.clock.AfterFunc(w.delay, func() { w.fire(gen) })
	w.logger.Trace("writer flush scheduled", "gen", gen, "delay_ms", w.delay.Milliseconds())
}

// cancelLocked drops any pending flush. Callers hold owner.
func (w *debouncedWriter) cancelLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.gen++
}

// fire runs a scheduled flush. A fire whose generation has been superseded
// or cancelled does nothing. Write failures are logged and dropped; the
// next mutation schedules another attempt.
func (w *debouncedWriter) fire(gen uint64) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if w.stopped {
		return
	}

	w.owner.Lock()
	if w.timer == nil || gen != w.gen {
		w.owner.Unlock()
		w.logger.Trace("writer flush skipped", "gen", gen)
		return
	}
	w.timer = nil
	tabs, version := w.capture()
	w.owner.Unlock()

	if err := w.write(tabs, version); err != nil {
		w.logger.Warn("writer flush failed", "err", err, "version", version)
	}
}

// flush cancels any pending flush and writes the current state now.
func (w *debouncedWriter) flush() (int, uint64, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if w.stopped {
		return 0, 0, schema.ErrServiceClosed
	}

	w.owner.Lock()
	w.cancelLocked()
	tabs, version := w.capture()
	w.owner.Unlock()

	return len(tabs), version, w.write(tabs, version)
}

// finish performs the last flush and stops the writer. A store with no
// pending flush and no change since the last durable write is not written,
// so state that failed to load is never replaced by an unedited default.
func (w *debouncedWriter) finish() (bool, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if w.stopped {
		return false, nil
	}
	w.stopped = true

	w.owner.Lock()
	pending := w.timer != nil
	w.cancelLocked()
	tabs, version := w.capture()
	w.owner.Unlock()

	if !pending && version == w.lastVersion.Load() {
		w.logger.Debug("writer final flush skipped", "version", version)
		return false, nil
	}
	return true, w.write(tabs, version)
}

func (w *debouncedWriter) write(tabs []schema.Tab, version uint64) error {
	if err := persist.WriteTabs(w.slot, w.key, tabs); err != nil {
		w.failures.Add(1)
		return err
	}
	w.writes.Add(1)
	w.lastVersion.Store(version)
	w.logger.Debug("writer flush complete", "tabs", len(tabs), "version", version)
	return nil
}

// statsLocked reports writer counters. Callers hold owner.
func (w *debouncedWriter) statsLocked() schema.WriterStats {
	return schema.WriterStats{
		Writes:      w.writes.Load(),
		Failures:    w.failures.Load(),
		Superseded:  w.superseded,
		Pending:     w.timer != nil,
		LastVersion: w.lastVersion.Load(),
	}
}
