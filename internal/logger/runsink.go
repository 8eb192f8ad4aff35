package logger

import (
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// RunSink is the per-batch log sink handed to pipeline stages and agents.
// It forwards to the package logger with a batch prefix and keeps a
// timeline of every entry for the black-box report.
type RunSink struct {
	batchID string

	mu       sync.Mutex
	stage    string
	timeline []domain.TimelineEntry
	now      func() time.Time
}

// Verify interface compliance.
var (
	_ domain.LogSink        = (*RunSink)(nil)
	_ domain.TimelineSource = (*RunSink)(nil)
)

// NewRunSink creates a sink for one batch.
func NewRunSink(batchID string) *RunSink {
	return &RunSink{
		batchID: batchID,
		stage:   "batch",
		now:     time.Now,
	}
}

// Section opens a stage. Later entries are attributed to it.
func (s *RunSink) Section(name string) {
	s.mu.Lock()
	s.stage = name
	s.mu.Unlock()
	Section(fmt.Sprintf("[%s] %s", s.short(), name))
	s.record("info", "stage started")
}

// Debugf logs a debug entry. Debug entries are not kept in the timeline.
func (s *RunSink) Debugf(format string, args ...any) {
	Debug("[%s] %s", s.short(), fmt.Sprintf(format, args...))
}

// Infof logs an informational entry.
func (s *RunSink) Infof(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Info("[%s] %s", s.short(), msg)
	s.record("info", msg)
}

// Warnf logs a warning entry.
func (s *RunSink) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Warn("[%s] %s", s.short(), msg)
	s.record("warn", msg)
}

// Errorf logs an error entry.
func (s *RunSink) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Error("[%s] %s", s.short(), msg)
	s.record("error", msg)
}

// Timeline returns a copy of the recorded entries, oldest first.
func (s *RunSink) Timeline() []domain.TimelineEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TimelineEntry, len(s.timeline))
	copy(out, s.timeline)
	return out
}

func (s *RunSink) record(level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline = append(s.timeline, domain.TimelineEntry{
		At:      s.now(),
		Level:   level,
		Stage:   s.stage,
		Message: msg,
	})
}

// short trims the batch id for log prefixes.
func (s *RunSink) short() string {
	if len(s.batchID) > 8 {
		return s.batchID[:8]
	}
	return s.batchID
}
