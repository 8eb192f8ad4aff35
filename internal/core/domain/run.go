package domain

import "time"

// LogSink receives structured log output for one batch run.
// Section opens a named stage; subsequent entries are attributed to it.
type LogSink interface {
	Section(name string)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// TimelineSource is implemented by sinks that keep a black-box timeline.
type TimelineSource interface {
	Timeline() []TimelineEntry
}

// RunContext is passed explicitly into every stage and agent of a batch.
// There is no ambient run state anywhere else.
type RunContext struct {
	BatchID   string
	Log       LogSink
	StartedAt time.Time

	// Progress, when set, receives stage and agent transitions.
	Progress func(ProgressEvent)
}

// ProgressEvent is one stage or agent transition of a running batch.
type ProgressEvent struct {
	Stage   string
	Agent   AgentID
	Status  AgentStatus
	Done    bool
	Message string
}

// Emit forwards ev to the progress callback, if any.
func (rc *RunContext) Emit(ev ProgressEvent) {
	if rc == nil || rc.Progress == nil {
		return
	}
	rc.Progress(ev)
}

// NewRunContext creates a run context. A nil sink discards output.
func NewRunContext(batchID string, log LogSink) *RunContext {
	if log == nil {
		log = discardSink{}
	}
	return &RunContext{
		BatchID:   batchID,
		Log:       log,
		StartedAt: time.Now(),
	}
}

// Timeline returns the sink's recorded timeline, if it keeps one.
func (rc *RunContext) Timeline() []TimelineEntry {
	if rc == nil {
		return nil
	}
	if ts, ok := rc.Log.(TimelineSource); ok {
		return ts.Timeline()
	}
	return nil
}

type discardSink struct{}

func (discardSink) Section(string)        {}
func (discardSink) Debugf(string, ...any) {}
func (discardSink) Infof(string, ...any)  {}
func (discardSink) Warnf(string, ...any)  {}
func (discardSink) Errorf(string, ...any) {}
