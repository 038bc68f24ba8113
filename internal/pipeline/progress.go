package pipeline

import (
	"fmt"
	"io"
	"sync"
)

// Phase names a pass of the pipeline.
type Phase string

const (
	PhasePatch  Phase = "patch"
	PhaseExport Phase = "export"
)

// Reporter receives progress updates. Advance may be called from several
// goroutines when the run uses more than one worker.
type Reporter interface {
	Start(phase Phase, total int)
	Advance(phase Phase)
	Finish(phase Phase)
	Abort(phase Phase)
}

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) Start(Phase, int) {}
func (NopReporter) Advance(Phase)    {}
func (NopReporter) Finish(Phase)     {}
func (NopReporter) Abort(Phase)      {}

// LineReporter writes "[patch] 3/10" style lines to w, one per step.
type LineReporter struct {
	w     io.Writer
	mu    sync.Mutex
	total int
	done  int
}

// NewLineReporter returns a LineReporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

func (l *LineReporter) Start(phase Phase, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total = total
	l.done = 0
	fmt.Fprintf(l.w, "[%s] %s %d item(s)\n", phase, phaseVerb(phase), total)
}

func (l *LineReporter) Advance(phase Phase) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.done++
	fmt.Fprintf(l.w, "[%s] %d/%d\n", phase, l.done, l.total)
}

func (l *LineReporter) Finish(phase Phase) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%s] done\n", phase)
}

func (l *LineReporter) Abort(phase Phase) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%s] aborted at %d/%d\n", phase, l.done, l.total)
}

func phaseVerb(p Phase) string {
	switch p {
	case PhasePatch:
		return "Patching node links in"
	case PhaseExport:
		return "Exporting"
	default:
		return "Processing"
	}
}
