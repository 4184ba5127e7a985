package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/effective-security/toolbelt/pkg/llmutils"
	"github.com/effective-security/toolbelt/tools"
)

// TimeNowFn returns the current time, used for run durations and journal timestamps.
var TimeNowFn = time.Now

type runKey struct{}

// WithRunID returns the context for the run of tool calls,
// the Scratchpad records only the calls made with such context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runKey{}, runID)
}

// RunID returns the run ID from the context, or empty string.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runKey{}).(string)
	return id
}

type RunStats struct {
	RunID string

	Duration            time.Duration
	ToolsCalls          uint32
	ToolsCallsSucceeded uint32
	ToolsCallsFailed    uint32
	ToolNotFound        uint32
	// FailedByKind is the number of failed calls by error kind
	FailedByKind map[tools.Kind]uint32
}

// Scratchpad is a callback handler that records the tool calls of a run.
type Scratchpad struct {
	runs map[string]*run
	mode Mode
	lock sync.Mutex
}

func NewScratchpad(mode Mode) *Scratchpad {
	return &Scratchpad{
		runs: make(map[string]*run),
		mode: mode,
	}
}

func (l *Scratchpad) StartRun(ctx context.Context) {
	runID := RunID(ctx)
	if runID == "" {
		return
	}

	r := &run{
		stats: RunStats{
			RunID:        runID,
			FailedByKind: map[tools.Kind]uint32{},
		},
		started: TimeNowFn(),
	}

	l.lock.Lock()
	l.runs[runID] = r
	l.lock.Unlock()

	r.print("*** Run Started ***")
}

// EndRun returns the stats and the journal of the run.
func (l *Scratchpad) EndRun(ctx context.Context) (*RunStats, []byte) {
	r := l.getRun(ctx)
	if r == nil {
		return nil, nil
	}

	r.lock.Lock()
	stats := r.stats
	stats.FailedByKind = make(map[tools.Kind]uint32, len(r.stats.FailedByKind))
	for k, v := range r.stats.FailedByKind {
		stats.FailedByKind[k] = v
	}
	r.lock.Unlock()
	stats.Duration = TimeNowFn().Sub(r.started)

	r.print(fmt.Sprintf("Tool calls: %d, Succeeded: %d, Failed: %d, Not Found: %d",
		stats.ToolsCalls,
		stats.ToolsCallsSucceeded,
		stats.ToolsCallsFailed,
		stats.ToolNotFound,
	))
	r.print(fmt.Sprintf("*** Run Ended. Duration: %s ***", stats.Duration))

	l.lock.Lock()
	delete(l.runs, stats.RunID)
	l.lock.Unlock()

	return &stats, r.journal()
}

func (l *Scratchpad) getRun(ctx context.Context) *run {
	runID := RunID(ctx)
	if runID == "" {
		return nil
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.runs[runID]
}

func (l *Scratchpad) OnToolStart(ctx context.Context, tool tools.ITool, args tools.Args) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	r.update(func(s *RunStats) { s.ToolsCalls++ })
	r.print(tool.Name(), "*** Tool Start ***")
	if l.mode == ModeVerbose {
		r.print(tool.Name(), "Arguments:", llmutils.ToJSON(args))
	}
}

func (l *Scratchpad) OnToolEnd(ctx context.Context, tool tools.ITool, args tools.Args, res *tools.Result) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	r.update(func(s *RunStats) { s.ToolsCallsSucceeded++ })
	if l.mode == ModeVerbose {
		r.print(tool.Name(), "Payload:", llmutils.ToJSON(res.Payload))
	}
	r.print(tool.Name(), "*** Tool End ***")
}

func (l *Scratchpad) OnToolError(ctx context.Context, tool tools.ITool, args tools.Args, failure *tools.Failure) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	r.update(func(s *RunStats) {
		s.ToolsCallsFailed++
		s.FailedByKind[failure.Kind]++
	})
	r.print(tool.Name(), "*** Tool Error ***", failure.String())
}

func (l *Scratchpad) OnToolNotFound(ctx context.Context, name string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	r.update(func(s *RunStats) { s.ToolNotFound++ })
	r.print("*** Tool Not Found ***", name)
}

type run struct {
	w       bytes.Buffer
	started time.Time
	lock    sync.Mutex
	stats   RunStats
}

func (r *run) update(fn func(s *RunStats)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	fn(&r.stats)
}

func (r *run) journal() []byte {
	r.lock.Lock()
	defer r.lock.Unlock()
	return bytes.Clone(r.w.Bytes())
}

// print writes the entries to the run's output.
// The entries are written in the following format:
// [timestamp runID] entry entry\n
func (r *run) print(entries ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	ts := TimeNowFn().Format("2006-01-02 15:04:05")

	_, _ = r.w.WriteString(ts)
	_, _ = r.w.WriteString(" ")
	_, _ = r.w.WriteString(r.stats.RunID)
	_, _ = r.w.WriteString(" ")

	for i, entry := range entries {
		if i > 0 {
			_, _ = r.w.WriteString(" ")
		}
		_, _ = r.w.WriteString(entry)
	}
	_, _ = r.w.WriteString("\n")
}
