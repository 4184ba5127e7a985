package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/toolbelt/pkg/llmutils"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ tools.Callback = (*Noop)(nil)
	_ tools.Callback = (*Printer)(nil)
	_ tools.Callback = (*PackageLogger)(nil)
	_ tools.Callback = (*Fanout)(nil)
	_ tools.Callback = (*Scratchpad)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing,
	// arguments and payloads are printed
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []tools.Callback
}

func NewFanout(callbacks ...tools.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback tools.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnToolStart(ctx context.Context, tool tools.ITool, args tools.Args) {
	for _, callback := range l.callbacks {
		callback.OnToolStart(ctx, tool, args)
	}
}

func (l *Fanout) OnToolEnd(ctx context.Context, tool tools.ITool, args tools.Args, res *tools.Result) {
	for _, callback := range l.callbacks {
		callback.OnToolEnd(ctx, tool, args, res)
	}
}

func (l *Fanout) OnToolError(ctx context.Context, tool tools.ITool, args tools.Args, failure *tools.Failure) {
	for _, callback := range l.callbacks {
		callback.OnToolError(ctx, tool, args, failure)
	}
}

func (l *Fanout) OnToolNotFound(ctx context.Context, name string) {
	for _, callback := range l.callbacks {
		callback.OnToolNotFound(ctx, name)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnToolStart(ctx context.Context, tool tools.ITool, args tools.Args) {}
func (l *Noop) OnToolEnd(ctx context.Context, tool tools.ITool, args tools.Args, res *tools.Result) {
}
func (l *Noop) OnToolError(ctx context.Context, tool tools.ITool, args tools.Args, failure *tools.Failure) {
}
func (l *Noop) OnToolNotFound(ctx context.Context, name string) {}

// Printer is a callback handler that prints to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) OnToolStart(ctx context.Context, tool tools.ITool, args tools.Args) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Start: %s\n", tool.Name())
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Arguments: %s\n", llmutils.ToJSON(args))
	}
}

func (l *Printer) OnToolEnd(ctx context.Context, tool tools.ITool, args tools.Args, res *tools.Result) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool End: %s\n", tool.Name())
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Payload: %s\n", llmutils.ToJSON(res.Payload))
	}
}

func (l *Printer) OnToolError(ctx context.Context, tool tools.ITool, args tools.Args, failure *tools.Failure) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Error: %s: %s\n", tool.Name(), failure.String())
}

func (l *Printer) OnToolNotFound(ctx context.Context, name string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Not Found: %s\n", name)
}

// PackageLogger is a callback handler that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnToolStart(ctx context.Context, tool tools.ITool, args tools.Args) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool.Name(),
		"args", llmutils.ToJSON(args),
	)
}

func (l *PackageLogger) OnToolEnd(ctx context.Context, tool tools.ITool, args tools.Args, res *tools.Result) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool.Name(),
		"payload", llmutils.ToJSON(res.Payload),
	)
}

func (l *PackageLogger) OnToolError(ctx context.Context, tool tools.ITool, args tools.Args, failure *tools.Failure) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool.Name(),
		"kind", failure.Kind,
		"err", failure.Message,
	)
}

func (l *PackageLogger) OnToolNotFound(ctx context.Context, name string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_not_found",
		"tool", name,
	)
}
