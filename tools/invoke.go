package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/llmutils"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "tools")

// Request is a single tool call.
type Request struct {
	Tool      string `json:"tool" yaml:"tool" toml:"tool" validate:"required"`
	Arguments Args   `json:"arguments" yaml:"arguments" toml:"arguments"`
}

// Status discriminates the Result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Failure describes a failed invocation.
type Failure struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Param   string `json:"param,omitempty" yaml:"param,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (f *Failure) String() string {
	return string(f.Kind) + ": " + f.Message
}

// Result is the outcome of an invocation.
// Success and failure have the same shape, Status tells them apart.
type Result struct {
	Status Status `json:"status" yaml:"status"`
	Tool   string `json:"tool" yaml:"tool"`
	// Payload is a composition of string, int64, float64, bool, nil,
	// map[string]any and []any values.
	// Integral numbers are int64, others are float64.
	Payload any      `json:"payload" yaml:"payload"`
	Error   *Failure `json:"error" yaml:"error"`
}

// Success returns a successful Result.
func Success(tool string, payload any) *Result {
	return &Result{
		Status:  StatusSuccess,
		Tool:    tool,
		Payload: payload,
	}
}

// Fail returns a failed Result.
func Fail(tool string, err *Error) *Result {
	return &Result{
		Status: StatusFailure,
		Tool:   tool,
		Error:  err.Failure(),
	}
}

// OK returns true for the successful Result.
func (r *Result) OK() bool {
	return r.Status == StatusSuccess
}

// Err returns the failure as error, or nil.
func (r *Result) Err() error {
	if r.Error == nil {
		return nil
	}
	return &Error{
		Kind:    r.Error.Kind,
		Tool:    r.Tool,
		Param:   r.Error.Param,
		Message: r.Error.Message,
	}
}

func (r *Result) String() string {
	return llmutils.ToJSON(r)
}

// InvokeOption is a function that can be used to modify the invocation.
type InvokeOption func(*invokeOptions)

type invokeOptions struct {
	callback Callback
}

// WithCallback sets the callback for the invocation events.
func WithCallback(callback Callback) InvokeOption {
	return func(o *invokeOptions) {
		o.callback = callback
	}
}

// Invoke validates the request against the descriptor,
// calls the tool and returns the Result.
// Invoke never panics: all failures are returned as a failed Result.
func Invoke(ctx context.Context, d *Descriptor, req *Request, opts ...InvokeOption) *Result {
	var o invokeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if req == nil {
		req = &Request{}
	}

	// zero value Descriptor has no handler
	if d == nil || d.handler.run == nil || req.Tool != d.name {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, req.Tool)
		if o.callback != nil {
			notify(ctx, req.Tool, "tool_not_found", func() {
				o.callback.OnToolNotFound(ctx, req.Tool)
			})
		}
		return Fail(req.Tool, newError(KindToolNotFound, req.Tool, "", "tool %q not found", req.Tool))
	}

	defer metricskey.PerfToolCall.MeasureSince(time.Now(), d.name)

	if o.callback != nil {
		notify(ctx, d.name, "tool_start", func() {
			o.callback.OnToolStart(ctx, d, req.Arguments)
		})
	}

	payload, e := d.execute(ctx, req.Arguments)
	if e != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, d.name, string(e.Kind))
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "tool_failed",
			"tool", d.name,
			"kind", e.Kind,
			"err", e.Message,
		)

		res := Fail(d.name, e)
		if o.callback != nil {
			notify(ctx, d.name, "tool_error", func() {
				o.callback.OnToolError(ctx, d, req.Arguments, res.Error)
			})
		}
		return res
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, d.name)
	res := Success(d.name, payload)
	if o.callback != nil {
		notify(ctx, d.name, "tool_end", func() {
			o.callback.OnToolEnd(ctx, d, req.Arguments, res)
		})
	}
	return res
}

// notify calls the callback, a panic in the callback is logged and dropped.
func notify(ctx context.Context, tool, event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"status", "callback_panic",
				"tool", tool,
				"event", event,
				"panic", r,
			)
		}
	}()
	fn()
}

func (d *Descriptor) execute(ctx context.Context, raw Args) (any, *Error) {
	args, e := d.prepareArgs(raw)
	if e != nil {
		return nil, e
	}

	in, e := d.handler.prepare(args)
	if e != nil {
		return nil, e
	}

	out, e := d.run(ctx, in)
	if e != nil {
		return nil, e
	}

	return d.normalize(out)
}

// prepareArgs coerces arguments in declared order,
// applies defaults and rejects undeclared arguments.
func (d *Descriptor) prepareArgs(raw Args) (Args, *Error) {
	args := make(Args, len(d.params))
	for _, p := range d.params {
		val, ok := raw[p.Name]
		if ok && val == nil && !p.Required {
			// explicit null is the same as absent for optional parameters
			ok = false
		}
		switch {
		case ok:
			cv, err := coerce(p.Type, p.Items, val)
			if err != nil {
				return nil, newError(KindArgumentType, d.name, p.Name, "argument %q: %s", p.Name, err.Error()).withCause(err)
			}
			args[p.Name] = cv
		case p.Required:
			return nil, newError(KindMissingArgument, d.name, p.Name, "missing required argument %q", p.Name)
		case p.Default != nil:
			args[p.Name] = cloneValue(p.Default)
		}
	}

	var unknown []string
	for name := range raw {
		if _, ok := args[name]; ok {
			continue
		}
		if !slices.ContainsFunc(d.params, func(p Param) bool { return p.Name == name }) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		accepted := "no arguments"
		if len(d.params) > 0 {
			accepted = quoteList(paramNames(d.params))
		}
		return nil, newError(KindUnknownArgument, d.name, unknown[0],
			"unknown argument(s) %s: tool %q accepts %s", quoteList(unknown), d.name, accepted)
	}
	return args, nil
}

func (d *Descriptor) run(ctx context.Context, in any) (out any, e *Error) {
	defer func() {
		if r := recover(); r != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"status", "tool_panic",
				"tool", d.name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			out = nil
			e = newError(KindToolExecution, d.name, "", "panic: %v", r)
		}
	}()

	out, err := d.handler.run(ctx, in)
	if err != nil {
		return nil, newError(KindToolExecution, d.name, "", "%s", err.Error()).withCause(err)
	}
	return out, nil
}

// normalize converts the result to a composition of primitives, maps and slices.
func (d *Descriptor) normalize(out any) (payload any, e *Error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			e = newError(KindResultSerialization, d.name, "", "tool %q returned a value that cannot be serialized: %v", d.name, r)
		}
	}()

	if p, ok := out.(Payloader); ok {
		val, err := p.ToolPayload()
		if err != nil {
			return nil, newError(KindResultSerialization, d.name, "", "tool %q returned a value that cannot be serialized: %s", d.name, err.Error()).withCause(err)
		}
		out = val
	}

	js, err := json.Marshal(out)
	if err != nil {
		return nil, newError(KindResultSerialization, d.name, "", "tool %q returned a value that cannot be serialized: %s", d.name, err.Error()).withCause(err)
	}

	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, newError(KindResultSerialization, d.name, "", "tool %q returned a value that cannot be serialized: %s", d.name, err.Error()).withCause(err)
	}
	return fromNumbers(payload), nil
}

// fromNumbers replaces json.Number values with int64 when integral, float64 otherwise.
func fromNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		for k, item := range val {
			val[k] = fromNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = fromNumbers(item)
		}
		return val
	default:
		return v
	}
}

// decodeArgs decodes JSON object produced by an agent.
// Empty input is an empty object.
func decodeArgs(input []byte) (Args, error) {
	data := bytes.TrimSpace(llmutils.CleanJSON(input))
	if len(data) == 0 {
		return Args{}, nil
	}
	if data[0] != '{' {
		return nil, errors.Errorf("expected JSON object, got %q", truncate(string(data)))
	}

	var args Args
	if err := ljson.Unmarshal(data, &args); err != nil {
		return nil, errors.Wrap(err, "failed to decode arguments")
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}

func quoteList(list []string) string {
	quoted := make([]string, len(list))
	for i, s := range list {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

func truncate(s string) string {
	if len(s) > maxDescribedLen {
		return s[:maxDescribedLen] + "..."
	}
	return s
}
