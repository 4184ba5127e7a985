package tools

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/config"
	"github.com/effective-security/toolbelt/pkg/llmutils"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

// RegistryOption is a function that can be used to modify the Registry.
type RegistryOption func(*Registry)

// WithRegistryCallback sets the callback for invocation events of all tools.
func WithRegistryCallback(callback Callback) RegistryOption {
	return func(r *Registry) {
		r.callback = callback
	}
}

// WithConfig sets the per-tool configuration.
func WithConfig(cfg *config.Config) RegistryOption {
	return func(r *Registry) {
		r.cfg = cfg
	}
}

// Registry holds the tools by name.
// Register tools at startup, Invoke is safe for concurrent use.
type Registry struct {
	callback Callback
	cfg      *config.Config

	lock   sync.RWMutex
	byName map[string]*Descriptor
	order  []string
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byName: make(map[string]*Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds the tool to the registry.
// DuplicateToolError is returned if the name is already registered.
// Tools disabled by configuration are skipped.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return errors.New("tool descriptor is nil")
	}

	if tc := r.cfg.Tool(d.name); tc != nil {
		if tc.Disabled {
			logger.KV(xlog.INFO, "status", "tool_disabled", "tool", d.name)
			return nil
		}
		if tc.Description != "" {
			d = d.WithDescription(tc.Description)
		}
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.byName[d.name]; ok {
		return errors.WithStack(newError(KindDuplicateTool, d.name, "", "tool %q is already registered", d.name))
	}
	r.byName[d.name] = d
	r.order = append(r.order, d.name)

	metricskey.StatsToolRegistered.IncrCounter(1, d.name)
	logger.KV(xlog.INFO, "status", "tool_registered", "tool", d.name)
	return nil
}

// MustRegister registers the tools, or panics on error.
// Use it at startup, where a failed registration is a programming error.
func (r *Registry) MustRegister(list ...*Descriptor) *Registry {
	for _, d := range list {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Get returns the tool by name.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// Names returns the names of the tools, in registration order.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return slices.Clone(r.order)
}

// Descriptors returns the tools, in registration order.
func (r *Registry) Descriptors() []*Descriptor {
	r.lock.RLock()
	defer r.lock.RUnlock()
	list := make([]*Descriptor, len(r.order))
	for i, name := range r.order {
		list[i] = r.byName[name]
	}
	return list
}

// Definitions returns the exported definitions of the tools, in registration order.
func (r *Registry) Definitions() []Definition {
	list := r.Descriptors()
	defs := make([]Definition, len(list))
	for i, d := range list {
		defs[i] = d.Definition()
	}
	return defs
}

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
	Parameters  any    `json:"Parameters" yaml:"Parameters"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}

// Describe returns the tools description in JSON, to be used in the prompt.
func (r *Registry) Describe() string {
	ds := r.Descriptors()
	list := make([]ITool, len(ds))
	for i, d := range ds {
		list[i] = d
	}
	return GetDescriptions(list...)
}

// GetDescriptions returns the tools description in JSON, to be used in the prompt.
func GetDescriptions(list ...ITool) string {
	var d toolsDescription
	for _, tool := range list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(d))
}

// Invoke calls the tool named in the request.
// ToolNotFoundError is returned in the Result if the tool is not registered.
func (r *Registry) Invoke(ctx context.Context, req *Request) *Result {
	if req == nil {
		req = &Request{}
	}
	var opts []InvokeOption
	if r.callback != nil {
		opts = append(opts, WithCallback(r.callback))
	}

	d, ok := r.Get(req.Tool)
	if !ok {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, req.Tool)
		if r.callback != nil {
			notify(ctx, req.Tool, "tool_not_found", func() {
				r.callback.OnToolNotFound(ctx, req.Tool)
			})
		}

		available := r.Names()
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_not_found",
			"tool", req.Tool,
			"available_tools", strings.Join(available, ", "),
		)
		return Fail(req.Tool, newError(KindToolNotFound, req.Tool, "",
			"tool %q not found, available tools: %s", req.Tool, values.StringsCoalesce(quoteList(available), "none")))
	}
	return Invoke(ctx, d, req, opts...)
}

// InvokeJSON calls the tool with the JSON object of arguments, as produced by an agent.
// The tool is looked up before the arguments are decoded.
func (r *Registry) InvokeJSON(ctx context.Context, name string, input []byte) *Result {
	if _, ok := r.Get(name); !ok {
		return r.Invoke(ctx, &Request{Tool: name})
	}
	args, err := decodeArgs(input)
	if err != nil {
		return Fail(name, newError(KindArgumentType, name, "", "arguments must be a JSON object: %s", err.Error()).withCause(err))
	}
	return r.Invoke(ctx, &Request{Tool: name, Arguments: args})
}

// InvokeAll calls the tools concurrently,
// the results are returned in the order of requests.
func (r *Registry) InvokeAll(ctx context.Context, reqs ...*Request) []*Result {
	results := make([]*Result, len(reqs))

	var wg sync.WaitGroup
	wg.Add(len(reqs))
	for i, req := range reqs {
		go func(index int, req *Request) {
			defer wg.Done()
			results[index] = r.Invoke(ctx, req)
		}(i, req)
	}
	wg.Wait()

	return results
}
