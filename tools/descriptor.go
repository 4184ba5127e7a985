package tools

import (
	"context"
	"encoding/json"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/llmutils"
	"github.com/effective-security/toolbelt/schema"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// Args is the untyped argument payload of a tool call.
type Args = map[string]any

// Func is the signature of a tool with explicitly declared parameters.
type Func func(ctx context.Context, args Args) (any, error)

// Option is a function that can be used to modify the Descriptor at construction.
type Option func(*options)

type options struct {
	name        string
	description string
	validate    *validator.Validate
}

// WithName sets the name of the tool,
// by default the name of the function is used.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithDescription sets the description of the tool, to be used in the prompt of the Agent.
func WithDescription(description string) Option {
	return func(o *options) {
		o.description = description
	}
}

// WithValidator enables struct validation of the typed input, see `validate` tags.
// If v is nil, a default validator is used.
func WithValidator(v *validator.Validate) Option {
	return func(o *options) {
		if v == nil {
			v = validator.New()
		}
		o.validate = v
	}
}

// handler executes the wrapped function
type handler struct {
	// prepare converts coerced arguments to the function input
	prepare func(args Args) (any, *Error)
	run     func(ctx context.Context, in any) (any, error)
}

// Descriptor is an immutable description of a tool and its wrapped function.
type Descriptor struct {
	name        string
	description string
	params      []Param
	schema      *jsonschema.Schema
	fingerprint uint64
	handler     handler
}

// ensure Descriptor implements ITool
var _ ITool = (*Descriptor)(nil)

var toolNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// New creates a tool from a typed function.
// The parameters are inferred from the fields of I, which must be a struct.
// The function is not called.
func New[I any, O any](fn func(context.Context, *I) (O, error), opts ...Option) (*Descriptor, error) {
	if fn == nil {
		return nil, schemaError("", "", "function is nil")
	}
	o := applyOptions(fn, opts)

	t := reflect.TypeFor[I]()
	params, err := InferParams(t)
	if err != nil {
		return nil, err
	}

	if o.description == "" {
		var in I
		if d, ok := any(&in).(Describer); ok {
			o.description = d.Description()
		}
	}

	bindings := bindingsOf(t)
	validate := o.validate
	name := o.name

	h := handler{
		prepare: func(args Args) (any, *Error) {
			in, e := bind(name, t, bindings, args)
			if e != nil {
				return nil, e
			}
			if validate != nil {
				if err := validate.Struct(in); err != nil {
					return nil, newError(KindInvalidArgument, name, "", "invalid arguments: %s", err.Error()).withCause(err)
				}
			}
			return in, nil
		},
		run: func(ctx context.Context, in any) (any, error) {
			return fn(ctx, in.(*I))
		},
	}

	return newDescriptor(o, params, h)
}

// NewFunc creates a tool from a function with explicitly declared parameters.
// The function receives coerced arguments, with defaults applied.
func NewFunc(fn Func, params []Param, opts ...Option) (*Descriptor, error) {
	if fn == nil {
		return nil, schemaError("", "", "function is nil")
	}
	o := applyOptions(fn, opts)

	h := handler{
		prepare: func(args Args) (any, *Error) {
			return args, nil
		},
		run: func(ctx context.Context, in any) (any, error) {
			return fn(ctx, in.(Args))
		},
	}
	return newDescriptor(o, params, h)
}

// MustNew returns a tool, or panics on error.
// Use it to register tools at startup.
func MustNew[I any, O any](fn func(context.Context, *I) (O, error), opts ...Option) *Descriptor {
	d, err := New(fn, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// MustNewFunc returns a tool, or panics on error.
func MustNewFunc(fn Func, params []Param, opts ...Option) *Descriptor {
	d, err := NewFunc(fn, params, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func applyOptions(fn any, opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.name == "" {
		o.name = funcName(fn)
	}
	return o
}

func newDescriptor(o *options, params []Param, h handler) (*Descriptor, error) {
	if o.name == "" {
		return nil, schemaError("", "", "tool name cannot be inferred from an anonymous function, use WithName option")
	}
	if !toolNameRegex.MatchString(o.name) {
		return nil, schemaError(o.name, "", "invalid tool name %q: must match %s", o.name, toolNameRegex.String())
	}

	params, err := validateParams(o.name, params)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{
		name:        o.name,
		description: strings.TrimSpace(o.description),
		params:      params,
		handler:     h,
	}
	d.schema = paramsSchema(params)
	d.fingerprint = fingerprint(d)

	logger.KV(xlog.DEBUG,
		"status", "tool_created",
		"tool", d.name,
		"params", len(params),
	)
	return d, nil
}

// funcName returns the identifier of the function,
// or empty string for anonymous functions.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return ""
	}
	name := rf.Name()
	// github.com/org/repo/pkg.(*Type).Method-fm
	name = strings.TrimSuffix(name, "-fm")
	name = strings.ReplaceAll(name, "[...]", "")
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	if isAnonymous(name) {
		return ""
	}
	return name
}

// isAnonymous returns true for the compiler generated names: func1, func2.3, gowrap1
func isAnonymous(name string) bool {
	for _, prefix := range []string{"func", "gowrap"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok && rest != "" && strings.Trim(rest, "0123456789") == "" {
			return true
		}
	}
	return name == ""
}

func paramsSchema(params []Param) *jsonschema.Schema {
	props := make([]schema.Property, len(params))
	for i, p := range params {
		props[i] = schema.Property{
			Name:        p.Name,
			Type:        string(p.Type),
			Items:       string(p.Items),
			Description: p.Description,
			Default:     p.Default,
			Required:    p.Required,
		}
	}
	return schema.ObjectSchema(props)
}

func fingerprint(d *Descriptor) uint64 {
	js, _ := json.Marshal(d.Definition())
	return xxhash.Sum64(js)
}

// Name returns the name of the Tool.
func (d *Descriptor) Name() string {
	return d.name
}

// Description returns the description of the tool, to be used in the prompt.
func (d *Descriptor) Description() string {
	return d.description
}

// Params returns a copy of the parameter schema, in declared order.
func (d *Descriptor) Params() []Param {
	return cloneParams(d.params)
}

// Parameters returns the JSON Schema of the parameters, to be used in the prompt.
func (d *Descriptor) Parameters() any {
	return d.schema
}

// JSONSchema returns the JSON Schema of the parameters.
// The returned schema must not be modified.
func (d *Descriptor) JSONSchema() *jsonschema.Schema {
	return d.schema
}

// Fingerprint returns a hash of the name, description and parameter schema.
func (d *Descriptor) Fingerprint() uint64 {
	return d.fingerprint
}

// Definition returns the exported form of the descriptor.
func (d *Descriptor) Definition() Definition {
	return Definition{
		Name:        d.name,
		Description: d.description,
		Params:      d.Params(),
	}
}

// WithDescription returns a copy of the descriptor with a new description.
func (d *Descriptor) WithDescription(description string) *Descriptor {
	c := *d
	c.description = strings.TrimSpace(description)
	c.fingerprint = fingerprint(&c)
	return &c
}

// Call executes the tool with JSON object input and returns JSON of the Result.
// If the input cannot be parsed, ErrFailedUnmarshalInput is returned.
// Invocation failures are returned in the Result, not as error.
func (d *Descriptor) Call(ctx context.Context, input string) (string, error) {
	args, err := decodeArgs([]byte(input))
	if err != nil {
		return "", errors.WithStack(ErrFailedUnmarshalInput)
	}
	res := Invoke(ctx, d, &Request{Tool: d.name, Arguments: args})
	return llmutils.ToJSON(res), nil
}

func (d *Descriptor) String() string {
	names := make([]string, len(d.params))
	for i, p := range d.params {
		names[i] = p.String()
	}
	return d.name + "(" + strings.Join(names, ", ") + ")"
}
