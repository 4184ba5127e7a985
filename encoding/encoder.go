package encoding

import (
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cockroachdb/errors"
	jsonenc "github.com/effective-security/toolbelt/encoding/json"
	tomlenc "github.com/effective-security/toolbelt/encoding/toml"
	yamlenc "github.com/effective-security/toolbelt/encoding/yaml"
	"github.com/effective-security/toolbelt/tools"
)

type Encoder interface {
	Marshal(v any) ([]byte, error)
	Unmarshal([]byte, any) error
	// GetFormatInstructions returns the wrapped message with the example for the prompt
	GetFormatInstructions(example any) string
}

type Validator interface {
	Validate(any) error
}

type Mode = string

const (
	ModeJSON Mode = "json"
	ModeYAML Mode = "yaml"
	ModeTOML Mode = "toml"
)

// ModeDefault is the default mode for the encoder.
// Allow to override in apps
var ModeDefault = ModeJSON

var (
	_ Encoder = (*jsonenc.Encoder)(nil)
	_ Encoder = (*tomlenc.Encoder)(nil)
	_ Encoder = (*yamlenc.Encoder)(nil)

	_ Validator = (*jsonenc.Encoder)(nil)
	_ Validator = (*tomlenc.Encoder)(nil)
	_ Validator = (*yamlenc.Encoder)(nil)
)

// PredefinedEncoder returns the encoder for the mode,
// empty mode is ModeDefault.
func PredefinedEncoder(mode Mode) (Encoder, error) {
	switch strings.ToLower(mode) {
	case "":
		return PredefinedEncoder(ModeDefault)
	case ModeJSON:
		return jsonenc.NewEncoder(), nil
	case ModeYAML:
		return yamlenc.NewEncoder(), nil
	case ModeTOML:
		return tomlenc.NewEncoder(), nil
	default:
		return nil, errors.Errorf("no predefined encoder for %q", mode)
	}
}

// Listing is the exported list of tools
type Listing struct {
	Tools []tools.Definition `json:"tools" yaml:"tools" toml:"tools"`
}

// EncodeDefinitions returns the listing of the tools in the given format.
func EncodeDefinitions(mode Mode, defs []tools.Definition) ([]byte, error) {
	enc, err := PredefinedEncoder(mode)
	if err != nil {
		return nil, err
	}
	if defs == nil {
		defs = []tools.Definition{}
	}
	bs, err := enc.Marshal(Listing{Tools: defs})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %d tool definitions", len(defs))
	}
	return bs, nil
}

// DecodeDefinitions parses the listing of the tools.
// The parameters of the definitions are not validated,
// use tools.NewFunc to build a descriptor.
func DecodeDefinitions(mode Mode, data []byte) ([]tools.Definition, error) {
	enc, err := PredefinedEncoder(mode)
	if err != nil {
		return nil, err
	}
	var l Listing
	if err := enc.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(err, "failed to decode tool definitions")
	}
	return l.Tools, nil
}

// DecodeRequest parses a tool call produced by an agent in the given format.
func DecodeRequest(mode Mode, text string) (*tools.Request, error) {
	enc, err := PredefinedEncoder(mode)
	if err != nil {
		return nil, err
	}

	var req tools.Request
	if err := enc.Unmarshal([]byte(text), &req); err != nil {
		return nil, errors.Wrap(err, "failed to decode tool call")
	}
	if v, ok := enc.(Validator); ok {
		if err := v.Validate(&req); err != nil {
			return nil, errors.Wrap(err, "invalid tool call")
		}
	}
	if req.Arguments == nil {
		req.Arguments = tools.Args{}
	}
	return &req, nil
}

// FormatInstructions returns the prompt instructions to call the tool,
// with an example request in the given format.
func FormatInstructions(mode Mode, d *tools.Descriptor) (string, error) {
	enc, err := PredefinedEncoder(mode)
	if err != nil {
		return "", err
	}
	return enc.GetFormatInstructions(&tools.Request{
		Tool:      d.Name(),
		Arguments: ExampleArgs(d.Params()),
	}), nil
}

// ExampleArgs returns fake arguments for the parameters.
// Defaults are used where declared.
func ExampleArgs(params []tools.Param) tools.Args {
	args := tools.Args{}
	for _, p := range params {
		if p.Default != nil {
			args[p.Name] = p.Default
			continue
		}
		switch p.Type {
		case tools.TypeObject:
			args[p.Name] = map[string]any{gofakeit.Word(): exampleValue(p.Items)}
		case tools.TypeArray:
			args[p.Name] = []any{exampleValue(p.Items), exampleValue(p.Items)}
		default:
			args[p.Name] = exampleValue(p.Type)
		}
	}
	return args
}

func exampleValue(typ tools.ParamType) any {
	switch typ {
	case tools.TypeInteger:
		return int64(gofakeit.IntRange(1, 100))
	case tools.TypeNumber:
		return gofakeit.Float64Range(0, 100)
	case tools.TypeBoolean:
		return gofakeit.Bool()
	default:
		return gofakeit.Word()
	}
}
