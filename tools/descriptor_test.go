package tools_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherInput struct {
	Location string `json:"location" jsonschema:"description=City name"`
	Unit     string `json:"unit,omitempty" jsonschema:"default=celsius"`
}

func (weatherInput) Description() string {
	return "Returns weather for a location."
}

func weatherData(_ context.Context, in *weatherInput) (map[string]any, error) {
	return map[string]any{
		"location": in.Location,
		"unit":     in.Unit,
		"temp":     22,
	}, nil
}

type service struct {
	prefix string
}

func (s *service) Lookup(_ context.Context, in *weatherInput) (string, error) {
	return s.prefix + in.Location, nil
}

func TestNew(t *testing.T) {
	d, err := tools.New(weatherData)
	require.NoError(t, err)

	assert.Equal(t, "weatherData", d.Name())
	assert.Equal(t, "Returns weather for a location.", d.Description())
	assert.Equal(t, []tools.Param{
		{Name: "location", Type: tools.TypeString, Required: true, Description: "City name"},
		{Name: "unit", Type: tools.TypeString, Default: "celsius"},
	}, d.Params())
	assert.Equal(t, "weatherData(location: string, unit: string (optional))", d.String())
	assert.NotZero(t, d.Fingerprint())

	js, err := json.Marshal(d.Parameters())
	require.NoError(t, err)
	assert.Equal(t, `{"properties":{"location":{"type":"string","description":"City name"},"unit":{"type":"string","default":"celsius"}},"additionalProperties":false,"type":"object","required":["location"]}`, string(js))
	assert.Same(t, d.JSONSchema(), d.Parameters())

	def := d.Definition()
	assert.Equal(t, "weatherData", def.Name)
	assert.Len(t, def.Params, 2)
}

func TestNewOptions(t *testing.T) {
	d, err := tools.New(weatherData, tools.WithName("weather_data"), tools.WithDescription("  Weather.  "))
	require.NoError(t, err)
	assert.Equal(t, "weather_data", d.Name())
	assert.Equal(t, "Weather.", d.Description())

	s := &service{prefix: "at "}
	d, err = tools.New(s.Lookup)
	require.NoError(t, err)
	assert.Equal(t, "Lookup", d.Name())

	res := tools.Invoke(context.Background(), d, &tools.Request{Tool: "Lookup", Arguments: tools.Args{"location": "Paris"}})
	require.True(t, res.OK(), res.String())
	assert.Equal(t, "at Paris", res.Payload)
}

func TestNewAnonymous(t *testing.T) {
	fn := func(_ context.Context, in *weatherInput) (string, error) {
		return in.Location, nil
	}
	_, err := tools.New(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use WithName option")
	assert.True(t, tools.IsKind(err, tools.KindSchemaInference))

	d, err := tools.New(fn, tools.WithName("echo"))
	require.NoError(t, err)
	assert.Equal(t, "echo", d.Name())

	_, err = tools.NewFunc(func(context.Context, tools.Args) (any, error) { return nil, nil }, nil)
	assert.Error(t, err)
}

func TestNewErrors(t *testing.T) {
	_, err := tools.New[weatherInput, string](nil)
	assert.EqualError(t, err, "function is nil")
	_, err = tools.NewFunc(nil, nil, tools.WithName("x"))
	assert.EqualError(t, err, "function is nil")

	for _, name := range []string{"bad name", "weather.data", strings.Repeat("a", 65), "émoji"} {
		_, err = tools.New(weatherData, tools.WithName(name))
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "invalid tool name")
	}

	type badInput struct {
		C chan int `json:"c"`
	}
	_, err = tools.New(func(context.Context, *badInput) (any, error) { return nil, nil }, tools.WithName("bad"))
	require.Error(t, err)
	assert.True(t, tools.IsKind(err, tools.KindSchemaInference))

	type requiredDefault struct {
		Days int `json:"days" jsonschema:"default=3"`
	}
	_, err = tools.New(func(context.Context, *requiredDefault) (any, error) { return nil, nil }, tools.WithName("forecast"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parameter "days": required parameter cannot have a default`)

	assert.Panics(t, func() {
		tools.MustNew[weatherInput, string](nil)
	})
	assert.Panics(t, func() {
		tools.MustNewFunc(nil, nil)
	})
}

func TestNewFunc(t *testing.T) {
	fn := func(_ context.Context, args tools.Args) (any, error) {
		return args, nil
	}
	d, err := tools.NewFunc(fn, []tools.Param{
		{Name: "days", Type: tools.TypeInteger, Default: "3"},
		{Name: "tags", Type: tools.TypeArray, Items: tools.TypeString, Default: []string{"a"}},
	}, tools.WithName("forecast"))
	require.NoError(t, err)

	// defaults are coerced at construction
	params := d.Params()
	assert.Equal(t, int64(3), params[0].Default)
	assert.Equal(t, []any{"a"}, params[1].Default)

	// Params returns a copy
	params[1].Default.([]any)[0] = "changed"
	params[0].Name = "changed"
	assert.Equal(t, []any{"a"}, d.Params()[1].Default)
	assert.Equal(t, "days", d.Params()[0].Name)
}

func TestNewFuncSchemaErrors(t *testing.T) {
	fn := func(context.Context, tools.Args) (any, error) { return nil, nil }

	tcases := []struct {
		name   string
		params []tools.Param
		exp    string
	}{
		{"empty name", []tools.Param{{Type: tools.TypeString}}, `tool "t": parameter name is empty`},
		{"duplicate", []tools.Param{{Name: "a", Type: tools.TypeString}, {Name: "a", Type: tools.TypeInteger}}, `tool "t": duplicate parameter "a"`},
		{"unknown type", []tools.Param{{Name: "a", Type: "date"}}, `tool "t": parameter "a": unknown type "date"`},
		{"empty type", []tools.Param{{Name: "a"}}, `tool "t": parameter "a": unknown type ""`},
		{"items on primitive", []tools.Param{{Name: "a", Type: tools.TypeString, Items: tools.TypeString}}, `tool "t": parameter "a": items are only allowed for object and array`},
		{"nested items", []tools.Param{{Name: "a", Type: tools.TypeArray, Items: tools.TypeArray}}, `tool "t": parameter "a": items type must be primitive, got "array"`},
		{"required default", []tools.Param{{Name: "a", Type: tools.TypeString, Required: true, Default: "x"}}, `tool "t": parameter "a": required parameter cannot have a default`},
		{"invalid default", []tools.Param{{Name: "a", Type: tools.TypeInteger, Default: "many"}}, `tool "t": parameter "a": invalid default: expected integer, got string "many"`},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tools.NewFunc(fn, tc.params, tools.WithName("t"))
			require.Error(t, err)
			assert.Equal(t, tc.exp, err.Error())
			assert.Equal(t, tools.KindSchemaInference, tools.KindOf(err))
		})
	}
}

func TestWithDescription(t *testing.T) {
	d := tools.MustNew(weatherData)
	d2 := d.WithDescription("Other.")

	assert.Equal(t, "Returns weather for a location.", d.Description())
	assert.Equal(t, "Other.", d2.Description())
	assert.NotEqual(t, d.Fingerprint(), d2.Fingerprint())
	assert.Equal(t, d.Name(), d2.Name())

	// the same definition has the same fingerprint
	d3 := tools.MustNew(weatherData)
	assert.Equal(t, d.Fingerprint(), d3.Fingerprint())
	assert.Equal(t, d.Fingerprint(), d2.WithDescription("Returns weather for a location.").Fingerprint())
}

func TestCall(t *testing.T) {
	d := tools.MustNew(weatherData, tools.WithName("weather_data"))
	ctx := context.Background()

	var tool tools.ITool = d
	out, err := tool.Call(ctx, `{"location": "Paris"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"success","tool":"weather_data","payload":{"location":"Paris","temp":22,"unit":"celsius"},"error":null}`, out)

	out, err = tool.Call(ctx, "```json\n{\"location\": \"Paris\", \"unit\": \"F\"}\n```")
	require.NoError(t, err)
	assert.Contains(t, out, `"unit":"F"`)

	out, err = tool.Call(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"failure","tool":"weather_data","payload":null,"error":{"kind":"MissingArgumentError","param":"location","message":"missing required argument \"location\""}}`, out)

	for _, input := range []string{"Paris", "[1, 2]"} {
		_, err = tool.Call(ctx, input)
		assert.True(t, errors.Is(err, tools.ErrFailedUnmarshalInput), input)
	}

	// truncated object is repaired by the lenient decoder
	out, err = tool.Call(ctx, `{"location": "Paris"`)
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"success"`)
	assert.Contains(t, out, `"location":"Paris"`)
}
