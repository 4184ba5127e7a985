package samples_test

import (
	"context"
	"testing"

	"github.com/effective-security/toolbelt/config"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/toolbelt/tools/samples"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	r := tools.NewRegistry()
	require.NoError(t, samples.Register(r))
	assert.Equal(t, []string{"github_repo", "invoice_parser", "weather_data"}, r.Names())

	d, ok := r.Get("weather_data")
	require.True(t, ok)
	assert.Equal(t, "Get current weather information for a location.", d.Description())
	assert.Equal(t, []tools.Param{
		{Name: "location", Type: tools.TypeString, Required: true, Description: "The location to get weather for"},
	}, d.Params())

	err := samples.Register(r)
	assert.True(t, tools.IsKind(err, tools.KindDuplicateTool))
}

func TestRegisterWithConfig(t *testing.T) {
	cfg, err := config.Load("../../config/testdata/tools.yaml")
	require.NoError(t, err)

	r := tools.NewRegistry(tools.WithConfig(cfg))
	require.NoError(t, samples.Register(r))
	assert.Equal(t, []string{"invoice_parser", "weather_data"}, r.Names())

	d, ok := r.Get("weather_data")
	require.True(t, ok)
	assert.Equal(t, "Returns current weather for a city.", d.Description())
}

func TestWeatherData(t *testing.T) {
	r := tools.NewRegistry()
	require.NoError(t, samples.Register(r))
	ctx := context.Background()

	res := r.Invoke(ctx, &tools.Request{Tool: "weather_data", Arguments: tools.Args{"location": "Paris"}})
	require.True(t, res.OK(), res.String())
	assert.Equal(t, map[string]any{
		"location":    "Paris",
		"temperature": int64(22),
		"condition":   "Partly Cloudy",
		"humidity":    int64(65),
		"windSpeed":   int64(12),
		"description": "Pleasant weather with some clouds",
	}, res.Payload)

	res = r.Invoke(ctx, &tools.Request{Tool: "weather_data", Arguments: tools.Args{}})
	require.False(t, res.OK())
	assert.Equal(t, tools.KindMissingArgument, res.Error.Kind)
	assert.Equal(t, "location", res.Error.Param)
	assert.Contains(t, res.Error.Message, "location")

	res = r.Invoke(ctx, &tools.Request{Tool: "weather_data", Arguments: tools.Args{"location": "Paris", "unit": "C"}})
	require.False(t, res.OK())
	assert.Equal(t, tools.KindUnknownArgument, res.Error.Kind)
	assert.Equal(t, "unit", res.Error.Param)
}

func TestGitHubRepo(t *testing.T) {
	r := tools.NewRegistry()
	require.NoError(t, samples.Register(r))

	res := r.InvokeJSON(context.Background(), "github_repo", []byte(`{"repo_url": "https://github.com/effective-security/xlog"}`))
	require.True(t, res.OK(), res.String())
	assert.Equal(t, map[string]any{
		"name":        "example-repo",
		"description": "An example repository for demonstration",
		"stars":       int64(1234),
		"forks":       int64(567),
		"language":    "Python",
		"url":         "https://github.com/effective-security/xlog",
		"topics":      []any{"python", "ai", "langchain"},
	}, res.Payload)
}

func TestInvoiceParser(t *testing.T) {
	r := tools.NewRegistry()
	require.NoError(t, samples.Register(r))

	res := r.Invoke(context.Background(), &tools.Request{Tool: "invoice_parser", Arguments: tools.Args{"invoice_data": "INV-2024-001"}})
	require.True(t, res.OK(), res.String())

	payload, ok := res.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INV-2024-001", payload["invoiceNumber"])
	assert.Equal(t, int64(1250), payload["amount"])
	items, ok := payload["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, map[string]any{
		"description": "Software License",
		"quantity":    int64(1),
		"unitPrice":   int64(250),
		"total":       int64(250),
	}, items[1])

	res = r.Invoke(context.Background(), &tools.Request{Tool: "invoice_parser", Arguments: tools.Args{"invoice_data": 42}})
	require.False(t, res.OK())
	assert.Equal(t, tools.KindArgumentType, res.Error.Kind)
}
