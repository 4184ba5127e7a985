package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Tool      string         `json:"tool" validate:"required"`
	Arguments map[string]any `json:"arguments"`
}

func TestEncoder(t *testing.T) {
	enc := NewEncoder()

	exp := "\nRespond with JSON in the following format:\n```json\n" +
		"{\n\t\"tool\": \"weather_data\",\n\t\"arguments\": {\n\t\t\"location\": \"Paris\"\n\t}\n}" +
		"\n```\nMake sure to return an instance of the JSON, not the example itself.\n" +
		"Use the exact field names as they are defined in the example.\n"
	assert.Equal(t, exp, enc.GetFormatInstructions(call{Tool: "weather_data", Arguments: map[string]any{"location": "Paris"}}))

	var c call
	err := enc.Unmarshal([]byte("Sure, here is the call:\n```json\n{\"tool\": \"weather_data\", \"arguments\": {\"location\": \"Paris\"}}\n```"), &c)
	require.NoError(t, err)
	assert.Equal(t, "weather_data", c.Tool)
	assert.Equal(t, map[string]any{"location": "Paris"}, c.Arguments)
	assert.NoError(t, enc.Validate(c))

	assert.Error(t, enc.Validate(call{}))
	assert.Error(t, enc.Unmarshal([]byte("not json"), &c))

	assert.Empty(t, enc.GetFormatInstructions(make(chan int)))
}
