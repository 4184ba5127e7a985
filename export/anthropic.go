package export

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/llmutils"
	"github.com/effective-security/toolbelt/tools"
)

// Anthropic converts the tools to the anthropic.ToolUnionParam format
// required by the Anthropic SDK.
// Returns nil if no tools are provided, which is handled gracefully by the API.
func Anthropic(list ...*tools.Descriptor) []anthropic.ToolUnionParam {
	if len(list) == 0 {
		return nil
	}

	sdkTools := make([]anthropic.ToolUnionParam, len(list))
	for i, d := range list {
		s := d.JSONSchema()

		// Anthropic SDK expects a regular map
		properties := make(map[string]any)
		if s.Properties != nil {
			for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
				properties[pair.Key] = pair.Value
			}
		}

		inputSchema := anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: properties,
		}
		if len(s.Required) > 0 {
			inputSchema.Required = s.Required
		}

		sdkTools[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name(),
				Description: anthropic.String(d.Description()),
				InputSchema: inputSchema,
			},
		}
	}
	return sdkTools
}

// RequestFromToolUse returns the tool request for the tool use block of a model response.
func RequestFromToolUse(block anthropic.ToolUseBlock) (*tools.Request, error) {
	input, err := json.Marshal(block.Input)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: failed to marshal tool use arguments")
	}
	args, err := decodeArgs(block.Name, input)
	if err != nil {
		return nil, err
	}
	return &tools.Request{Tool: block.Name, Arguments: args}, nil
}

// AnthropicToolResult returns the tool result block to be sent back to the model.
// The content is the JSON of the payload, or the failure for failed calls.
func AnthropicToolResult(toolUseID string, res *tools.Result) anthropic.ContentBlockParamUnion {
	if res.OK() {
		return anthropic.NewToolResultBlock(toolUseID, llmutils.ToJSON(res.Payload), false)
	}
	return anthropic.NewToolResultBlock(toolUseID, llmutils.ToJSON(res.Error), true)
}

func decodeArgs(name string, input []byte) (tools.Args, error) {
	args := tools.Args{}
	if len(input) == 0 || string(input) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, errors.Wrapf(err, "failed to decode arguments of %q", name)
	}
	return args, nil
}
