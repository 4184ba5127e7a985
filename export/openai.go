package export

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/tools"
	"github.com/invopop/jsonschema"
)

// Tool is a tool in the OpenAI function calling format.
type Tool struct {
	// Type is the type of the tool, always "function".
	Type string `json:"type"`
	// Function is the function to call.
	Function *FunctionDefinition `json:"function,omitempty"`
}

// FunctionDefinition is a definition of a function that can be called by the model.
type FunctionDefinition struct {
	// Name is the name of the function.
	Name string `json:"name"`
	// Description is a description of the function.
	Description string `json:"description"`
	// Parameters is the JSON Schema of the function parameters.
	Parameters *jsonschema.Schema `json:"parameters,omitempty"`
}

// FunctionCall is the function call requested by the model.
type FunctionCall struct {
	// The name of the function to call.
	Name string `json:"name"`
	// The arguments to pass to the function, as a JSON string.
	Arguments string `json:"arguments"`
}

// OpenAI returns the tools in the OpenAI function calling format.
// Returns nil if no tools are provided.
func OpenAI(list ...*tools.Descriptor) []Tool {
	if len(list) == 0 {
		return nil
	}
	res := make([]Tool, len(list))
	for i, d := range list {
		res[i] = Tool{
			Type: "function",
			Function: &FunctionDefinition{
				Name:        d.Name(),
				Description: d.Description(),
				Parameters:  d.JSONSchema(),
			},
		}
	}
	return res
}

// RequestFromFunctionCall returns the tool request for the function call.
func RequestFromFunctionCall(call *FunctionCall) (*tools.Request, error) {
	if call == nil {
		return nil, errors.New("function call is nil")
	}
	args, err := decodeArgs(call.Name, []byte(call.Arguments))
	if err != nil {
		return nil, err
	}
	return &tools.Request{Tool: call.Name, Arguments: args}, nil
}
