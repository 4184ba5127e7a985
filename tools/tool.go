package tools

import (
	"context"
)

//go:generate mockgen -source=tool.go -destination=../mocks/mocktools/tools_mock.gen.go -package mocktools

// ITool is a tool for the llm agent to interact with different applications.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the parameters definition of the function, to be used in the prompt.
	Parameters() any

	// Call executes the tool with the given input and returns the result.
	// If the tool fails to parse the input, it should return ErrFailedUnmarshalInput error.
	Call(context.Context, string) (string, error)
}

// Callback receives the tool invocation events.
type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, args Args)
	OnToolEnd(ctx context.Context, tool ITool, args Args, res *Result)
	OnToolError(ctx context.Context, tool ITool, args Args, failure *Failure)
	OnToolNotFound(ctx context.Context, name string)
}

// Payloader can be implemented by a tool result to provide
// its serializable form explicitly.
// The payload must be a composition of primitives, maps and slices.
type Payloader interface {
	ToolPayload() (any, error)
}
