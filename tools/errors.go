package tools

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrFailedUnmarshalInput is returned by Call when the input is not a JSON object.
	ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")
)

// Kind classifies registration and invocation failures.
type Kind string

const (
	// KindSchemaInference is returned at registration when a parameter type
	// cannot be determined, or the schema is otherwise invalid.
	KindSchemaInference Kind = "SchemaInferenceError"
	// KindDuplicateTool is returned when a name is registered twice.
	KindDuplicateTool Kind = "DuplicateToolError"
	// KindToolNotFound is returned when the requested tool is not known.
	KindToolNotFound Kind = "ToolNotFoundError"
	// KindMissingArgument is returned when a required argument is absent.
	KindMissingArgument Kind = "MissingArgumentError"
	// KindUnknownArgument is returned when an argument is not declared in the schema.
	KindUnknownArgument Kind = "UnknownArgumentError"
	// KindArgumentType is returned when an argument cannot be coerced to the declared type.
	KindArgumentType Kind = "ArgumentTypeError"
	// KindInvalidArgument is returned when a bound input fails struct validation.
	KindInvalidArgument Kind = "InvalidArgumentError"
	// KindToolExecution is returned when the wrapped function fails or panics.
	KindToolExecution Kind = "ToolExecutionError"
	// KindResultSerialization is returned when the result is not serializable.
	KindResultSerialization Kind = "ResultSerializationError"
)

// Error is a typed tool error.
type Error struct {
	Kind Kind
	// Tool is the name of the tool, if known
	Tool string
	// Param is the name of the offending parameter, if any
	Param   string
	Message string

	cause error
}

func newError(kind Kind, tool, param string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Tool:    tool,
		Param:   param,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) withCause(err error) *Error {
	e.cause = err
	return e
}

// Failure returns the serializable form of the error.
func (e *Error) Failure() *Failure {
	return &Failure{
		Kind:    e.Kind,
		Param:   e.Param,
		Message: e.Message,
	}
}

// KindOf returns the Kind of the error, or empty string
// if err is not a tool error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind returns true if err is a tool error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func schemaError(tool, param string, format string, args ...any) error {
	return errors.WithStack(newError(KindSchemaInference, tool, param, format, args...))
}
