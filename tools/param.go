package tools

import (
	"slices"
	"strings"
)

// ParamType is a language-neutral parameter type.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	// TypeObject is a mapping with string keys
	TypeObject ParamType = "object"
	// TypeArray is a sequence of primitives
	TypeArray ParamType = "array"
)

// IsPrimitive returns true for string, integer, number and boolean.
func (t ParamType) IsPrimitive() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

// IsValid returns true for the known types.
func (t ParamType) IsValid() bool {
	return t.IsPrimitive() || t == TypeObject || t == TypeArray
}

// Param describes a single tool parameter.
type Param struct {
	Name        string    `json:"name" yaml:"name" toml:"name"`
	Type        ParamType `json:"type" yaml:"type" toml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Required    bool      `json:"required" yaml:"required" toml:"required"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	// Items is the element type of an array, or the value type of an object.
	// Empty means any primitive for arrays, and any value for objects.
	Items ParamType `json:"items,omitempty" yaml:"items,omitempty" toml:"items,omitempty"`
}

func (p Param) String() string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteString(": ")
	b.WriteString(string(p.Type))
	if p.Items != "" {
		b.WriteString("<" + string(p.Items) + ">")
	}
	if !p.Required {
		b.WriteString(" (optional)")
	}
	return b.String()
}

// Definition is the exported form of a Descriptor,
// as advertised to an agent.
type Definition struct {
	Name        string  `json:"name" yaml:"name" toml:"name"`
	Description string  `json:"description" yaml:"description" toml:"description"`
	Params      []Param `json:"parameters" yaml:"parameters" toml:"parameters"`
}

// validateParams checks an explicitly declared schema
// and returns a copy with coerced defaults.
func validateParams(tool string, params []Param) ([]Param, error) {
	res := make([]Param, 0, len(params))
	seen := map[string]bool{}
	for _, p := range params {
		if p.Name == "" {
			return nil, schemaError(tool, "", "tool %q: parameter name is empty", tool)
		}
		if seen[p.Name] {
			return nil, schemaError(tool, p.Name, "tool %q: duplicate parameter %q", tool, p.Name)
		}
		seen[p.Name] = true

		if !p.Type.IsValid() {
			return nil, schemaError(tool, p.Name, "tool %q: parameter %q: unknown type %q", tool, p.Name, p.Type)
		}
		if p.Items != "" {
			if p.Type.IsPrimitive() {
				return nil, schemaError(tool, p.Name, "tool %q: parameter %q: items are only allowed for object and array", tool, p.Name)
			}
			if !p.Items.IsPrimitive() {
				return nil, schemaError(tool, p.Name, "tool %q: parameter %q: items type must be primitive, got %q", tool, p.Name, p.Items)
			}
		}
		if p.Default != nil {
			if p.Required {
				return nil, schemaError(tool, p.Name, "tool %q: parameter %q: required parameter cannot have a default", tool, p.Name)
			}
			def, err := coerce(p.Type, p.Items, p.Default)
			if err != nil {
				return nil, schemaError(tool, p.Name, "tool %q: parameter %q: invalid default: %s", tool, p.Name, err.Error())
			}
			p.Default = def
		}
		res = append(res, p)
	}
	return res, nil
}

func paramNames(params []Param) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

func cloneParams(params []Param) []Param {
	res := slices.Clone(params)
	for i := range res {
		res[i].Default = cloneValue(res[i].Default)
	}
	return res
}

// cloneValue copies the containers produced by coerce.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = cloneValue(item)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, item := range val {
			s[i] = cloneValue(item)
		}
		return s
	default:
		return v
	}
}
