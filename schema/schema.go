package schema

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	cache   = make(map[reflect.Type][]Field)
	cacheMu sync.Mutex
)

// Field describes a JSON-visible struct field, as seen by the jsonschema reflector.
type Field struct {
	// Name is the JSON name of the field
	Name string
	// Index is the field index in the struct
	Index int
	// Type is the Go type of the field
	Type reflect.Type
	// Required is true when the field has no `omitempty`,
	// or is tagged with `jsonschema:"required"`
	Required bool
	// Description from `jsonschema:"description=..."`
	Description string
	// Default from `jsonschema:"default=..."`, as parsed by the reflector
	Default any
	// SchemaType is the JSON type reported by the reflector,
	// it can be set explicitly with `jsonschema:"type=..."`
	SchemaType string
	// ItemsType is the JSON type of array items or object values
	ItemsType string
}

// FieldName returns the JSON name of the struct field,
// and false if the field is not visible in JSON.
func FieldName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	if f.Tag.Get("jsonschema") == "-" {
		return "", false
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, true
}

// Fields returns JSON-visible fields of the struct type in declared order.
// The caller must ensure that field types are supported by the reflector.
func Fields(t reflect.Type) ([]Field, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("expected struct, got %s", t.Kind())
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if fs, ok := cache[t]; ok {
		return slices.Clone(fs), nil
	}

	fs, err := buildFields(t)
	if err != nil {
		return nil, err
	}
	cache[t] = fs

	return slices.Clone(fs), nil
}

func buildFields(t reflect.Type) (fs []Field, err error) {
	defer func() {
		// the reflector panics on unsupported types
		if r := recover(); r != nil {
			err = errors.Errorf("failed to reflect %s: %v", t.String(), r)
		}
	}()

	root := ToFunctionSchema(t, JSONSchema(t))

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, ok := FieldName(f)
		if !ok {
			continue
		}
		if f.Anonymous {
			return nil, errors.Errorf("embedded field %s is not supported", f.Name)
		}

		field := Field{
			Name:     name,
			Index:    i,
			Type:     f.Type,
			Required: slices.Contains(root.Required, name),
		}
		if root.Properties != nil {
			if prop, ok := root.Properties.Get(name); ok && prop != nil {
				field.Description = prop.Description
				field.Default = prop.Default
				field.SchemaType = prop.Type
				if prop.Items != nil {
					field.ItemsType = prop.Items.Type
				} else if prop.AdditionalProperties != nil {
					field.ItemsType = prop.AdditionalProperties.Type
				}
			}
		}
		fs = append(fs, field)
	}
	return fs, nil
}

// ToFunctionSchema returns the top level object schema
func ToFunctionSchema(tType reflect.Type, tSchema *jsonschema.Schema) *jsonschema.Schema {
	redID := strings.TrimPrefix(tSchema.Ref, "#/$defs/")

	root := tSchema
	for name, def := range tSchema.Definitions {
		if name == redID {
			root = def
		}
	}

	return &jsonschema.Schema{
		Type:       root.Type,
		Properties: root.Properties,
		Required:   root.Required,
	}
}

// JSONSchema returns the json schema of the type
func JSONSchema(t reflect.Type) *jsonschema.Schema {
	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	r.DoNotReference = true

	// The Struct name could be same, but the package name is different,
	// add hash of the package path to the struct name.
	// see: https://github.com/invopop/jsonschema/issues/42
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		if t.Kind() == reflect.Struct {
			fullname := t.PkgPath() + "/" + t.Name()
			name = t.Name() + "@" + strconv.FormatUint(xxhash.Sum64String(fullname), 10)
		}
		return name
	}

	return r.ReflectFromType(t)
}

// Property describes a property of an object schema.
type Property struct {
	Name        string
	Type        string
	Items       string
	Description string
	Default     any
	Required    bool
}

// ObjectSchema returns a closed object schema with the given properties,
// in the given order.
func ObjectSchema(props []Property) *jsonschema.Schema {
	res := &jsonschema.Schema{
		Type:                 "object",
		Properties:           orderedmap.New[string, *jsonschema.Schema](),
		AdditionalProperties: jsonschema.FalseSchema,
	}
	for _, p := range props {
		ps := &jsonschema.Schema{
			Type:        p.Type,
			Description: p.Description,
			Default:     p.Default,
		}
		if p.Items != "" {
			switch p.Type {
			case "array":
				ps.Items = &jsonschema.Schema{Type: p.Items}
			case "object":
				ps.AdditionalProperties = &jsonschema.Schema{Type: p.Items}
			}
		}
		res.Properties.Set(p.Name, ps)
		if p.Required {
			res.Required = append(res.Required, p.Name)
		}
	}
	return res
}
