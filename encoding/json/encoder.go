package json

import (
	"bytes"
	"encoding/json"

	"github.com/bububa/ljson"
	"github.com/effective-security/toolbelt/pkg/llmutils"
	"github.com/go-playground/validator/v10"
)

type Encoder struct {
	validate *validator.Validate
}

func NewEncoder() *Encoder {
	return &Encoder{
		validate: validator.New(),
	}
}

func (e *Encoder) Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "\t")
}

// Unmarshal decodes JSON produced by an agent,
// the text around the JSON is ignored.
func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	data := llmutils.CleanJSON(bs)
	return ljson.Unmarshal(data, ret)
}

func (e *Encoder) Validate(req any) error {
	return e.validate.Struct(req)
}

func (e *Encoder) GetFormatInstructions(example any) string {
	bs, err := e.Marshal(example)
	if err != nil {
		return ""
	}
	var b bytes.Buffer
	b.WriteString("\nRespond with JSON in the following format:\n")
	b.WriteString("```json\n")
	b.Write(bs)
	b.WriteString("\n```")
	b.WriteString("\nMake sure to return an instance of the JSON, not the example itself.\n")
	b.WriteString("Use the exact field names as they are defined in the example.\n")
	return b.String()
}
