package toml

import (
	"bytes"

	"github.com/BurntSushi/toml"
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
	return toml.Marshal(v)
}

// Unmarshal decodes TOML produced by an agent,
// the ```toml fence is removed.
func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	data := llmutils.BytesTrimBackticks(bs)
	return toml.Unmarshal(data, ret)
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
	b.WriteString("\nRespond with TOML in the following format:\n")
	b.WriteString("```toml\n")
	b.Write(bs)
	b.WriteString("```")
	b.WriteString("\nMake sure to return an instance of the TOML, not the example itself.\n")
	return b.String()
}
