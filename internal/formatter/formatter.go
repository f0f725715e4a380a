package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mcncl/toonkit/internal/models"
)

// DefaultIndent is the number of spaces per nesting level.
const DefaultIndent = 2

// Formatter renders trees as JSON text
type Formatter struct {
	indent int
}

// NewFormatter creates a Formatter that pretty-prints with DefaultIndent spaces
func NewFormatter() *Formatter {
	return &Formatter{indent: DefaultIndent}
}

// WithIndent returns a copy using n spaces per level. Zero produces compact output.
func (f *Formatter) WithIndent(n int) *Formatter {
	if n < 0 {
		n = 0
	}
	return &Formatter{indent: n}
}

// Format takes a tree and returns its JSON text. HTML characters are not
// escaped and object keys keep their insertion order.
func (f *Formatter) Format(v models.Value) (string, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return "", err
	}
	if f.indent == 0 {
		return buf.String(), nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", strings.Repeat(" ", f.indent)); err != nil {
		return "", fmt.Errorf("failed to indent JSON: %w", err)
	}
	return out.String(), nil
}

func writeValue(buf *bytes.Buffer, v models.Value) error {
	switch v.Kind() {
	case models.KindNull:
		buf.WriteString("null")
	case models.KindBool:
		if v.BoolValue() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case models.KindNumber:
		n := v.NumberValue()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			buf.WriteString("null")
		} else {
			buf.WriteString(models.FormatNumber(n))
		}
	case models.KindString:
		return writeString(buf, v.StringValue())
	case models.KindArray:
		buf.WriteByte('[')
		for i, item := range v.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case models.KindObject:
		buf.WriteByte('{')
		for i, field := range v.Object().Fields() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, field.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeValue(buf, field.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
