package yamlite

import (
	"strings"

	"github.com/mcncl/toonkit/internal/coerce"
	"github.com/mcncl/toonkit/internal/formatter"
	"github.com/mcncl/toonkit/internal/models"
)

const indentUnit = "  "

// Encode renders a tree as block YAML with two spaces per level. Sequence
// items that are objects put their first key on the hyphen line and the rest
// beneath it. Block structure stops where Decode stops reading it: values
// inside sequence items and inside a nested mapping are written inline as
// flow JSON. Empty collections are written as [] and {}.
func Encode(v models.Value) string {
	switch {
	case v.IsArray() && len(v.Items()) == 0:
		return "[]"
	case v.IsArray():
		return strings.Join(renderList(v.Items(), 0), "\n")
	case v.IsObject():
		return strings.Join(renderObject(v.Object()), "\n")
	}
	return formatScalar(v)
}

// renderObject writes the top-level mapping. Arrays and objects under a key
// open one nested block.
func renderObject(obj *models.Object) []string {
	var out []string
	for _, f := range obj.Fields() {
		head := formatKey(f.Key) + ":"
		v := f.Value
		switch {
		case v.IsArray() && len(v.Items()) > 0:
			out = append(out, head)
			out = append(out, renderList(v.Items(), 1)...)
		case v.IsObject() && v.Object().Len() > 0:
			out = append(out, head)
			for _, nf := range v.Object().Fields() {
				out = append(out, indentUnit+formatKey(nf.Key)+": "+inline(nf.Value))
			}
		default:
			out = append(out, head+" "+inline(v))
		}
	}
	return out
}

func renderList(items []models.Value, level int) []string {
	pad := strings.Repeat(indentUnit, level)
	var out []string
	for _, item := range items {
		if !item.IsObject() || item.Object().Len() == 0 {
			out = append(out, pad+"- "+inline(item))
			continue
		}
		for i, f := range item.Object().Fields() {
			prefix := pad + indentUnit
			if i == 0 {
				prefix = pad + "- "
			}
			out = append(out, prefix+formatKey(f.Key)+": "+inline(f.Value))
		}
	}
	return out
}

// inline writes a scalar, or any collection as flow JSON.
func inline(v models.Value) string {
	if v.IsScalar() {
		return formatScalar(v)
	}
	return flow(v)
}

// flow renders a collection inline as JSON, which is also valid YAML flow
// syntax.
func flow(v models.Value) string {
	text, err := formatter.NewFormatter().WithIndent(0).Format(v)
	if err != nil {
		return "null"
	}
	return text
}

func formatScalar(v models.Value) string {
	if v.Kind() != models.KindString {
		return v.Text()
	}
	s := v.StringValue()
	if needsQuotes(s) {
		return `"` + s + `"`
	}
	return s
}

// needsQuotes covers values with a colon or comma, plus strings that would
// otherwise read back as another type, a flow collection or an empty block key.
func needsQuotes(s string) bool {
	switch {
	case s == "", isFlow(s):
		return true
	case strings.ContainsAny(s, ":,"):
		return true
	case strings.TrimSpace(s) != s, isQuoted(s):
		return true
	}
	return coerce.LooksLike(s)
}

func formatKey(key string) string {
	if key == "" || strings.ContainsAny(key, ":#[]{}") || strings.HasPrefix(key, "-") || strings.TrimSpace(key) != key {
		return `"` + key + `"`
	}
	return key
}
