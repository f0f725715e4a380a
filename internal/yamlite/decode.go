// Package yamlite reads and writes a small, forgiving subset of YAML:
// top-level "key: value" pairs, one level of nested mapping or sequence under
// a key, and sequence items that are scalars or flattened "k: v, k2: v2"
// objects. Anchors, tags, block scalars and multiple documents are not
// supported. Lines that cannot be understood are skipped rather than
// reported.
package yamlite

import (
	"strings"

	"github.com/mcncl/toonkit/internal/coerce"
	"github.com/mcncl/toonkit/internal/models"
	"github.com/mcncl/toonkit/internal/parser"
)

type line struct {
	indent int
	text   string // trimmed
}

// decoder carries the single-pass state: the key awaiting a block value and
// whatever has accumulated for it.
type decoder struct {
	result *models.Object

	pendingKey    string
	pendingIndent int
	hasPending    bool

	inList     bool
	items      []models.Value
	lastItem   *models.Object // block item still accepting continuation lines
	itemIndent int

	nested *models.Object

	// lines deeper than skipCol (and sequence items at it) belong to a
	// block that has nowhere to go
	skipping bool
	skipCol  int
}

// Decode parses text into a tree. The result is an object, an array when
// the document is only a sequence, or a scalar when it is a single value.
func Decode(text string) (models.Value, error) {
	lines := splitLines(text)
	if len(lines) == 1 && !isItem(lines[0].text) {
		if _, _, ok := splitPair(lines[0].text); !ok {
			return scalar(lines[0].text), nil
		}
	}

	d := &decoder{result: models.NewObject()}
	for _, l := range lines {
		d.feed(l)
	}
	if d.inList && !d.hasPending && d.result.Len() == 0 {
		return models.Array(d.items...), nil
	}
	d.flush()
	return models.FromObject(d.result), nil
}

func splitLines(text string) []line {
	var lines []line
	for _, raw := range strings.Split(strings.TrimSpace(text), "\n") {
		raw = strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
		lines = append(lines, line{indent: indent, text: trimmed})
	}
	return lines
}

func (d *decoder) feed(l line) {
	if d.skipping {
		if l.indent > d.skipCol || (l.indent == d.skipCol && isItem(l.text)) {
			return
		}
		d.skipping = false
	}

	if isItem(l.text) {
		d.addItem(l)
		return
	}

	key, value, ok := splitPair(l.text)
	if !ok {
		return
	}

	switch {
	case d.inList && l.indent > d.itemIndent:
		if d.lastItem != nil {
			d.setNested(d.lastItem, key, value, l.indent)
		}
		return
	case d.hasPending && !d.inList && l.indent > d.pendingIndent:
		d.setNested(d.nested, key, value, l.indent)
		return
	case d.hasPending && l.indent > d.pendingIndent:
		// a key beside the items of a sequence belongs to neither
		return
	}

	d.flush()
	if value == "" {
		d.pendingKey = key
		d.pendingIndent = l.indent
		d.hasPending = true
		d.nested = models.NewObject()
		return
	}
	d.result.Set(key, scalar(value))
}

// setNested stores a field one level down. A block under it would be a third
// level, so an empty value reads as null and its lines are skipped.
func (d *decoder) setNested(obj *models.Object, key, value string, indent int) {
	if value == "" {
		obj.Set(key, models.Null())
		d.skip(indent)
		return
	}
	obj.Set(key, scalar(value))
}

func (d *decoder) skip(col int) {
	d.skipping = true
	d.skipCol = col
}

func (d *decoder) addItem(l line) {
	if !d.inList {
		d.inList = true
		d.items = nil
	}
	d.lastItem = nil
	d.itemIndent = l.indent

	value := strings.TrimSpace(strings.TrimPrefix(l.text, "-"))
	if isQuoted(value) || isFlow(value) || !strings.Contains(value, ":") {
		d.items = append(d.items, scalar(value))
		return
	}

	obj := models.NewObject()
	pairs := splitOutsideQuotes(value, ',')
	for i, pair := range pairs {
		k, v, ok := splitPair(strings.TrimSpace(pair))
		if !ok {
			continue
		}
		if v == "" {
			obj.Set(k, models.Null())
			if i == len(pairs)-1 {
				// the first key column sits after "- "
				d.skip(l.indent + 2)
			}
			continue
		}
		obj.Set(k, scalar(v))
	}
	d.items = append(d.items, models.FromObject(obj))
	d.lastItem = obj
}

// flush attaches whatever block value has accumulated to the pending key.
// A key line with no block under it reads as null.
func (d *decoder) flush() {
	if !d.hasPending {
		d.inList = false
		d.lastItem = nil
		return
	}
	switch {
	case d.inList:
		d.result.Set(d.pendingKey, models.Array(d.items...))
	case d.nested.Len() > 0:
		d.result.Set(d.pendingKey, models.FromObject(d.nested))
	default:
		d.result.Set(d.pendingKey, models.Null())
	}
	d.hasPending = false
	d.inList = false
	d.items = nil
	d.lastItem = nil
	d.nested = nil
}

// splitPair splits "key: value" at the first colon outside double quotes.
func splitPair(text string) (string, string, bool) {
	parts := splitOutsideQuotes(text, ':')
	if len(parts) < 2 {
		return "", "", false
	}
	key := strings.TrimSpace(parts[0])
	value := text[len(parts[0])+1:]
	if key == "" {
		return "", "", false
	}
	return unquote(key), strings.TrimSpace(value), true
}

// scalar reads a value: flow collections as JSON, anything else by coercion.
// Flow text that is not valid JSON stays a string.
func scalar(raw string) models.Value {
	switch raw {
	case "[]":
		return models.Array()
	case "{}":
		return models.FromObject(nil)
	}
	if isFlow(raw) {
		if v, err := parser.ParseString(raw); err == nil {
			return v
		}
	}
	return coerce.Quoted(raw)
}

func isItem(text string) bool {
	return text == "-" || strings.HasPrefix(text, "- ")
}

func isFlow(s string) bool {
	return strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func unquote(s string) string {
	if isQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}

// splitOutsideQuotes splits s at sep, ignoring separators inside double
// quotes or inside flow brackets.
func splitOutsideQuotes(s string, sep byte) []string {
	var parts []string
	inQuotes := false
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && inQuotes && depth > 0:
			i++ // JSON escape inside a flow value
		case c == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case c == '[' || c == '{':
			depth++
		case (c == ']' || c == '}') && depth > 0:
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
