package toon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcncl/toonkit/internal/errors"
	"github.com/mcncl/toonkit/internal/models"
)

type srcLine struct {
	num     int
	depth   int
	content string
}

type header struct {
	length int
	fields []string // nil unless tabular
}

type decoder struct {
	lines []srcLine
	pos   int
}

// Decode parses text. An empty document is an empty object.
func (c *Codec) Decode(text string) (models.Value, error) {
	lines, err := scan(text, c.indent)
	if err != nil {
		return models.Null(), err
	}
	d := &decoder{lines: lines}
	v, err := d.root()
	if err != nil {
		return models.Null(), err
	}
	if d.pos < len(d.lines) {
		return models.Null(), d.errorf(d.lines[d.pos], "unexpected content")
	}
	return v, nil
}

func scan(text string, indent int) ([]srcLine, error) {
	var lines []srcLine
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, " \r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		spaces := len(raw) - len(strings.TrimLeft(raw, " "))
		if raw[spaces] == '\t' {
			return nil, parseError(i+1, "tabs are not allowed in indentation")
		}
		if spaces%indent != 0 {
			return nil, parseError(i+1, fmt.Sprintf("indentation of %d spaces is not a multiple of %d", spaces, indent))
		}
		lines = append(lines, srcLine{num: i + 1, depth: spaces / indent, content: raw[spaces:]})
	}
	return lines, nil
}

func parseError(line int, msg string) error {
	return errors.NewParseError(errors.KindCompactParse, fmt.Sprintf("line %d: %s", line, msg), nil)
}

func (d *decoder) errorf(l srcLine, format string, args ...any) error {
	return parseError(l.num, fmt.Sprintf(format, args...))
}

func (d *decoder) root() (models.Value, error) {
	if len(d.lines) == 0 {
		return models.FromObject(nil), nil
	}
	first := d.lines[0]
	if first.depth != 0 {
		return models.Null(), d.errorf(first, "document must start at column 0")
	}

	if strings.HasPrefix(first.content, "[") {
		hdr, value, err := parseHeader(first.content)
		if err != nil {
			return models.Null(), d.errorf(first, "%v", err)
		}
		d.pos++
		return d.arrayBody(first, hdr, value, 1)
	}

	if len(d.lines) == 1 && !isKeyLine(first.content) {
		d.pos++
		v, err := parsePrimitive(first.content)
		if err != nil {
			return models.Null(), d.errorf(first, "%v", err)
		}
		return v, nil
	}

	obj := models.NewObject()
	if err := d.object(obj, 0); err != nil {
		return models.Null(), err
	}
	return models.FromObject(obj), nil
}

// object reads consecutive fields at depth into obj.
func (d *decoder) object(obj *models.Object, depth int) error {
	for d.pos < len(d.lines) {
		l := d.lines[d.pos]
		if l.depth < depth {
			return nil
		}
		if l.depth > depth {
			return d.errorf(l, "unexpected indentation")
		}
		if l.content == "-" || strings.HasPrefix(l.content, "- ") {
			return d.errorf(l, "list item outside of an array")
		}
		d.pos++
		key, v, err := d.fieldLine(l, l.content, depth+1)
		if err != nil {
			return err
		}
		obj.Set(key, v)
	}
	return nil
}

// fieldLine parses "key: value", "key:" or "key[N]...:" and any body below it
// at childDepth.
func (d *decoder) fieldLine(l srcLine, content string, childDepth int) (string, models.Value, error) {
	key, rest, ok := splitKey(content)
	if !ok {
		return "", models.Null(), d.errorf(l, "expected key: value, got %q", content)
	}

	if strings.HasPrefix(rest, "[") {
		hdr, value, err := parseHeader(rest)
		if err != nil {
			return "", models.Null(), d.errorf(l, "%v", err)
		}
		v, err := d.arrayBody(l, hdr, value, childDepth)
		return key, v, err
	}

	value := strings.TrimSpace(rest[1:])
	if value == "" {
		obj := models.NewObject()
		if err := d.object(obj, childDepth); err != nil {
			return "", models.Null(), err
		}
		return key, models.FromObject(obj), nil
	}
	v, err := parsePrimitive(value)
	if err != nil {
		return "", models.Null(), d.errorf(l, "%v", err)
	}
	return key, v, nil
}

func (d *decoder) arrayBody(l srcLine, hdr header, inline string, bodyDepth int) (models.Value, error) {
	if inline != "" {
		if hdr.fields != nil {
			return models.Null(), d.errorf(l, "tabular header cannot carry inline values")
		}
		cells := splitDelimited(inline)
		if len(cells) != hdr.length {
			return models.Null(), d.errorf(l, "declared %d values, found %d", hdr.length, len(cells))
		}
		items := make([]models.Value, len(cells))
		for i, cell := range cells {
			v, err := parsePrimitive(cell)
			if err != nil {
				return models.Null(), d.errorf(l, "%v", err)
			}
			items[i] = v
		}
		return models.Array(items...), nil
	}

	items := make([]models.Value, 0, hdr.length)
	for i := 0; i < hdr.length; i++ {
		if d.pos >= len(d.lines) || d.lines[d.pos].depth != bodyDepth {
			return models.Null(), d.errorf(l, "declared %d items, found %d", hdr.length, i)
		}
		row := d.lines[d.pos]
		d.pos++

		if hdr.fields != nil {
			v, err := d.row(row, hdr.fields)
			if err != nil {
				return models.Null(), err
			}
			items = append(items, v)
			continue
		}

		if row.content != "-" && !strings.HasPrefix(row.content, "- ") {
			return models.Null(), d.errorf(row, "expected list item")
		}
		v, err := d.listItem(row, strings.TrimPrefix(strings.TrimPrefix(row.content, "-"), " "), bodyDepth)
		if err != nil {
			return models.Null(), err
		}
		items = append(items, v)
	}
	return models.Array(items...), nil
}

func (d *decoder) row(l srcLine, fields []string) (models.Value, error) {
	cells := splitDelimited(l.content)
	if len(cells) != len(fields) {
		return models.Null(), d.errorf(l, "row has %d values for %d fields", len(cells), len(fields))
	}
	obj := models.NewObject()
	for i, cell := range cells {
		v, err := parsePrimitive(cell)
		if err != nil {
			return models.Null(), d.errorf(l, "%v", err)
		}
		obj.Set(fields[i], v)
	}
	return models.FromObject(obj), nil
}

func (d *decoder) listItem(l srcLine, rest string, depth int) (models.Value, error) {
	switch {
	case rest == "":
		return models.FromObject(nil), nil
	case strings.HasPrefix(rest, "["):
		hdr, value, err := parseHeader(rest)
		if err != nil {
			return models.Null(), d.errorf(l, "%v", err)
		}
		return d.arrayBody(l, hdr, value, depth+1)
	case isKeyLine(rest):
		obj := models.NewObject()
		key, v, err := d.fieldLine(l, rest, depth+2)
		if err != nil {
			return models.Null(), err
		}
		obj.Set(key, v)
		if err := d.object(obj, depth+1); err != nil {
			return models.Null(), err
		}
		return models.FromObject(obj), nil
	}
	v, err := parsePrimitive(rest)
	if err != nil {
		return models.Null(), d.errorf(l, "%v", err)
	}
	return v, nil
}

// splitKey separates a leading key from the rest of the line, which starts
// with ':' or '['.
func splitKey(content string) (string, string, bool) {
	var key, rest string
	if strings.HasPrefix(content, `"`) {
		k, n, err := unquote(content)
		if err != nil {
			return "", "", false
		}
		key, rest = k, content[n:]
	} else {
		i := strings.IndexAny(content, ":[")
		if i <= 0 {
			return "", "", false
		}
		key, rest = strings.TrimSpace(content[:i]), content[i:]
	}
	if !strings.HasPrefix(rest, ":") && !strings.HasPrefix(rest, "[") {
		return "", "", false
	}
	return key, rest, true
}

func isKeyLine(content string) bool {
	_, _, ok := splitKey(content)
	return ok
}

// parseHeader reads "[N]", "[#N]", an optional "{f1,f2}" and the colon,
// returning whatever follows the colon.
func parseHeader(s string) (header, string, error) {
	end := strings.IndexByte(s, ']')
	if !strings.HasPrefix(s, "[") || end < 0 {
		return header{}, "", fmt.Errorf("malformed array header %q", s)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s[1:end], "#"))
	if err != nil || n < 0 {
		return header{}, "", fmt.Errorf("invalid array length %q", s[1:end])
	}
	hdr := header{length: n}
	rest := s[end+1:]

	if strings.HasPrefix(rest, "{") {
		closing := indexOutsideQuotes(rest, '}')
		if closing < 0 {
			return header{}, "", fmt.Errorf("unterminated field list in %q", s)
		}
		hdr.fields = []string{}
		for _, f := range splitDelimited(rest[1:closing]) {
			name := f
			if strings.HasPrefix(f, `"`) {
				name, _, err = unquote(f)
				if err != nil {
					return header{}, "", err
				}
			}
			hdr.fields = append(hdr.fields, name)
		}
		rest = rest[closing+1:]
	}

	if !strings.HasPrefix(rest, ":") {
		return header{}, "", fmt.Errorf("array header %q must end with ':'", s)
	}
	return hdr, strings.TrimSpace(rest[1:]), nil
}

func parsePrimitive(tok string) (models.Value, error) {
	tok = strings.TrimSpace(tok)
	if strings.HasPrefix(tok, `"`) {
		s, n, err := unquote(tok)
		if err != nil {
			return models.Null(), err
		}
		if n != len(tok) {
			return models.Null(), fmt.Errorf("unexpected text after quoted string in %q", tok)
		}
		return models.String(s), nil
	}
	switch tok {
	case "null":
		return models.Null(), nil
	case "true":
		return models.Bool(true), nil
	case "false":
		return models.Bool(false), nil
	}
	if canonicalNumber.MatchString(tok) {
		if n, err := strconv.ParseFloat(tok, 64); err == nil {
			return models.Number(n), nil
		}
	}
	return models.String(tok), nil
}

// unquote reads a quoted string at the start of s and returns it with the
// number of bytes consumed.
func unquote(s string) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("unterminated escape in %q", s)
			}
			i++
			switch s[i] {
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				return "", 0, fmt.Errorf("invalid escape \\%c", s[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated string %q", s)
}

func splitDelimited(s string) []string {
	var parts []string
	inQuotes := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if inQuotes {
				i++
			}
		case '"':
			inQuotes = !inQuotes
		case delimiter:
			if !inQuotes {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

func indexOutsideQuotes(s string, target byte) int {
	inQuotes := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if inQuotes {
				i++
			}
		case '"':
			inQuotes = !inQuotes
		case target:
			if !inQuotes {
				return i
			}
		}
	}
	return -1
}
