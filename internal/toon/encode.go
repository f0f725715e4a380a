package toon

import (
	"math"
	"strconv"
	"strings"

	"github.com/mcncl/toonkit/internal/analyzer"
	"github.com/mcncl/toonkit/internal/models"
)

type encoder struct {
	indent string
	marker bool
	lines  []string
}

// Encode renders v. It is total: every tree has an encoding.
func (c *Codec) Encode(v models.Value) string {
	e := &encoder{indent: strings.Repeat(" ", c.indent), marker: c.lengthMarker}
	switch {
	case v.IsArray():
		e.array(0, "", "", v.Items(), 1)
	case v.IsObject():
		e.fields(v.Object(), 0)
	default:
		return primitive(v)
	}
	return strings.Join(e.lines, "\n")
}

func (e *encoder) line(depth int, text string) {
	e.lines = append(e.lines, strings.Repeat(e.indent, depth)+text)
}

func (e *encoder) fields(obj *models.Object, depth int) {
	for _, f := range obj.Fields() {
		e.field(depth, "", f.Key, f.Value, depth+1)
	}
}

// field writes one key at depth. lead is "- " for the first field of a list
// item, whose nested content sits one level deeper than its siblings.
func (e *encoder) field(depth int, lead, key string, v models.Value, childDepth int) {
	name := formatKey(key)
	switch {
	case v.IsArray():
		e.array(depth, lead, name, v.Items(), childDepth)
	case v.IsObject():
		e.line(depth, lead+name+":")
		e.fields(v.Object(), childDepth)
	default:
		e.line(depth, lead+name+": "+primitive(v))
	}
}

func (e *encoder) array(depth int, lead, name string, items []models.Value, bodyDepth int) {
	head := lead + name + formatLength(len(items), e.marker)

	if len(items) == 0 {
		e.line(depth, head+":")
		return
	}

	if analyzer.AllScalars(items) {
		e.line(depth, head+": "+joinPrimitives(items))
		return
	}

	if columns, ok := analyzer.TabularFields(items); ok {
		keys := make([]string, len(columns))
		for i, c := range columns {
			keys[i] = formatKey(c)
		}
		e.line(depth, head+"{"+strings.Join(keys, string(delimiter))+"}:")
		for _, item := range items {
			row := make([]models.Value, len(columns))
			for i, c := range columns {
				row[i], _ = item.Object().Get(c)
			}
			e.line(bodyDepth, joinPrimitives(row))
		}
		return
	}

	e.line(depth, head+":")
	for _, item := range items {
		e.listItem(item, bodyDepth)
	}
}

func (e *encoder) listItem(item models.Value, depth int) {
	switch {
	case item.IsArray():
		e.array(depth, "- ", "", item.Items(), depth+1)
	case item.IsObject():
		fields := item.Object().Fields()
		if len(fields) == 0 {
			e.line(depth, "-")
			return
		}
		e.field(depth, "- ", fields[0].Key, fields[0].Value, depth+2)
		for _, f := range fields[1:] {
			e.field(depth+1, "", f.Key, f.Value, depth+2)
		}
	default:
		e.line(depth, "- "+primitive(item))
	}
}

func joinPrimitives(items []models.Value) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = primitive(item)
	}
	return strings.Join(parts, string(delimiter))
}

func primitive(v models.Value) string {
	switch v.Kind() {
	case models.KindBool:
		return strconv.FormatBool(v.BoolValue())
	case models.KindNumber:
		return formatNumber(v.NumberValue())
	case models.KindString:
		if needsQuotes(v.StringValue()) {
			return quote(v.StringValue())
		}
		return v.StringValue()
	}
	return "null"
}

// formatNumber writes plain decimal without exponent. Non-finite values have
// no representation and become null.
func formatNumber(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "null"
	}
	if n == 0 {
		return "0"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
