// Package coerce infers typed scalars from untyped text such as CSV cells and
// YAML scalars.
package coerce

import (
	"regexp"
	"strconv"

	"github.com/mcncl/toonkit/internal/models"
)

// decimalRegex accepts plain base-10 numbers with optional sign, fraction and
// exponent. Leading zeros are allowed ("007" is 7). NaN, Infinity, hex and
// underscore forms are rejected even though strconv would accept some of them.
var decimalRegex = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Scalar coerces raw text: "null", "true" and "false" map to their literals,
// decimal numbers to Number, anything else stays a String.
func Scalar(raw string) models.Value {
	switch raw {
	case "null":
		return models.Null()
	case "true":
		return models.Bool(true)
	case "false":
		return models.Bool(false)
	}
	if n, ok := ParseNumber(raw); ok {
		return models.Number(n)
	}
	return models.String(raw)
}

// Quoted is Scalar plus removal of one pair of surrounding double quotes on
// strings, as YAML scalars are written.
func Quoted(raw string) models.Value {
	v := Scalar(raw)
	if v.Kind() != models.KindString {
		return v
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return models.String(raw[1 : len(raw)-1])
	}
	return v
}

// ParseNumber parses raw as a decimal number.
func ParseNumber(raw string) (float64, bool) {
	if raw == "" || !decimalRegex.MatchString(raw) {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// out of range ("1e999") is not a number we can represent
		return 0, false
	}
	return n, true
}

// LooksLike reports whether s would coerce to something other than a String.
// Encoders use it to decide when a string needs quoting to survive a round trip.
func LooksLike(s string) bool {
	return Scalar(s).Kind() != models.KindString
}
