// Package toon reads and writes the compact, token-oriented notation every
// conversion pivots through.
//
// Objects are indented "key: value" lines. Arrays declare their length in a
// header: scalars inline ("tags[2]: a,b"), uniform records as a table
// ("users[2]{id,name}:" followed by one row per record), anything else as a
// "- " list. Strings are quoted only when they would otherwise be misread.
// Decoding an encoded tree always yields an equal tree, including key order.
package toon

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mcncl/toonkit/internal/models"
)

const (
	DefaultIndent = 2
	delimiter     = ','
)

// Codec encodes and decodes the notation with fixed options.
type Codec struct {
	indent       int
	lengthMarker bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithIndent sets the number of spaces per nesting level.
func WithIndent(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.indent = n
		}
	}
}

// WithLengthMarkers writes array lengths as [#N] instead of [N].
func WithLengthMarkers(on bool) Option {
	return func(c *Codec) {
		c.lengthMarker = on
	}
}

// New creates a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{indent: DefaultIndent}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var std = New()

// Encode renders v with the default options.
func Encode(v models.Value) string {
	return std.Encode(v)
}

// Decode parses text with the default options.
func Decode(text string) (models.Value, error) {
	return std.Decode(text)
}

var (
	bareKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	// canonicalNumber is what the encoder writes and the decoder reads back as a number.
	canonicalNumber = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)
	// numberLike is broader; strings matching it are quoted so they stay strings.
	numberLike = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

func formatKey(key string) string {
	if bareKey.MatchString(key) {
		return key
	}
	return quote(key)
}

func needsQuotes(s string) bool {
	switch {
	case s == "", s == "true", s == "false", s == "null":
		return true
	case strings.TrimSpace(s) != s:
		return true
	case strings.HasPrefix(s, "-"):
		return true
	case strings.ContainsAny(s, ":\"\\[]{},\n\r\t"):
		return true
	}
	return numberLike.MatchString(s)
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatLength(n int, marker bool) string {
	if marker {
		return "[#" + strconv.Itoa(n) + "]"
	}
	return "[" + strconv.Itoa(n) + "]"
}
