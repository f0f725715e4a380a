// Package converter routes text between formats. Every conversion decodes
// the source to a tree, renders that tree in the compact notation, reads it
// back and encodes the target, so same-format conversions normalize their
// input rather than passing it through.
package converter

import (
	"fmt"
	"strings"

	"github.com/mcncl/toonkit/internal/errors"
	"github.com/mcncl/toonkit/internal/formatter"
	"github.com/mcncl/toonkit/internal/models"
	"github.com/mcncl/toonkit/internal/parser"
	"github.com/mcncl/toonkit/internal/tabular"
	"github.com/mcncl/toonkit/internal/tokens"
	"github.com/mcncl/toonkit/internal/toon"
	"github.com/mcncl/toonkit/internal/xmltree"
	"github.com/mcncl/toonkit/internal/yamlite"
)

// Converter holds the per-format output options. It has no mutable state and
// is safe for concurrent use.
type Converter struct {
	json    *formatter.Formatter
	xml     xmltree.EncodeOptions
	codec   *toon.Codec
	counter *tokens.Counter
}

// Option configures a Converter.
type Option func(*Converter)

// WithJSONIndent sets the JSON indent width; 0 writes compact JSON.
func WithJSONIndent(n int) Option {
	return func(c *Converter) {
		c.json = formatter.NewFormatter().WithIndent(n)
	}
}

// WithXMLTags sets the root and array item tag names. Empty names keep the
// defaults.
func WithXMLTags(root, item string) Option {
	return func(c *Converter) {
		if root != "" {
			c.xml.RootTag = root
		}
		if item != "" {
			c.xml.ItemTag = item
		}
	}
}

// WithCodec replaces the compact notation codec.
func WithCodec(codec *toon.Codec) Option {
	return func(c *Converter) {
		c.codec = codec
	}
}

// WithCounter sets the token counter used by ConvertWithStats.
func WithCounter(counter *tokens.Counter) Option {
	return func(c *Converter) {
		c.counter = counter
	}
}

// New creates a Converter with 2-space JSON, root/item XML tags and the
// default compact codec.
func New(opts ...Option) *Converter {
	c := &Converter{
		json:  formatter.NewFormatter(),
		xml:   xmltree.DefaultEncodeOptions(),
		codec: toon.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.counter == nil {
		c.counter = tokens.NewCounter(tokens.NewTiktoken(tokens.DefaultModel), nil)
	}
	return c
}

// Result is a converted text together with its token comparison against the
// source text. Tokens.JSONTokens counts the source and Tokens.ToonTokens the
// output, whatever the two formats are.
type Result struct {
	Output string            `json:"output"`
	Tokens tokens.Comparison `json:"tokens"`
}

// Convert converts text from one format to another. Failures are returned as
// *errors.ConversionError wrapping the first adapter error.
func (c *Converter) Convert(from Format, text string, to Format) (string, error) {
	out, err := c.convert(from, text, to)
	if err != nil {
		return "", &errors.ConversionError{From: from.String(), To: to.String(), Err: err}
	}
	return out, nil
}

// ConvertWithStats converts like Convert and counts tokens of the source and
// the output. For a CSV to YAML conversion JSONTokens holds the CSV count and
// ToonTokens the YAML count.
func (c *Converter) ConvertWithStats(from Format, text string, to Format) (Result, error) {
	out, err := c.Convert(from, text, to)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: out, Tokens: c.counter.Compare(text, out)}, nil
}

func (c *Converter) convert(from Format, text string, to Format) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.NewInputError(errors.KindEmptyInput, "Please enter some data to convert", nil)
	}

	tree, err := c.Decode(from, text)
	if err != nil {
		return "", err
	}

	pivot := c.codec.Encode(tree)
	if to == TOON {
		return pivot, nil
	}

	tree, err = c.codec.Decode(pivot)
	if err != nil {
		return "", err
	}
	return c.Encode(tree, to)
}

// Decode parses text in the given format into a tree.
func (c *Converter) Decode(from Format, text string) (models.Value, error) {
	switch from {
	case JSON:
		return parser.ParseString(text)
	case TOON:
		return c.codec.Decode(text)
	case CSV:
		return tabular.Decode(text)
	case YAML:
		return yamlite.Decode(text)
	case XML:
		return xmltree.Decode(text)
	}
	return models.Null(), unsupported(from)
}

// Encode renders a tree in the given format.
func (c *Converter) Encode(tree models.Value, to Format) (string, error) {
	switch to {
	case JSON:
		return c.json.Format(tree)
	case TOON:
		return c.codec.Encode(tree), nil
	case CSV:
		return tabular.Encode(tree)
	case YAML:
		return yamlite.Encode(tree), nil
	case XML:
		return xmltree.Encode(tree, c.xml), nil
	}
	return "", unsupported(to)
}

func unsupported(f Format) error {
	return errors.NewInputError(errors.KindUnsupportedFormat, fmt.Sprintf("unsupported format %s", f), nil)
}
