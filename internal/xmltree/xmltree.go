// Package xmltree maps XML element trees to the intermediate tree and back.
//
// XML carries no types, so every leaf decodes to a string. An element whose
// children all share one tag (and there is more than one) becomes an array and
// the tag name is dropped; encoding an array writes each element under the
// item tag instead. That loss is one-way: repeated <product> tags come back as
// <item> tags.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/net/html/charset"

	"github.com/mcncl/toonkit/internal/errors"
	"github.com/mcncl/toonkit/internal/models"
)

const (
	DefaultRootTag = "root"
	DefaultItemTag = "item"

	declaration = `<?xml version="1.0" encoding="UTF-8"?>`
)

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

type element struct {
	name     string
	children []*element
	text     bytes.Buffer
}

// Decode parses an XML document and converts its root element. Attributes,
// comments and processing instructions are ignored.
func Decode(text string) (models.Value, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.CharsetReader = charset.NewReaderLabel

	var root *element
	var stack []*element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Null(), invalid(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name.Local}
			if len(stack) == 0 {
				if root != nil {
					return models.Null(), invalid(fmt.Errorf("second root element <%s>", el.name))
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return models.Null(), invalid(fmt.Errorf("text outside the root element"))
			}
		}
	}
	if root == nil {
		return models.Null(), invalid(fmt.Errorf("no root element"))
	}
	return convert(root), nil
}

func invalid(err error) error {
	return errors.NewParseError(errors.KindInvalidXML, "Invalid XML format", err)
}

func convert(el *element) models.Value {
	if len(el.children) == 0 {
		return models.String(strings.TrimSpace(el.text.String()))
	}

	if len(el.children) > 1 && sameTag(el.children) {
		items := make([]models.Value, len(el.children))
		for i, child := range el.children {
			items[i] = convert(child)
		}
		return models.Array(items...)
	}

	// Tags seen more than once among mixed siblings collect into an array
	// under the tag, at the position of their first occurrence.
	var order []string
	grouped := make(map[string][]models.Value)
	for _, child := range el.children {
		if _, seen := grouped[child.name]; !seen {
			order = append(order, child.name)
		}
		grouped[child.name] = append(grouped[child.name], convert(child))
	}
	obj := models.NewObject()
	for _, name := range order {
		values := grouped[name]
		if len(values) == 1 {
			obj.Set(name, values[0])
		} else {
			obj.Set(name, models.Array(values...))
		}
	}
	return models.FromObject(obj)
}

func sameTag(children []*element) bool {
	for _, c := range children[1:] {
		if c.name != children[0].name {
			return false
		}
	}
	return true
}

// EncodeOptions names the tags the encoder cannot recover from the tree.
type EncodeOptions struct {
	RootTag string
	ItemTag string
}

// DefaultEncodeOptions returns root/item.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{RootTag: DefaultRootTag, ItemTag: DefaultItemTag}
}

// Encode renders v under the root tag, after an XML declaration. Object keys
// become child tags (keys that are not valid XML names are snake_cased and
// cleaned up), array elements become repeated item tags, and scalars become
// escaped text.
func Encode(v models.Value, opts EncodeOptions) string {
	if opts.RootTag == "" {
		opts.RootTag = DefaultRootTag
	}
	if opts.ItemTag == "" {
		opts.ItemTag = DefaultItemTag
	}

	var b strings.Builder
	b.WriteString(declaration)
	b.WriteByte('\n')
	writeElement(&b, v, TagName(opts.RootTag), TagName(opts.ItemTag), 0)
	return b.String()
}

func writeElement(b *strings.Builder, v models.Value, tag, itemTag string, level int) {
	pad := strings.Repeat("  ", level)

	switch {
	case v.IsArray() && len(v.Items()) > 0:
		fmt.Fprintf(b, "%s<%s>\n", pad, tag)
		for i, item := range v.Items() {
			if i > 0 {
				b.WriteByte('\n')
			}
			writeElement(b, item, itemTag, itemTag, level+1)
		}
		fmt.Fprintf(b, "\n%s</%s>", pad, tag)
	case v.IsObject() && v.Object().Len() > 0:
		fmt.Fprintf(b, "%s<%s>\n", pad, tag)
		for i, f := range v.Object().Fields() {
			if i > 0 {
				b.WriteByte('\n')
			}
			writeElement(b, f.Value, TagName(f.Key), itemTag, level+1)
		}
		fmt.Fprintf(b, "\n%s</%s>", pad, tag)
	case v.IsScalar():
		fmt.Fprintf(b, "%s<%s>", pad, tag)
		// strings.Builder writes never fail
		_ = xml.EscapeText(b, []byte(v.Text()))
		fmt.Fprintf(b, "</%s>", tag)
	default:
		fmt.Fprintf(b, "%s<%s></%s>", pad, tag, tag)
	}
}

// TagName turns an object key into a usable element name.
func TagName(key string) string {
	if validName.MatchString(key) {
		return key
	}
	name := strcase.ToSnake(key)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		}
		return '_'
	}, name)
	if name == "" || !validName.MatchString(name) {
		name = "_" + name
	}
	return name
}
