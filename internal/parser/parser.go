package parser

import (
	"encoding/json"
	stderrors "errors" // Standard errors package
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mcncl/toonkit/internal/errors" // Custom errors package
	"github.com/mcncl/toonkit/internal/models"
)

// Parse decodes exactly one JSON value from reader into a tree, keeping
// object keys in document order.
func Parse(reader io.Reader) (models.Value, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber() // Numbers arrive as json.Number and are parsed once

	root, err := decodeValue(decoder)
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return models.Null(), errors.NewParseError(errors.KindEmptyInput, "input is empty or contains only whitespace", err)
		}
		return models.Null(), wrapSyntax(err)
	}

	// Anything but whitespace after the root value is rejected.
	if _, err := decoder.Token(); err == nil {
		return models.Null(), errors.NewParseError(errors.KindInvalidJSON, "multiple JSON values found at the root", nil)
	} else if !stderrors.Is(err, io.EOF) {
		return models.Null(), errors.NewParseError(errors.KindInvalidJSON, "invalid trailing data after first JSON value", err)
	}

	return root, nil
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.Value, error) {
	if strings.TrimSpace(jsonString) == "" {
		return models.Null(), errors.NewInputError(errors.KindEmptyInput, "input string is empty", nil)
	}
	return Parse(strings.NewReader(jsonString))
}

func decodeValue(decoder *json.Decoder) (models.Value, error) {
	tok, err := decoder.Token()
	if err != nil {
		return models.Null(), err
	}
	return decodeToken(decoder, tok)
}

func decodeToken(decoder *json.Decoder, tok json.Token) (models.Value, error) {
	switch t := tok.(type) {
	case nil:
		return models.Null(), nil
	case bool:
		return models.Bool(t), nil
	case string:
		return models.String(t), nil
	case json.Number:
		n, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return models.Null(), fmt.Errorf("number %s out of range: %w", t, err)
		}
		return models.Number(n), nil
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(decoder)
		case '[':
			return decodeArray(decoder)
		}
	}
	return models.Null(), fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(decoder *json.Decoder) (models.Value, error) {
	obj := models.NewObject()
	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return models.Null(), unexpectedEOF(err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return models.Null(), fmt.Errorf("object key must be a string, got %v", keyTok)
		}
		v, err := decodeValue(decoder)
		if err != nil {
			return models.Null(), unexpectedEOF(err)
		}
		obj.Set(key, v)
	}
	if _, err := decoder.Token(); err != nil { // closing '}'
		return models.Null(), unexpectedEOF(err)
	}
	return models.FromObject(obj), nil
}

func decodeArray(decoder *json.Decoder) (models.Value, error) {
	items := []models.Value{}
	for decoder.More() {
		v, err := decodeValue(decoder)
		if err != nil {
			return models.Null(), unexpectedEOF(err)
		}
		items = append(items, v)
	}
	if _, err := decoder.Token(); err != nil { // closing ']'
		return models.Null(), unexpectedEOF(err)
	}
	return models.Array(items...), nil
}

// unexpectedEOF keeps a truncated document from being mistaken for empty input.
func unexpectedEOF(err error) error {
	if stderrors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func wrapSyntax(err error) error {
	var syntaxError *json.SyntaxError
	if stderrors.As(err, &syntaxError) {
		return errors.NewParseError(
			errors.KindInvalidJSON,
			fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
			err,
		)
	}
	return errors.NewParseError(errors.KindInvalidJSON, "failed to decode JSON", err)
}
