package toon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/toonkit/internal/errors"
	"github.com/mcncl/toonkit/internal/models"
)

func sampleDocument() models.Value {
	return models.ObjectOf(
		models.F("users", models.Array(
			models.ObjectOf(models.F("id", models.Number(1)), models.F("name", models.String("Alice"))),
			models.ObjectOf(models.F("id", models.Number(2)), models.F("name", models.String("Bob"))),
		)),
		models.F("tags", models.Array(models.String("a"), models.String("b"))),
		models.F("meta", models.ObjectOf(
			models.F("count", models.Number(2)),
			models.F("ok", models.Bool(true)),
		)),
		models.F("empty", models.Array()),
	)
}

func TestEncode_Document(t *testing.T) {
	expected := `users[2]{id,name}:
  1,Alice
  2,Bob
tags[2]: a,b
meta:
  count: 2
  ok: true
empty[0]:`

	assert.Equal(t, expected, Encode(sampleDocument()))
}

func TestEncode_MixedList(t *testing.T) {
	tree := models.Array(
		models.Number(1),
		models.ObjectOf(
			models.F("a", models.Number(1)),
			models.F("b", models.ObjectOf(models.F("c", models.Number(2)))),
		),
		models.Array(models.Number(1), models.Number(2)),
		models.ObjectOf(),
		models.String("x y"),
	)

	expected := `[5]:
  - 1
  - a: 1
    b:
      c: 2
  - [2]: 1,2
  -
  - x y`

	out := Encode(tree)
	assert.Equal(t, expected, out)

	back, err := Decode(out)
	require.NoError(t, err)
	assert.True(t, models.Equal(tree, back), "got %#v", back)
}

func TestEncode_ListItemWithNestedFirstField(t *testing.T) {
	tree := models.ObjectOf(models.F("orders", models.Array(
		models.ObjectOf(
			models.F("lines", models.Array(
				models.ObjectOf(models.F("sku", models.String("A1")), models.F("qty", models.Number(2))),
			)),
			models.F("total", models.Number(9.5)),
		),
		models.ObjectOf(models.F("total", models.Null())),
	)))

	expected := `orders[2]:
  - lines[1]{sku,qty}:
      A1,2
    total: 9.5
  - total: null`

	out := Encode(tree)
	assert.Equal(t, expected, out)

	back, err := Decode(out)
	require.NoError(t, err)
	assert.True(t, models.Equal(tree, back))
}

func TestEncode_Primitives(t *testing.T) {
	tests := []struct {
		value    models.Value
		expected string
	}{
		{models.Null(), "null"},
		{models.Bool(false), "false"},
		{models.Number(0), "0"},
		{models.Number(-3), "-3"},
		{models.Number(1.5), "1.5"},
		{models.Number(1e21), "1000000000000000000000"},
		{models.Number(1e-7), "0.0000001"},
		{models.String("plain text"), "plain text"},
		{models.String(""), `""`},
		{models.String("true"), `"true"`},
		{models.String("42"), `"42"`},
		{models.String("007"), `"007"`},
		{models.String("-dash"), `"-dash"`},
		{models.String("a,b"), `"a,b"`},
		{models.String("k: v"), `"k: v"`},
		{models.String(" pad"), `" pad"`},
		{models.String("say \"hi\"\n"), `"say \"hi\"\n"`},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Encode(tt.value))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	awkward := []string{
		"", "true", "null", "42", "007", "1e5", "-x", "a,b", `back\slash`, "tab\there",
		"line\nbreak", "cr\r", " pad ", "[x]", "{y}", "key: v", "#hash", "Infinity", "ünïcödé",
	}

	var strs []models.Value
	for _, s := range awkward {
		strs = append(strs, models.String(s))
	}

	trees := map[string]models.Value{
		"document":     sampleDocument(),
		"empty object": models.ObjectOf(),
		"empty array":  models.Array(),
		"scalar root":  models.String("hello"),
		"number root":  models.Number(-12.25),
		"null root":    models.Null(),
		"strings":      models.Array(strs...),
		"string rows": models.Array(
			models.ObjectOf(models.F("v", models.String("a,b")), models.F("w", models.String(""))),
			models.ObjectOf(models.F("v", models.String("\"q\"")), models.F("w", models.String("x: y"))),
		),
		"awkward keys": models.ObjectOf(
			models.F("first name", models.Number(1)),
			models.F("a-b", models.Bool(true)),
			models.F("", models.String("blank")),
			models.F("x[1]", models.Array(models.Number(1))),
			models.F("dotted.key", models.Null()),
		),
		"nested arrays": models.ObjectOf(models.F("grid", models.Array(
			models.Array(models.Number(1), models.Number(2)),
			models.Array(),
			models.Array(models.ObjectOf(models.F("a", models.Number(1)))),
		))),
		"non-uniform records": models.Array(
			models.ObjectOf(models.F("a", models.Number(1))),
			models.ObjectOf(models.F("b", models.Number(2))),
			models.ObjectOf(models.F("a", models.Array(models.Number(1)))),
		),
		"deep": models.ObjectOf(models.F("a", models.ObjectOf(models.F("b", models.ObjectOf(
			models.F("c", models.ObjectOf()),
			models.F("d", models.Array(models.ObjectOf(models.F("e", models.ObjectOf(models.F("f", models.Number(1))))))),
		))))),
	}

	for name, tree := range trees {
		t.Run(name, func(t *testing.T) {
			text := Encode(tree)
			back, err := Decode(text)
			require.NoError(t, err, "encoded:\n%s", text)
			assert.True(t, models.Equal(tree, back), "encoded:\n%s", text)
		})
	}
}

func TestCodecOptions(t *testing.T) {
	codec := New(WithIndent(4), WithLengthMarkers(true))
	tree := models.ObjectOf(
		models.F("ids", models.Array(models.Number(1), models.Number(2))),
		models.F("meta", models.ObjectOf(models.F("ok", models.Bool(true)))),
	)

	out := codec.Encode(tree)
	assert.Equal(t, "ids[#2]: 1,2\nmeta:\n    ok: true", out)

	back, err := codec.Decode(out)
	require.NoError(t, err)
	assert.True(t, models.Equal(tree, back))

	_, err = Decode(out)
	assert.Error(t, err, "four-space input read with two-space indent must nest wrongly")
}

func TestDecode_AcceptsLengthMarkersAndBlankLines(t *testing.T) {
	got, err := Decode("ids[#3]: 1, 2 ,3\n\n\nname: x\n")
	require.NoError(t, err)

	expected := models.ObjectOf(
		models.F("ids", models.Array(models.Number(1), models.Number(2), models.Number(3))),
		models.F("name", models.String("x")),
	)
	assert.True(t, models.Equal(expected, got))
}

func TestDecode_EmptyDocument(t *testing.T) {
	got, err := Decode("  \n")
	require.NoError(t, err)
	assert.True(t, got.IsObject())
	assert.Equal(t, 0, got.Object().Len())
}

func TestDecode_Errors(t *testing.T) {
	tests := map[string]string{
		"inline count mismatch":   "a[3]: 1,2",
		"row count mismatch":      "users[2]{id,name}:\n  1,Alice",
		"row width mismatch":      "t[1]{a,b}:\n  1",
		"odd indentation":         "a:\n   b: 1",
		"tab indentation":         "a:\n\tb: 1",
		"invalid escape":          `a: "bad\q"`,
		"unterminated string":     `a: "open`,
		"unexpected indentation":  "a: 1\n  b: 2",
		"list item outside array": "a: 1\n- 2",
		"bad length":              "a[x]: 1",
		"missing colon":           "a[1] 1",
		"text after quote":        `a: "x"y`,
		"indented first line":     "  a: 1",
		"missing list marker":     "a[1]:\n  b",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrCompactParse)
			assert.Contains(t, err.Error(), "line ")
		})
	}
}
