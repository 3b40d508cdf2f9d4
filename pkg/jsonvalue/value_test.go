/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: value_test.go
Description: Tests for the JSON value model: decoding, ordering, shapes and encoding.
*/

package jsonvalue

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreservesKeyOrder(t *testing.T) {
	v, err := Parse([]byte(`{"zeta": 1, "alpha": {"b": 2, "a": 3}, "mid": [true, null]}`))
	require.NoError(t, err)
	require.True(t, v.IsObject())

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, v.Object().Keys())
	inner, ok := v.Object().Get("alpha")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, inner.Object().Keys())
	assert.Equal(t, `{"zeta":1,"alpha":{"b":2,"a":3},"mid":[true,null]}`, v.String())
}

func TestParseKeepsNumberLiterals(t *testing.T) {
	v := MustParse(`{"big": 12345678901234567890, "f": 1.50}`)
	big, _ := v.Object().Get("big")
	n, ok := big.Num()
	require.True(t, ok)
	assert.Equal(t, "12345678901234567890", n.String())

	f, _ := v.Object().Get("f")
	s, ok := Stringify(f)
	require.True(t, ok)
	assert.Equal(t, "1.50", s)
}

func TestParseRejectsTrailingData(t *testing.T) {
	_, err := Parse([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`   `))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = Parse([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestDuplicateKeysKeepFirstPosition(t *testing.T) {
	v := MustParse(`{"a": 1, "b": 2, "a": 3}`)
	assert.Equal(t, []string{"a", "b"}, v.Object().Keys())
	a, _ := v.Object().Get("a")
	assert.Equal(t, "3", a.String())
}

func TestShapes(t *testing.T) {
	cases := map[string]Shape{
		`null`:    ShapeNull,
		`true`:    ShapeBool,
		`3`:       ShapeNumber,
		`"x"`:     ShapeString,
		`[]`:      ShapeEmptyArray,
		`[1]`:     ShapeArray,
		`{}`:      ShapeObject,
		`{"a":1}`: ShapeObject,
	}
	for text, want := range cases {
		assert.Equal(t, want, MustParse(text).Shape(), text)
	}

	for _, shape := range AllShapes {
		parsed, ok := ParseShape(shape.String())
		require.True(t, ok)
		assert.Equal(t, shape, parsed)
	}
}

func TestStringify(t *testing.T) {
	s, ok := Stringify(String("abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", s)

	s, ok = Stringify(Bool(false))
	assert.True(t, ok)
	assert.Equal(t, "false", s)

	_, ok = Stringify(String(""))
	assert.False(t, ok)
	_, ok = Stringify(Null())
	assert.False(t, ok)
	_, ok = Stringify(MustParse(`{"a":1}`))
	assert.False(t, ok)
}

func TestDecodeStreamsConsecutiveValues(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`{"a":1}
{"b":[1,2]}`))
	first, err := Decode(dec)
	require.NoError(t, err)
	second, err := Decode(dec)
	require.NoError(t, err)
	_, err = Decode(dec)
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, `{"a":1}`, first.String())
	assert.Equal(t, `{"b":[1,2]}`, second.String())
}

func TestObjectBuildersAndClone(t *testing.T) {
	v := ObjectOf(F("name", String("Alice")), F("age", Int(30)))
	clone := v.Object().Clone()
	clone.Set("extra", Bool(true))

	assert.Equal(t, 2, v.Object().Len())
	assert.Equal(t, 3, clone.Len())
	assert.Equal(t, `{"name":"Alice","age":30,"extra":true}`, FromObject(clone).String())
	assert.Equal(t, `"<b>"`, String("<b>").String())
}
