/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: value.go
Description: JSON value model for the furnace melting engine. Provides an immutable tagged
union over the standard JSON kinds with insertion-ordered objects and literal-preserving
numbers, plus the shape classification used by the classifier and the plan builder.
*/

package jsonvalue

import (
	"encoding/json"
	"strconv"
)

// Kind is the JSON kind of a value
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lowercase JSON name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Shape refines Kind by splitting arrays into empty and non-empty.
// Empty arrays never carry element information, so the planner keeps them apart.
type Shape int

const (
	ShapeNull Shape = iota
	ShapeBool
	ShapeNumber
	ShapeString
	ShapeEmptyArray
	ShapeArray
	ShapeObject
)

// AllShapes lists every shape in declaration order
var AllShapes = []Shape{ShapeNull, ShapeBool, ShapeNumber, ShapeString, ShapeEmptyArray, ShapeArray, ShapeObject}

var shapeNames = map[Shape]string{
	ShapeNull:       "null",
	ShapeBool:       "bool",
	ShapeNumber:     "number",
	ShapeString:     "string",
	ShapeEmptyArray: "empty_array",
	ShapeArray:      "array",
	ShapeObject:     "object",
}

// String returns the snake_case name of the shape
func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseShape converts a shape name back into a Shape
func ParseShape(name string) (Shape, bool) {
	for shape, n := range shapeNames {
		if n == name {
			return shape, true
		}
	}
	return 0, false
}

// IsScalar reports whether values of this shape are leaves
func (s Shape) IsScalar() bool {
	return s == ShapeNull || s == ShapeBool || s == ShapeNumber || s == ShapeString
}

// Value is an immutable JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	s    string // string contents or number literal
	arr  []Value
	obj  *Object
}

// Null returns the JSON null value
func Null() Value { return Value{} }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number literal
func Number(n json.Number) Value { return Value{kind: KindNumber, s: string(n)} }

// Int wraps an integer as a number
func Int(i int) Value { return Value{kind: KindNumber, s: strconv.Itoa(i)} }

// String wraps a string
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps a list of values
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// FromObject wraps an object. A nil object becomes an empty one.
func FromObject(obj *Object) Value {
	if obj == nil {
		obj = NewObject()
	}
	return Value{kind: KindObject, obj: obj}
}

// ObjectOf builds an object value from ordered fields
func ObjectOf(fields ...Field) Value {
	obj := NewObject()
	for _, f := range fields {
		obj.Set(f.Key, f.Value)
	}
	return FromObject(obj)
}

// Field is a key/value pair used to build objects in order
type Field struct {
	Key   string
	Value Value
}

// F is shorthand for constructing a Field
func F(key string, value Value) Field { return Field{Key: key, Value: value} }

// Kind returns the JSON kind
func (v Value) Kind() Kind { return v.kind }

// Shape returns the classification shape
func (v Value) Shape() Shape {
	switch v.kind {
	case KindBool:
		return ShapeBool
	case KindNumber:
		return ShapeNumber
	case KindString:
		return ShapeString
	case KindArray:
		if len(v.arr) == 0 {
			return ShapeEmptyArray
		}
		return ShapeArray
	case KindObject:
		return ShapeObject
	default:
		return ShapeNull
	}
}

// IsScalar reports whether the value is neither an array nor an object
func (v Value) IsScalar() bool { return v.kind != KindArray && v.kind != KindObject }

// IsObject reports whether the value is an object
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsArray reports whether the value is an array
func (v Value) IsArray() bool { return v.kind == KindArray }

// Object returns the object, or nil for other kinds
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Array returns the elements, or nil for other kinds. Callers must not modify the slice.
func (v Value) Array() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Str returns the string contents
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Num returns the number literal
func (v Value) Num() (json.Number, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return json.Number(v.s), true
}

// Bool returns the boolean
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Stringify returns the canonical string form of a scalar used for identifiers.
// Null, arrays, objects and empty strings have no usable form.
func Stringify(v Value) (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, v.s != ""
	case KindNumber:
		return v.s, v.s != ""
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// String renders the value as compact JSON
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return "<invalid>"
	}
	return string(data)
}
