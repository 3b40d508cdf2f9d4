/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: object.go
Description: Insertion-ordered JSON object backed by go-ordered-map. Entity data and
decoded records share this type so field order survives from input to sink.
*/

package jsonvalue

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is an ordered mapping from field name to Value.
// Setting an existing key replaces its value in place.
type Object struct {
	fields *orderedmap.OrderedMap[string, Value]
}

// NewObject creates an empty object
func NewObject() *Object {
	return &Object{fields: orderedmap.New[string, Value]()}
}

// Len returns the number of fields
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return o.fields.Len()
}

// Get looks up a field
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	return o.fields.Get(key)
}

// Has reports whether a field exists
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set inserts or replaces a field
func (o *Object) Set(key string, value Value) {
	o.fields.Set(key, value)
}

// Keys returns the field names in insertion order
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	o.Each(func(key string, _ Value) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Each visits fields in insertion order until fn returns false
func (o *Object) Each(fn func(key string, value Value) bool) {
	if o == nil {
		return
	}
	for pair := o.fields.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Clone returns a shallow copy; nested values are immutable and shared
func (o *Object) Clone() *Object {
	clone := NewObject()
	o.Each(func(key string, value Value) bool {
		clone.Set(key, value)
		return true
	})
	return clone
}

// MarshalJSON encodes the object with keys in insertion order
func (o *Object) MarshalJSON() ([]byte, error) {
	return FromObject(o).MarshalJSON()
}
