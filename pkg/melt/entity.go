/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: entity.go
Description: Entities, identifiers and the identifier generator. Identifiers come from an
object's own "id" field when it has a usable scalar there, otherwise from a monotonic
per-melter counter.
*/

package melt

import (
	"math"
	"strconv"

	"github.com/kleascm/furnace/pkg/jsonvalue"
)

const (
	// IDField is the field that carries an original identifier
	IDField = "id"

	// ValueField holds the element of a scalar-array row
	ValueField = "value"

	// IndexField holds the element position of a scalar-array row
	IndexField = "_idx"

	// GeneratedIDPrefix starts every generated identifier
	GeneratedIDPrefix = "_gen_"
)

// IDKind tells original identifiers from generated ones
type IDKind int

const (
	OriginalID IDKind = iota
	GeneratedID
)

// String returns the kind name
func (k IDKind) String() string {
	if k == GeneratedID {
		return "generated"
	}
	return "original"
}

// Identifier is an entity identifier. Seq is only set for generated identifiers.
type Identifier struct {
	Kind  IDKind
	Value string
	Seq   uint64
}

// String returns the identifier text
func (id Identifier) String() string {
	return id.Value
}

// IsZero reports whether the identifier is unset
func (id Identifier) IsZero() bool {
	return id.Value == ""
}

// Original wraps an identifier taken from the data
func Original(value string) Identifier {
	return Identifier{Kind: OriginalID, Value: value}
}

// ParentRef links a promoted entity to the entity it was extracted from
type ParentRef struct {
	Type  string
	ID    Identifier
	Field string
}

// Entity is one output record
type Entity struct {
	Type   string
	Data   *jsonvalue.Object
	ID     Identifier
	Parent *ParentRef
}

// IsRoot reports whether the entity has no parent
func (e Entity) IsRoot() bool {
	return e.Parent == nil
}

// Value returns the entity data as a JSON value
func (e Entity) Value() jsonvalue.Value {
	return jsonvalue.FromObject(e.Data)
}

// IDGenerator issues generated identifiers. Not safe for concurrent use.
type IDGenerator struct {
	last uint64
}

// NewIDGenerator returns a generator whose first identifier is _gen_1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next issues the next identifier
func (g *IDGenerator) Next() (Identifier, error) {
	if g.last == math.MaxUint64 {
		return Identifier{}, invariantf("identifier counter exhausted")
	}
	g.last++
	return Identifier{
		Kind:  GeneratedID,
		Value: GeneratedIDPrefix + strconv.FormatUint(g.last, 10),
		Seq:   g.last,
	}, nil
}

// Issued returns how many identifiers have been generated
func (g *IDGenerator) Issued() uint64 {
	return g.last
}

// AssignID returns v's original identifier if it has one, otherwise a generated one.
// Null, empty and compound "id" values fall back to the generator.
func AssignID(v jsonvalue.Value, gen *IDGenerator) (Identifier, error) {
	if obj := v.Object(); obj != nil {
		if raw, ok := obj.Get(IDField); ok {
			if s, ok := jsonvalue.Stringify(raw); ok {
				return Original(s), nil
			}
		}
	}
	return gen.Next()
}
