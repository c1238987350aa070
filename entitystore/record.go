// Copyright 2026 The Graphcache Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package entitystore is the flat entity-ID-to-record store that
// underlies every view of the cache: a mutex-guarded map supporting get/set/delete/snapshot/
// restore, plus an optional dependency tracker that invalidates
// memoized reads when a field they consulted is written.
package entitystore

// RootQuery is the well-known root ID under which top-level query
// projections live.
const RootQuery = "ROOT_QUERY"

// RootMutation is the well-known root ID under which top-level
// mutation projections live, when mutations are cached.
const RootMutation = "ROOT_MUTATION"

// ValueKind discriminates the tagged union a field value can hold.
// The store never stores dynamically-shaped/duck-typed values: a field
// value is always exactly one of these kinds.
type ValueKind int

const (
	// KindScalar holds a number, string, bool, or nil directly.
	KindScalar ValueKind = iota
	// KindReference holds a Ref pointing at another entity.
	KindReference
	// KindJSON holds an opaque structurally-compared JSON tree, for
	// fields with no sub-selection.
	KindJSON
	// KindList holds an ordered []Value, each itself a tagged value
	// (and possibly nil for a null list element).
	KindList
)

// Ref is a reference field value: a pointer at another entity by ID.
type Ref struct {
	ID        string
	Synthetic bool
	TypeTag   string
	HasType   bool
}

// Value is one field's stored value: exactly one of Scalar, Reference,
// JSON, or List is meaningful, selected by Kind.
type Value struct {
	Kind      ValueKind
	Scalar    any
	Reference Ref
	JSON      any
	List      []Value
}

// IsNull reports whether v represents an explicit null (a nil scalar).
func (v Value) IsNull() bool {
	return v.Kind == KindScalar && v.Scalar == nil
}

// ScalarValue builds a scalar field value.
func ScalarValue(v any) Value { return Value{Kind: KindScalar, Scalar: v} }

// Null builds the explicit-null scalar field value.
func Null() Value { return Value{Kind: KindScalar, Scalar: nil} }

// ReferenceValue builds a reference field value.
func ReferenceValue(ref Ref) Value { return Value{Kind: KindReference, Reference: ref} }

// JSONValue builds an embedded-JSON field value.
func JSONValue(tree any) Value { return Value{Kind: KindJSON, JSON: tree} }

// ListValue builds an ordered-list field value.
func ListValue(items []Value) Value { return Value{Kind: KindList, List: items} }

// TypeTagKey is the distinguished storage key under which an entity's
// declared type tag is conventionally written, when one is known.
const TypeTagKey = "__typename"

// Record is an entity's field-storage-key-to-value mapping.
type Record map[string]Value

// TypeTag returns the record's declared type tag, if any.
func (r Record) TypeTag() (string, bool) {
	v, ok := r[TypeTagKey]
	if !ok || v.Kind != KindScalar {
		return "", false
	}
	s, ok := v.Scalar.(string)

	return s, ok
}

// Clone returns a shallow copy of r, safe to mutate independently of
// the original (nested Value.List slices are themselves copied to
// first level, but embedded JSON trees are not deep-cloned — callers
// must treat JSON trees as immutable once stored).
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if v.Kind == KindList {
			list := make([]Value, len(v.List))
			copy(list, v.List)
			v.List = list
		}
		out[k] = v
	}

	return out
}

// Merge shallow-merges patch into r: fields present in patch overwrite;
// fields already in r but absent from patch are retained.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	for k, v := range patch {
		out[k] = v
	}

	return out
}
