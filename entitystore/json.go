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

package entitystore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire format for a serialized Value: the kind discriminator is an
// explicit field, so a round trip through encoding/json restores the
// exact ValueKind instead of whatever shape default any-decoding would
// guess. Numeric scalars decode through json.Number and come back as
// int64 when integral, float64 otherwise — json.Unmarshal's default of
// float64-for-everything would silently retype (and, past 2^53, corrupt)
// int64 fields.
type wireValue struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
	Ref   *wireRef        `json:"ref,omitempty"`
	List  []Value         `json:"list,omitempty"`
}

type wireRef struct {
	ID        string  `json:"id"`
	Synthetic bool    `json:"synthetic,omitempty"`
	TypeTag   *string `json:"typeTag,omitempty"`
}

const (
	wireKindScalar = "scalar"
	wireKindRef    = "ref"
	wireKindJSON   = "json"
	wireKindList   = "list"
)

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindScalar:
		raw, err := json.Marshal(v.Scalar)
		if err != nil {
			return nil, err
		}

		return json.Marshal(wireValue{Kind: wireKindScalar, Value: raw})

	case KindReference:
		ref := &wireRef{ID: v.Reference.ID, Synthetic: v.Reference.Synthetic}
		if v.Reference.HasType {
			tag := v.Reference.TypeTag
			ref.TypeTag = &tag
		}

		return json.Marshal(wireValue{Kind: wireKindRef, Ref: ref})

	case KindJSON:
		raw, err := json.Marshal(v.JSON)
		if err != nil {
			return nil, err
		}

		return json.Marshal(wireValue{Kind: wireKindJSON, Value: raw})

	case KindList:
		list := v.List
		if list == nil {
			list = []Value{}
		}

		return json.Marshal(wireValue{Kind: wireKindList, List: list})

	default:
		return nil, fmt.Errorf("entitystore: cannot marshal value of kind %d", v.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch w.Kind {
	case wireKindScalar:
		scalar, err := decodeTree(w.Value)
		if err != nil {
			return err
		}
		*v = Value{Kind: KindScalar, Scalar: scalar}

	case wireKindRef:
		if w.Ref == nil {
			return fmt.Errorf("entitystore: reference value missing its ref field")
		}
		ref := Ref{ID: w.Ref.ID, Synthetic: w.Ref.Synthetic}
		if w.Ref.TypeTag != nil {
			ref.TypeTag = *w.Ref.TypeTag
			ref.HasType = true
		}
		*v = ReferenceValue(ref)

	case wireKindJSON:
		tree, err := decodeTree(w.Value)
		if err != nil {
			return err
		}
		*v = JSONValue(tree)

	case wireKindList:
		list := w.List
		if list == nil {
			list = []Value{}
		}
		*v = ListValue(list)

	default:
		return fmt.Errorf("entitystore: cannot unmarshal value of kind %q", w.Kind)
	}

	return nil
}

// decodeTree decodes an arbitrary JSON tree with json.Number enabled,
// then rewrites each number to int64 when it is integral and float64
// otherwise.
func decodeTree(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}

	return restoreNumbers(tree), nil
}

func restoreNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}

		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = restoreNumbers(item)
		}

		return val
	case []any:
		for i, item := range val {
			val[i] = restoreNumbers(item)
		}

		return val
	default:
		return v
	}
}
