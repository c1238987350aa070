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

package graphdoc

import "errors"

// ErrNoOperation is returned when a document declares zero operations.
var ErrNoOperation = errors.New("graphdoc: document has no operation definition")

// ErrAmbiguousOperation is returned when a document declares more than
// one operation and the caller did not disambiguate with a name.
var ErrAmbiguousOperation = errors.New("graphdoc: document has multiple operations and no name was given to select one")

// ErrOperationNotFound is returned when a named operation does not
// appear in the document.
var ErrOperationNotFound = errors.New("graphdoc: named operation not found in document")

// ErrFragmentNotFound is returned when a fragment spread (or a direct
// fragment lookup) references an undefined fragment name.
var ErrFragmentNotFound = errors.New("graphdoc: fragment not found")

// SelectOperation locates the single operation definition to execute,
// implementing the "locate the operation" step shared by the
// normalization writer and the store reader: if name is non-empty it
// must match exactly one operation; otherwise the document must declare
// exactly one operation.
func SelectOperation(doc *Document, name string) (*OperationDefinition, error) {
	var ops []*OperationDefinition
	for _, d := range doc.Definitions {
		if op, ok := d.(*OperationDefinition); ok {
			ops = append(ops, op)
		}
	}

	if name != "" {
		for _, op := range ops {
			if op.Name == name {
				return op, nil
			}
		}

		return nil, ErrOperationNotFound
	}

	switch len(ops) {
	case 0:
		return nil, ErrNoOperation
	case 1:
		return ops[0], nil
	default:
		return nil, ErrAmbiguousOperation
	}
}

// FragmentByName returns the named fragment definition from the
// document.
func FragmentByName(doc *Document, name string) (*FragmentDefinition, error) {
	for _, d := range doc.Definitions {
		if frag, ok := d.(*FragmentDefinition); ok && frag.Name == name {
			return frag, nil
		}
	}

	return nil, ErrFragmentNotFound
}

// WrapFragmentAsQuery builds a synthetic single-operation document whose
// root selection set is the named fragment's selection set, as used by
// the writeFragment/readFragment/fragment-read code paths.
// The synthetic operation is tagged Query; callers that need mutation
// semantics for a fragment-rooted write should not rely on the
// operation tag at all, since fragment reads/writes always target an
// explicit rootID rather than a well-known root.
func WrapFragmentAsQuery(doc *Document, fragmentName string) (*Document, error) {
	frag, err := FragmentByName(doc, fragmentName)
	if err != nil {
		return nil, err
	}

	synthetic := &OperationDefinition{
		Name:                fragmentName,
		Operation:           Query,
		VariableDefinitions: nil,
		SelectionSet:        frag.SelectionSet,
	}

	return &Document{Definitions: []Definition{synthetic}}, nil
}
