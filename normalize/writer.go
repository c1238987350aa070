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

package normalize

import (
	"fmt"
	"log/slog"

	"github.com/GoogleChromeLabs/graphcache/entitystore"
	"github.com/GoogleChromeLabs/graphcache/fieldkey"
	"github.com/GoogleChromeLabs/graphcache/fragment"
	"github.com/GoogleChromeLabs/graphcache/graphdoc"
)

// Writer normalizes query/mutation results into entity records.
type Writer struct {
	store       entitystore.ReadWriter
	idExtractor IDExtractor
	matcher     fragment.Matcher
	validate    bool
	strict      bool
}

// Write normalizes result into store, rooted at rootID (defaulting to
// entitystore.RootQuery when empty). operationName disambiguates the
// document when it declares more than one operation; pass "" when the
// document has exactly one.
//
// Write never applies partially: if any error is returned, the store is
// left exactly as it was before the call.
func (w *Writer) Write(doc *graphdoc.Document, operationName string, variables map[string]any, result map[string]any, rootID string) error {
	op, err := graphdoc.SelectOperation(doc, operationName)
	if err != nil {
		return err
	}

	return w.write(doc, op.SelectionSet, op.VariableDefinitions, variables, result, rootID)
}

// WriteFragment normalizes result against the named fragment's
// selection set, rooted explicitly at rootID (fragment writes have no
// well-known root).
func (w *Writer) WriteFragment(doc *graphdoc.Document, fragmentName string, variables map[string]any, result map[string]any, rootID string) error {
	frag, err := graphdoc.FragmentByName(doc, fragmentName)
	if err != nil {
		return err
	}

	return w.write(doc, frag.SelectionSet, nil, variables, result, rootID)
}

func (w *Writer) write(
	doc *graphdoc.Document,
	sel []graphdoc.Selection,
	varDefs []graphdoc.VariableDefinition,
	variables map[string]any,
	result map[string]any,
	rootID string,
) error {
	if rootID == "" {
		rootID = entitystore.RootQuery
	}
	defaults := graphdoc.Defaults(varDefs)

	scratch := make(map[string]entitystore.Record)
	if err := w.writeLevel(doc, sel, result, rootID, variables, defaults, scratch); err != nil {
		return err
	}

	for id, rec := range scratch {
		w.store.Set(id, rec)
	}

	return nil
}

func (w *Writer) writeLevel(
	doc *graphdoc.Document,
	sel []graphdoc.Selection,
	obj map[string]any,
	currentID string,
	vars map[string]any,
	defaults graphdoc.VariableDefaults,
	scratch map[string]entitystore.Record,
) error {
	for _, s := range sel {
		switch node := s.(type) {
		case *graphdoc.Field:
			if graphdoc.ShouldSkip(node.Directives, vars, defaults) {
				continue
			}
			key, err := fieldkey.Encode(node, vars, defaults)
			if err != nil {
				return err
			}
			val, present := obj[node.ResponseKey()]
			if !present {
				if w.validate {
					slog.Warn("normalize: result missing selected field",
						"entity", currentID, "field", node.ResponseKey())
				}

				continue
			}
			if err := w.writeField(doc, node, key, val, currentID, vars, defaults, scratch); err != nil {
				return err
			}

		case *graphdoc.InlineFragment:
			if graphdoc.ShouldSkip(node.Directives, vars, defaults) {
				continue
			}
			ok, err := w.matches(obj, node.TypeCondition)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := w.writeLevel(doc, node.SelectionSet, obj, currentID, vars, defaults, scratch); err != nil {
				return err
			}

		case *graphdoc.FragmentSpread:
			if graphdoc.ShouldSkip(node.Directives, vars, defaults) {
				continue
			}
			frag, err := graphdoc.FragmentByName(doc, node.Name)
			if err != nil {
				return err
			}
			ok, err := w.matches(obj, frag.TypeCondition)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := w.writeLevel(doc, frag.SelectionSet, obj, currentID, vars, defaults, scratch); err != nil {
				return err
			}
		}
	}

	return nil
}

func (w *Writer) writeField(
	doc *graphdoc.Document,
	f *graphdoc.Field,
	key string,
	val any,
	currentID string,
	vars map[string]any,
	defaults graphdoc.VariableDefaults,
	scratch map[string]entitystore.Record,
) error {
	if f.SelectionSet == nil {
		switch val.(type) {
		case []any, map[string]any:
			// No sub-selection means the value is opaque to the cache:
			// scalar lists and blob objects are embedded as JSON, never
			// normalized into entities of their own.
			w.patch(scratch, currentID, entitystore.Record{key: entitystore.JSONValue(val)})
		default:
			w.patch(scratch, currentID, entitystore.Record{key: entitystore.ScalarValue(val)})
		}

		return nil
	}

	if val == nil {
		w.patch(scratch, currentID, entitystore.Record{key: entitystore.Null()})

		return nil
	}

	switch v := val.(type) {
	case map[string]any:
		ref, err := w.writeObject(doc, f.SelectionSet, v, currentID, key, -1, vars, defaults, scratch)
		if err != nil {
			return err
		}
		w.patch(scratch, currentID, entitystore.Record{key: entitystore.ReferenceValue(ref)})

	case []any:
		items := make([]entitystore.Value, len(v))
		for i, elem := range v {
			if elem == nil {
				items[i] = entitystore.Null()

				continue
			}
			obj, ok := elem.(map[string]any)
			if !ok {
				return w.shapeError(currentID, key, "list element is not an object but the field has a sub-selection")
			}
			ref, err := w.writeObject(doc, f.SelectionSet, obj, currentID, key, i, vars, defaults, scratch)
			if err != nil {
				return err
			}
			items[i] = entitystore.ReferenceValue(ref)
		}
		w.patch(scratch, currentID, entitystore.Record{key: entitystore.ListValue(items)})

	default:
		return w.shapeError(currentID, key, "scalar result for a field with a sub-selection")
	}

	return nil
}

func (w *Writer) writeObject(
	doc *graphdoc.Document,
	sel []graphdoc.Selection,
	obj map[string]any,
	parentID, storageKey string,
	index int,
	vars map[string]any,
	defaults graphdoc.VariableDefaults,
	scratch map[string]entitystore.Record,
) (entitystore.Ref, error) {
	typeTag, hasType := typeTagOf(obj)
	id, synthetic := w.resolveID(obj, parentID, storageKey, index)

	if err := w.checkTieBreak(scratch, parentID, storageKey, synthetic, typeTag, hasType); err != nil {
		return entitystore.Ref{}, err
	}

	if err := w.writeLevel(doc, sel, obj, id, vars, defaults, scratch); err != nil {
		return entitystore.Ref{}, err
	}

	return entitystore.Ref{ID: id, Synthetic: synthetic, TypeTag: typeTag, HasType: hasType}, nil
}

func (w *Writer) resolveID(obj map[string]any, parentID, storageKey string, index int) (string, bool) {
	if w.idExtractor != nil {
		if raw, ok := w.idExtractor(obj); ok {
			return fmt.Sprint(raw), false
		}
	}
	if index >= 0 {
		return fmt.Sprintf("%s.%s.%d", parentID, storageKey, index), true
	}

	return fmt.Sprintf("%s.%s", parentID, storageKey), true
}

// checkTieBreak implements the §7 rule: an ID-less object may not
// overwrite a previously stable-ID-referenced field at the same
// storage key when both declare the same type. A different declared
// type is allowed (the old entity is left orphaned); a stable-ID
// object is always allowed to replace a prior reference.
func (w *Writer) checkTieBreak(
	scratch map[string]entitystore.Record,
	parentID, storageKey string,
	newSynthetic bool,
	newTypeTag string,
	newHasType bool,
) error {
	if !newSynthetic {
		return nil
	}

	existingRec, ok := scratch[parentID]
	if !ok {
		existingRec, ok = w.store.Get(nil, parentID)
	}
	if !ok {
		return nil
	}

	existing, ok := existingRec[storageKey]
	if !ok || existing.Kind != entitystore.KindReference || existing.Reference.Synthetic {
		return nil
	}
	if !existing.Reference.HasType || !newHasType || existing.Reference.TypeTag != newTypeTag {
		return nil
	}

	return w.shapeError(parentID, storageKey,
		fmt.Sprintf("ID-less object of declared type %q cannot overwrite a stable reference of the same type", newTypeTag))
}

func (w *Writer) shapeError(entityID, storageKey, reason string) error {
	msg := fmt.Sprintf("normalize: %s (entity %q, field %q)", reason, entityID, storageKey)
	if w.strict {
		return fmt.Errorf("%w: %s", ErrShapeMismatch, msg)
	}
	slog.Warn(msg)

	return nil
}

func (w *Writer) matches(obj map[string]any, typeCondition string) (bool, error) {
	if typeCondition == "" || w.matcher == nil {
		return true, nil
	}
	typeTag, hasType := typeTagOf(obj)

	return w.matcher.Match(typeTag, hasType, typeCondition)
}

// patch merges fields into scratch[id], seeding from the live store the
// first time id is touched within this write pass so that a commit at
// the end of Write reflects full cross-call merge semantics.
func (w *Writer) patch(scratch map[string]entitystore.Record, id string, fields entitystore.Record) {
	base, ok := scratch[id]
	if !ok {
		if existing, found := w.store.Get(nil, id); found {
			base = existing.Clone()
		} else {
			base = entitystore.Record{}
		}
	}
	scratch[id] = base.Merge(fields)
}

func typeTagOf(obj map[string]any) (string, bool) {
	raw, ok := obj[entitystore.TypeTagKey]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)

	return s, ok
}
