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

package executor

import (
	"fmt"
	"sync"

	"github.com/GoogleChromeLabs/graphcache/entitystore"
	"github.com/GoogleChromeLabs/graphcache/fieldkey"
	"github.com/GoogleChromeLabs/graphcache/fragment"
	"github.com/GoogleChromeLabs/graphcache/graphdoc"
	"github.com/GoogleChromeLabs/graphcache/querykey"
)

// Option configures an Executor.
type Option func(*Executor)

// WithMatcher installs the fragment matcher used to evaluate inline
// fragment and fragment spread type conditions. Without one, every
// fragment is treated as matching.
func WithMatcher(m fragment.Matcher) Option {
	return func(e *Executor) { e.matcher = m }
}

// WithResolvers installs field resolver overrides.
func WithResolvers(resolvers map[ResolverKey]Resolver) Option {
	return func(e *Executor) { e.resolvers = resolvers }
}

// WithReturnPartial controls whether a missing field produces a
// complete=false result (true) or a fatal ErrMissingField (false, the
// default).
func WithReturnPartial(v bool) Option {
	return func(e *Executor) { e.returnPartial = v }
}

// Executor projects (document, variables, rootID) against a store store,
// memoizing per (selection set,
// entity).
type Executor struct {
	store         entitystore.Reader
	matcher       fragment.Matcher
	resolvers     map[ResolverKey]Resolver
	returnPartial bool
	keyMaker      *querykey.Maker

	mu    sync.Mutex
	cache map[memoKey]*memoEntry
}

// New constructs an Executor over store, sharing keyMaker with
// whatever other component (typically the same facade) mints selection
// set identities, so identities agree across components.
func New(store entitystore.Reader, keyMaker *querykey.Maker, opts ...Option) *Executor {
	e := &Executor{
		store:    store,
		keyMaker: keyMaker,
		cache:    make(map[memoKey]*memoEntry),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Reset drops every memoized entry, e.g. after the backing store has
// been wholesale replaced (restore, full reset).
func (e *Executor) Reset() {
	e.mu.Lock()
	e.cache = make(map[memoKey]*memoEntry)
	e.mu.Unlock()
}

// Evict drops the memoized entry for memo, if any. Wire this as the
// onInvalid callback of the entitystore.DependencyTracker backing the
// same store so that a write to an entity invalidates every memoized
// read that consulted it.
func (e *Executor) Evict(memo any) {
	key, ok := memo.(memoKey)
	if !ok {
		return
	}
	e.mu.Lock()
	delete(e.cache, key)
	e.mu.Unlock()
}

// Result is the outcome of Read.
type Result struct {
	Data     map[string]any
	Complete bool
	Missing  []string
}

// Read projects the document's (single, or operationName-selected)
// operation against rootID.
func (e *Executor) Read(doc *graphdoc.Document, operationName string, variables map[string]any, rootID string) (Result, error) {
	op, err := graphdoc.SelectOperation(doc, operationName)
	if err != nil {
		return Result{}, err
	}

	return e.ReadSelection(doc, op.SelectionSet, op.VariableDefinitions, variables, rootID)
}

// ReadFragment projects the named fragment's selection set against an
// explicit rootID.
func (e *Executor) ReadFragment(doc *graphdoc.Document, fragmentName string, variables map[string]any, rootID string) (Result, error) {
	frag, err := graphdoc.FragmentByName(doc, fragmentName)
	if err != nil {
		return Result{}, err
	}

	return e.ReadSelection(doc, frag.SelectionSet, nil, variables, rootID)
}

// ReadSelection is the shared entry point behind Read and ReadFragment.
func (e *Executor) ReadSelection(
	doc *graphdoc.Document,
	sel []graphdoc.Selection,
	varDefs []graphdoc.VariableDefinition,
	variables map[string]any,
	rootID string,
) (Result, error) {
	if rootID == "" {
		rootID = entitystore.RootQuery
	}
	defaults := graphdoc.Defaults(varDefs)
	vhash := varsIdentity(variables)

	entry, err := e.readLevel(doc, sel, rootID, variables, defaults, vhash, nil)
	if err != nil {
		return Result{}, err
	}

	return Result{Data: entry.data, Complete: entry.complete, Missing: entry.missing}, nil
}

func (e *Executor) readLevel(
	doc *graphdoc.Document,
	sel []graphdoc.Selection,
	currentID string,
	vars map[string]any,
	defaults graphdoc.VariableDefaults,
	vhash string,
	ancestors map[ancestorKey]bool,
) (*memoEntry, error) {
	selKey := e.keyMaker.KeyFor(sel)
	mk := memoKey{sel: selKey, id: currentID, vars: vhash}

	e.mu.Lock()
	cached, ok := e.cache[mk]
	e.mu.Unlock()
	if ok {
		return cached, nil
	}

	ak := ancestorKey{sel: selKey, id: currentID}
	if ancestors[ak] {
		// A cycle: the same entity under the same selection set already
		// appears on this recursion's ancestor path. Cut here rather
		// than recurse forever; the caller sees an incomplete subtree.
		return &memoEntry{data: map[string]any{}, complete: false}, nil
	}

	record, found := e.store.Get(mk, currentID)
	if !found {
		if e.returnPartial {
			return &memoEntry{data: map[string]any{}, complete: false, missing: []string{currentID}}, nil
		}

		return nil, fmt.Errorf("%w: entity %q not found", ErrMissingField, currentID)
	}

	nextAncestors := make(map[ancestorKey]bool, len(ancestors)+1)
	for k := range ancestors {
		nextAncestors[k] = true
	}
	nextAncestors[ak] = true

	out := make(map[string]any)
	complete := true
	var missing []string

	if err := e.readFieldsInto(doc, sel, record, currentID, vars, defaults, vhash, nextAncestors, out, &complete, &missing); err != nil {
		return nil, err
	}

	entry := &memoEntry{data: out, complete: complete, missing: missing}

	if vhash != "\x00unstable" {
		e.mu.Lock()
		e.cache[mk] = entry
		e.mu.Unlock()
	}

	return entry, nil
}

func (e *Executor) readFieldsInto(
	doc *graphdoc.Document,
	sel []graphdoc.Selection,
	record entitystore.Record,
	currentID string,
	vars map[string]any,
	defaults graphdoc.VariableDefaults,
	vhash string,
	ancestors map[ancestorKey]bool,
	out map[string]any,
	complete *bool,
	missing *[]string,
) error {
	for _, s := range sel {
		switch node := s.(type) {
		case *graphdoc.Field:
			if graphdoc.ShouldSkip(node.Directives, vars, defaults) {
				continue
			}
			if err := e.readField(doc, node, record, currentID, vars, defaults, vhash, ancestors, out, complete, missing); err != nil {
				return err
			}

		case *graphdoc.InlineFragment:
			if graphdoc.ShouldSkip(node.Directives, vars, defaults) {
				continue
			}
			ok, err := e.matches(record, node.TypeCondition)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := e.readFieldsInto(doc, node.SelectionSet, record, currentID, vars, defaults, vhash, ancestors, out, complete, missing); err != nil {
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
			ok, err := e.matches(record, frag.TypeCondition)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := e.readFieldsInto(doc, frag.SelectionSet, record, currentID, vars, defaults, vhash, ancestors, out, complete, missing); err != nil {
				return err
			}
		}
	}

	return nil
}

func (e *Executor) readField(
	doc *graphdoc.Document,
	f *graphdoc.Field,
	record entitystore.Record,
	currentID string,
	vars map[string]any,
	defaults graphdoc.VariableDefaults,
	vhash string,
	ancestors map[ancestorKey]bool,
	out map[string]any,
	complete *bool,
	missing *[]string,
) error {
	responseKey := f.ResponseKey()

	if e.resolvers != nil {
		if typeTag, hasType := record.TypeTag(); hasType {
			if resolver, ok := e.resolvers[ResolverKey{TypeTag: typeTag, Field: f.Name}]; ok {
				args := resolveArgs(f.Arguments, vars, defaults)
				if val, applied := resolver(record, args); applied {
					return e.readValue(doc, f, val, responseKey, currentID, vars, defaults, vhash, ancestors, out, complete, missing)
				}
			}
		}
	}

	storageKey, err := fieldkey.Encode(f, vars, defaults)
	if err != nil {
		return err
	}

	val, ok := record[storageKey]
	if !ok {
		if e.returnPartial {
			*complete = false
			*missing = append(*missing, fmt.Sprintf("%s.%s", currentID, storageKey))

			return nil
		}

		return fmt.Errorf("%w: field %q on entity %q", ErrMissingField, storageKey, currentID)
	}

	return e.readValue(doc, f, val, responseKey, currentID, vars, defaults, vhash, ancestors, out, complete, missing)
}

func (e *Executor) readValue(
	doc *graphdoc.Document,
	f *graphdoc.Field,
	val entitystore.Value,
	responseKey, currentID string,
	vars map[string]any,
	defaults graphdoc.VariableDefaults,
	vhash string,
	ancestors map[ancestorKey]bool,
	out map[string]any,
	complete *bool,
	missing *[]string,
) error {
	switch val.Kind {
	case entitystore.KindScalar:
		out[responseKey] = val.Scalar

	case entitystore.KindJSON:
		out[responseKey] = cloneJSON(val.JSON)

	case entitystore.KindReference:
		child, err := e.readLevel(doc, f.SelectionSet, val.Reference.ID, vars, defaults, vhash, ancestors)
		if err != nil {
			return err
		}
		out[responseKey] = child.data
		if !child.complete {
			*complete = false
			*missing = append(*missing, child.missing...)
		}

	case entitystore.KindList:
		items := make([]any, len(val.List))
		for i, elem := range val.List {
			if elem.Kind == entitystore.KindScalar && elem.IsNull() {
				items[i] = nil

				continue
			}
			if elem.Kind == entitystore.KindReference {
				child, err := e.readLevel(doc, f.SelectionSet, elem.Reference.ID, vars, defaults, vhash, ancestors)
				if err != nil {
					return err
				}
				items[i] = child.data
				if !child.complete {
					*complete = false
					*missing = append(*missing, child.missing...)
				}

				continue
			}
			if elem.Kind == entitystore.KindJSON {
				items[i] = cloneJSON(elem.JSON)

				continue
			}
			items[i] = elem.Scalar
		}
		out[responseKey] = items
	}

	return nil
}

func (e *Executor) matches(record entitystore.Record, typeCondition string) (bool, error) {
	if typeCondition == "" || e.matcher == nil {
		return true, nil
	}
	typeTag, hasType := record.TypeTag()

	return e.matcher.Match(typeTag, hasType, typeCondition)
}

func resolveArgs(args []graphdoc.Argument, vars map[string]any, defaults graphdoc.VariableDefaults) map[string]any {
	out := make(map[string]any, len(args))
	for _, a := range args {
		if v, ok := graphdoc.ResolveValue(a.Value, vars, defaults); ok {
			out[a.Name] = v
		}
	}

	return out
}

func cloneJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneJSON(item)
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneJSON(item)
		}

		return out
	default:
		return v
	}
}
