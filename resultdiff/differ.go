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

// Package resultdiff compares a freshly executed projection against the
// previously returned one, reusing unchanged subtrees so callers (most
// importantly the watch broadcaster) can tell whether anything a
// watched selection set cares about actually changed.
//
// The comparison is field-by-field, in the spirit of a reconciler: a
// subtree survives by reference when every field compares equal,
// exactly as a changed-or-not comparator decides whether to keep or
// replace a node rather than always rebuilding.
package resultdiff

import "reflect"

// IDExtractor recovers a stable identifier from a rendered list element
// (a decoded result object, not an entity record), used to align list
// elements across diffs by identity rather than position.
type IDExtractor func(obj map[string]any) (id string, ok bool)

// Option configures a Differ.
type Option func(*Differ)

// WithIDExtractor installs the function used to align list elements by
// ID instead of position when diffing.
func WithIDExtractor(fn IDExtractor) Option {
	return func(d *Differ) { d.idExtractor = fn }
}

// Differ reconciles successive projected trees.
type Differ struct {
	idExtractor IDExtractor
}

// New constructs a Differ.
func New(opts ...Option) *Differ {
	d := &Differ{}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Result is a diffed projection: Data reuses as much of the previous
// tree as compares equal to the new one, Changed reports whether
// anything did not, and Complete/Missing simply pass the new
// executor.Result through untouched — completeness is never masked by
// the diff.
type Result struct {
	Data     map[string]any
	Complete bool
	Missing  []string
	Changed  bool
}

// Diff reconciles next against prev (nil on the first call for a given
// watch/query). The returned Data shares structure with prev.Data for
// every subtree that compares equal; Changed is false only when the
// entire tree compares equal to prev's.
func (d *Differ) Diff(prev *Result, nextData map[string]any, complete bool, missing []string) Result {
	if prev == nil {
		return Result{Data: nextData, Complete: complete, Missing: missing, Changed: true}
	}

	merged, changed := d.value(any(prev.Data), any(nextData))
	data, _ := merged.(map[string]any)

	return Result{Data: data, Complete: complete, Missing: missing, Changed: changed}
}

// value reconciles one node: prev and next may be maps, slices, or
// scalars (anything JSON-shaped coming out of the executor). It
// returns prev itself (by reference) when the subtree is unchanged.
func (d *Differ) value(prev, next any) (any, bool) {
	switch nv := next.(type) {
	case map[string]any:
		pv, ok := prev.(map[string]any)
		if !ok {
			return nv, true
		}

		return d.object(pv, nv)
	case []any:
		pv, ok := prev.([]any)
		if !ok {
			return nv, true
		}

		return d.list(pv, nv)
	default:
		if reflect.DeepEqual(prev, next) {
			return prev, false
		}

		return next, true
	}
}

func (d *Differ) object(prev, next map[string]any) (any, bool) {
	out := make(map[string]any, len(next))
	changed := len(prev) != len(next)

	for k, nv := range next {
		pv, ok := prev[k]
		if !ok {
			out[k] = nv
			changed = true

			continue
		}
		merged, ch := d.value(pv, nv)
		out[k] = merged
		if ch {
			changed = true
		}
	}

	if !changed {
		return prev, false
	}

	return out, true
}

func (d *Differ) list(prev, next []any) (any, bool) {
	byID := make(map[string]int)
	if d.idExtractor != nil {
		for i, p := range prev {
			obj, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if id, ok := d.idExtractor(obj); ok {
				byID[id] = i
			}
		}
	}

	out := make([]any, len(next))
	changed := len(prev) != len(next)

	for i, nv := range next {
		prevIndex, matched := d.alignedPrevIndex(prev, byID, nv, i)
		if !matched {
			out[i] = nv
			changed = true

			continue
		}
		// An element reused from a different position still makes the
		// list itself new: order is part of the result.
		if prevIndex != i {
			changed = true
		}
		merged, ch := d.value(prev[prevIndex], nv)
		out[i] = merged
		if ch {
			changed = true
		}
	}

	if !changed {
		return prev, false
	}

	return out, true
}

func (d *Differ) alignedPrevIndex(prev []any, byID map[string]int, next any, index int) (int, bool) {
	if d.idExtractor != nil {
		if obj, ok := next.(map[string]any); ok {
			if id, ok := d.idExtractor(obj); ok {
				if prevIndex, found := byID[id]; found {
					return prevIndex, true
				}

				return 0, false
			}
		}
	}
	if index < len(prev) {
		return index, true
	}

	return 0, false
}
