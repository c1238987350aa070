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

// Package fragment decides whether an entity of some declared type
// satisfies an inline fragment or fragment spread's type condition:
// exact match, interface, or union.
package fragment

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrNotReady is returned by the Explicit matcher when it is consulted
// before its possible-types table has been loaded. This is fatal: the
// caller configured an explicit matcher but never seeded it.
var ErrNotReady = errors.New("fragment: explicit matcher consulted before possible-types table was loaded")

// Matcher decides whether an entity carrying typeTag (possibly unknown)
// satisfies typeCondition.
type Matcher interface {
	// Match reports whether an entity declared as typeTag (hasTypeTag
	// indicates whether a type tag was present at all) satisfies
	// typeCondition.
	Match(typeTag string, hasTypeTag bool, typeCondition string) (bool, error)
}

// Heuristic is a shape-based matcher for schemas without introspection
// data: it matches when the entity's declared type tag equals the
// condition, and treats a missing/unknown tag as a best-effort match,
// warning once per instance.
//
// Strict turns that best-effort default off: when true, a missing type
// tag never matches.
type Heuristic struct {
	Strict bool

	warnOnce sync.Once
}

// NewHeuristic constructs a best-effort heuristic matcher. Pass
// strict=true to require a known type tag in order to match.
func NewHeuristic(strict bool) *Heuristic {
	return &Heuristic{Strict: strict}
}

func (h *Heuristic) Match(typeTag string, hasTypeTag bool, typeCondition string) (bool, error) {
	if hasTypeTag {
		return typeTag == typeCondition, nil
	}

	if h.Strict {
		return false, nil
	}

	h.warnOnce.Do(func() {
		slog.Warn("fragment: heuristic matcher best-effort match on entity with no type tag",
			"typeCondition", typeCondition)
	})

	return true, nil
}

// Explicit is seeded with an explicit possible-types table mapping a
// type condition (interface or union name) to the set of concrete type
// tags that satisfy it. Concrete-to-concrete matches (typeTag ==
// typeCondition) always succeed without consulting the table.
type Explicit struct {
	mu    sync.RWMutex
	ready bool
	table map[string]map[string]bool // condition -> set of concrete tags
}

// NewExplicit constructs an Explicit matcher with an empty table; call
// Load before using it.
func NewExplicit() *Explicit {
	return &Explicit{table: make(map[string]map[string]bool)}
}

// Load seeds (or replaces) the possible-types table. possibleTypes maps
// each type condition (interface/union name) directly to its possible
// concrete type tags, or to other conditions to form a chain; chains are
// resolved at match time, and cycles are tolerated (ignored) during
// traversal.
func (e *Explicit) Load(possibleTypes map[string][]string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	table := make(map[string]map[string]bool, len(possibleTypes))
	for cond, types := range possibleTypes {
		set := make(map[string]bool, len(types))
		for _, t := range types {
			set[t] = true
		}
		table[cond] = set
	}
	e.table = table
	e.ready = true
}

func (e *Explicit) Match(typeTag string, hasTypeTag bool, typeCondition string) (bool, error) {
	if hasTypeTag && typeTag == typeCondition {
		return true, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.ready {
		return false, ErrNotReady
	}

	if !hasTypeTag {
		return false, nil
	}

	visited := make(map[string]bool)

	return e.satisfies(typeCondition, typeTag, visited), nil
}

// satisfies walks the possible-types table looking for a path from cond
// to tag, following chains of conditions, ignoring cycles.
func (e *Explicit) satisfies(cond, tag string, visited map[string]bool) bool {
	if visited[cond] {
		return false
	}
	visited[cond] = true

	members, ok := e.table[cond]
	if !ok {
		return false
	}
	if members[tag] {
		return true
	}

	for member := range members {
		if _, isChain := e.table[member]; isChain {
			if e.satisfies(member, tag, visited) {
				return true
			}
		}
	}

	return false
}
