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

package optimistic

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GoogleChromeLabs/graphcache/entitystore"
)

// ErrLayerExists is returned by AddLayer when name is already in use.
var ErrLayerExists = errors.New("optimistic: layer name already in use")

// Apply is the set of writes a layer performs, expressed against the
// ReadWriter the stack hands it — typically by driving a
// normalize.Writer bound to rw. It is recorded and re-invoked whenever
// a lower layer is removed, so the layer's effect is always the result
// of replaying its own writes against the current state of the layers
// beneath it, not a frozen diff.
type Apply func(rw entitystore.ReadWriter) error

// Stack composes named optimistic layers above a base store.
type Stack struct {
	mu     sync.Mutex
	base   *entitystore.Store
	order  []string
	ops    map[string]Apply
	layers map[string]*layerStore
}

// NewStack constructs a Stack with no layers, reading straight through
// to base until one is added.
func NewStack(base *entitystore.Store) *Stack {
	return &Stack{
		base:   base,
		ops:    make(map[string]Apply),
		layers: make(map[string]*layerStore),
	}
}

// AddLayer pushes a new named layer on top of the stack and runs apply
// against it immediately. If apply returns an error, the layer is not
// added and the stack is left exactly as it was (mirroring the base
// writer's no-partial-apply guarantee).
func (s *Stack) AddLayer(name string, apply Apply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.layers[name]; exists {
		return fmt.Errorf("%w: %q", ErrLayerExists, name)
	}

	below := s.topLocked()
	l := newLayerStore(below)
	if err := apply(l); err != nil {
		return err
	}

	s.ops[name] = apply
	s.order = append(s.order, name)
	s.layers[name] = l

	return nil
}

// RemoveLayer drops the named layer and rebuilds every layer above
// where it was by replaying their recorded Apply functions, in their
// original push order, against the base. A view with layers [A, B, C]
// after RemoveLayer("B") equals applying A then C to the base — not
// the stack with B's patches merely erased from it. Removing a name
// that isn't present is a no-op.
func (s *Stack) RemoveLayer(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ops[name]; !ok {
		return nil
	}

	delete(s.ops, name)
	order := make([]string, 0, len(s.order)-1)
	for _, n := range s.order {
		if n != name {
			order = append(order, n)
		}
	}
	s.order = order

	return s.rebuildLocked()
}

func (s *Stack) rebuildLocked() error {
	var below entitystore.ReadWriter = s.base
	layers := make(map[string]*layerStore, len(s.order))
	for _, name := range s.order {
		l := newLayerStore(below)
		if err := s.ops[name](l); err != nil {
			return err
		}
		layers[name] = l
		below = l
	}
	s.layers = layers

	return nil
}

func (s *Stack) topLocked() entitystore.ReadWriter {
	if len(s.order) == 0 {
		return s.base
	}

	return s.layers[s.order[len(s.order)-1]]
}

// Get performs a composite read: the topmost layer that has touched id
// wins, falling through toward the base.
func (s *Stack) Get(memo any, id string) (entitystore.Record, bool) {
	s.mu.Lock()
	top := s.topLocked()
	s.mu.Unlock()

	return top.Get(memo, id)
}

// Names returns the active layer names, bottom-to-top.
func (s *Stack) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.order))
	copy(out, s.order)

	return out
}

// HasLayer reports whether name is currently on the stack.
func (s *Stack) HasLayer(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.ops[name]

	return ok
}

// Clear drops every layer, leaving the stack reading straight through to
// base again.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.ops = make(map[string]Apply)
	s.layers = make(map[string]*layerStore)
}

// Snapshot returns a composite view of every entity touched by base or
// any active layer, as seen through the top of the stack — the same
// view Get would produce for each ID. Useful for extracting the
// optimistic-inclusive state of the cache.
func (s *Stack) Snapshot() map[string]entitystore.Record {
	s.mu.Lock()
	top := s.topLocked()
	ids := make(map[string]bool)
	for id := range s.base.Snapshot() {
		ids[id] = true
	}
	for _, l := range s.layers {
		for id := range l.records {
			ids[id] = true
		}
	}
	s.mu.Unlock()

	out := make(map[string]entitystore.Record, len(ids))
	for id := range ids {
		if rec, ok := top.Get(nil, id); ok {
			out[id] = rec.Clone()
		}
	}

	return out
}
