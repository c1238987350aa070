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

// Package optimistic stacks named overlay stores above a base
// entitystore.Store: a composite
// read consults the topmost layer first and falls through toward the
// base, and removing a layer re-applies the surviving layers' original
// writes in order rather than erasing the removed layer in place.
package optimistic

import "github.com/GoogleChromeLabs/graphcache/entitystore"

// layerStore is one overlay frame: a sparse patch of records and
// tombstones above whatever ReadWriter sits below it (the next layer
// down, or the base store).
type layerStore struct {
	records    map[string]entitystore.Record
	tombstones map[string]bool
	below      entitystore.ReadWriter
}

func newLayerStore(below entitystore.ReadWriter) *layerStore {
	return &layerStore{
		records:    make(map[string]entitystore.Record),
		tombstones: make(map[string]bool),
		below:      below,
	}
}

func (l *layerStore) Get(memo any, id string) (entitystore.Record, bool) {
	if l.tombstones[id] {
		return nil, false
	}
	if rec, ok := l.records[id]; ok {
		return rec, true
	}

	return l.below.Get(memo, id)
}

func (l *layerStore) Set(id string, record entitystore.Record) {
	delete(l.tombstones, id)
	l.records[id] = record
}

func (l *layerStore) Delete(id string) {
	delete(l.records, id)
	l.tombstones[id] = true
}
