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

import "sync"

// DependencyTracker is the default Tracker: an explicit (memo key →
// set of entity IDs read) bi-map, invalidated on writes. It is what
// lets the executor return the identical cached object for repeated
// reads that touch no changed entity, and drop the memo the moment one
// of its dependencies is written.
type DependencyTracker struct {
	mu        sync.Mutex
	forward   map[any]map[string]bool // memo -> entity IDs it read
	reverse   map[string]map[any]bool // entity ID -> memos that read it
	onInvalid func(memo any)
}

// NewDependencyTracker builds a tracker. onInvalid is called (outside
// the tracker's lock) once per memo key the moment one of its
// dependencies is written or deleted; the executor uses this to evict
// its memoization cache entry.
func NewDependencyTracker(onInvalid func(memo any)) *DependencyTracker {
	return &DependencyTracker{
		forward:   make(map[any]map[string]bool),
		reverse:   make(map[string]map[any]bool),
		onInvalid: onInvalid,
	}
}

func (t *DependencyTracker) RecordRead(memo any, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids, ok := t.forward[memo]
	if !ok {
		ids = make(map[string]bool)
		t.forward[memo] = ids
	}
	ids[id] = true

	memos, ok := t.reverse[id]
	if !ok {
		memos = make(map[any]bool)
		t.reverse[id] = memos
	}
	memos[memo] = true
}

func (t *DependencyTracker) Invalidate(id string) {
	t.mu.Lock()
	memos := t.reverse[id]
	delete(t.reverse, id)
	for memo := range memos {
		ids := t.forward[memo]
		delete(ids, id)
		if len(ids) == 0 {
			delete(t.forward, memo)
		}
	}
	t.mu.Unlock()

	if t.onInvalid == nil {
		return
	}
	for memo := range memos {
		t.onInvalid(memo)
	}
}

// Forget drops a memo key's dependency edges without invoking
// onInvalid, for when the executor evicts an entry on its own (e.g. an
// explicit cache-clear) rather than because a dependency changed.
func (t *DependencyTracker) Forget(memo any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := t.forward[memo]
	delete(t.forward, memo)
	for id := range ids {
		memos := t.reverse[id]
		delete(memos, memo)
		if len(memos) == 0 {
			delete(t.reverse, id)
		}
	}
}
