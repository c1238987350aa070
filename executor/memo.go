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
	"encoding/json"

	"github.com/GoogleChromeLabs/graphcache/querykey"
)

// memoKey is the composite memoization key from the cache's component
// design: selection-set identity, entity ID, and variables identity.
// The matcher and field-resolver set are implicitly part of the key
// because they're fixed for the lifetime of one Executor, which owns
// its own memo cache.
type memoKey struct {
	sel  *querykey.Key
	id   string
	vars string
}

// memoEntry is the cached projection for one (selection set, entity)
// pair.
type memoEntry struct {
	data     map[string]any
	complete bool
	missing  []string
}

// ancestorKey identifies one step of the recursion's ancestor path, for
// cycle detection: the same entity visited again under the same
// selection set.
type ancestorKey struct {
	sel *querykey.Key
	id  string
}

// varsIdentity builds a stable identity string for a variables map.
// Unlike fieldkey's storage-key encoding, this is used only for
// in-process memoization and has no external contract, so sorting map
// keys (as encoding/json does for map values) is acceptable.
func varsIdentity(vars map[string]any) string {
	if len(vars) == 0 {
		return ""
	}
	b, err := json.Marshal(vars)
	if err != nil {
		// Variables that don't marshal cleanly (e.g. a channel, a func or
		// a NaN float) just disable memoization for this call rather
		// than failing the read: readLevel never stores an entry under
		// this identity.
		return "\x00unstable"
	}

	return string(b)
}
