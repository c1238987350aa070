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

import "github.com/GoogleChromeLabs/graphcache/entitystore"

// ResolverKey identifies a field resolver override by the parent
// entity's declared type tag and the field's schema name.
type ResolverKey struct {
	TypeTag string
	Field   string
}

// Resolver overrides the stored value for (parentTypeTag, fieldName),
// given the parent entity's record and the field's resolved arguments.
// Returning ok=false falls back to the normal store lookup. A resolver
// may return a reference value to redirect the read to a different
// entity already present in the store.
type Resolver func(parent entitystore.Record, args map[string]any) (entitystore.Value, bool)
