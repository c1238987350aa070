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

// Package executor projects entity records back into response-shaped
// trees by walking a document's selection set against an
// entitystore.Store.
package executor

import "errors"

// ErrMissingField is returned when returnPartial is false and a
// selected field is absent from its entity's record, or the record
// itself is absent (including a dangling reference).
var ErrMissingField = errors.New("executor: missing field on required read")
