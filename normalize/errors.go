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

import "errors"

// ErrShapeMismatch is returned (in strict mode) or logged (otherwise)
// when a result value's shape does not match its selection: a scalar
// where a sub-selection was expected, a list element that isn't an
// object where one was expected, or an ID-less object overwriting a
// stable reference of the same declared type.
var ErrShapeMismatch = errors.New("normalize: schema-shape mismatch")
