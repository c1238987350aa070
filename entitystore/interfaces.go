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

// Reader is the read side of a store view: the base Store, or an
// optimistic overlay composing several of them.
type Reader interface {
	Get(memo any, id string) (Record, bool)
}

// ReadWriter is a full store view: writable by the normalization writer,
// readable by the executor. *Store satisfies it directly; the
// optimistic package's per-layer overlays satisfy it by delegating
// reads down the stack.
type ReadWriter interface {
	Reader
	Set(id string, record Record)
	Delete(id string)
}
