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

package snapshotcache

import "errors"

// ErrSnapshotNotFound is returned by Adapter.Pull (and by a Backend's
// Pull) when key has never been pushed, matching the "not found" shape
// of a cache miss rather than a transport failure.
var ErrSnapshotNotFound = errors.New("snapshotcache: no snapshot stored under this key")
