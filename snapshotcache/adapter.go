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

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GoogleChromeLabs/graphcache/entitystore"
)

// Adapter serializes an entitystore snapshot to JSON and round-trips it
// through a Backend, so the warm-start pattern is: Pull on startup (if
// it misses, start from an empty Cache), Push after write-heavy
// periods or on a timer.
type Adapter struct {
	backend Backend
}

// New constructs an Adapter over backend.
func New(backend Backend) *Adapter {
	return &Adapter{backend: backend}
}

// Push serializes snapshot (as returned by graphcache.Cache.Extract)
// and stores it under key.
func (a *Adapter) Push(ctx context.Context, key string, snapshot map[string]entitystore.Record) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("snapshotcache: marshaling snapshot: %w", err)
	}

	return a.backend.Push(ctx, key, data)
}

// Pull retrieves and deserializes the snapshot last pushed under key,
// ready to pass to graphcache.Cache.Restore. It returns
// ErrSnapshotNotFound when nothing has been pushed under key.
func (a *Adapter) Pull(ctx context.Context, key string) (map[string]entitystore.Record, error) {
	data, err := a.backend.Pull(ctx, key)
	if err != nil {
		return nil, err
	}

	var snapshot map[string]entitystore.Record
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("snapshotcache: unmarshaling snapshot: %w", err)
	}

	return snapshot, nil
}
