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

// Package snapshotcache pushes and pulls a serialized entitystore
// snapshot (as produced by graphcache.Cache.Extract and consumed by
// graphcache.Cache.Restore) to a shared remote cache, for warm-starting
// a new process from another process's cache rather than from nothing.
//
// This is a transport for the extract/restore pair the cache already
// exposes, not a new persistence guarantee: a Backend is free to evict
// or expire a pushed snapshot at any time, and Adapter never retries a
// write that the caller didn't ask it to retry.
package snapshotcache

import "context"

// Backend is one interchangeable remote store a snapshot can round-trip
// through. ValkeyBackend and RedisBackend are the two provided
// implementations, each against a different client library.
type Backend interface {
	// Push stores data under key, overwriting whatever was there.
	Push(ctx context.Context, key string, data []byte) error
	// Pull retrieves the bytes last pushed under key. It returns
	// ErrSnapshotNotFound when key has never been pushed (or has
	// expired).
	Pull(ctx context.Context, key string) ([]byte, error)
}
