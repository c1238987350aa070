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
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/valkey-io/valkey-go"
)

// ValkeyBackend pushes and pulls snapshots through a valkey client.
type ValkeyBackend struct {
	keyPrefix string
	client    valkey.Client
	ttl       time.Duration
}

// NewValkeyBackend dials addr (host:port), retrying with an exponential
// backoff until maxElapsed has passed.
func NewValkeyBackend(keyPrefix, addr string, ttl, maxElapsed time.Duration) (*ValkeyBackend, error) {
	operation := func() (valkey.Client, error) {
		return valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	}

	client, err := backoff.Retry(context.Background(), operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
	)
	if err != nil {
		return nil, fmt.Errorf("snapshotcache: dialing valkey: %w", err)
	}

	return &ValkeyBackend{keyPrefix: keyPrefix, client: client, ttl: ttl}, nil
}

func (b *ValkeyBackend) cacheKey(key string) string {
	return fmt.Sprintf("%s-%s", b.keyPrefix, key)
}

// Push implements Backend.
func (b *ValkeyBackend) Push(ctx context.Context, key string, data []byte) error {
	return b.client.Do(ctx, b.client.B().Set().Key(b.cacheKey(key)).
		Value(valkey.BinaryString(data)).Ex(b.ttl).Build()).Error()
}

// Pull implements Backend.
func (b *ValkeyBackend) Pull(ctx context.Context, key string) ([]byte, error) {
	msg, err := b.client.Do(ctx, b.client.B().Get().Key(b.cacheKey(key)).Build()).ToMessage()
	if errors.Is(err, valkey.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	return msg.AsBytes()
}
