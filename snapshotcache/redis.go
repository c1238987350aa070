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
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// RedisBackend pushes and pulls snapshots through a redigo connection
// pool, the second of the two interchangeable backends.
type RedisBackend struct {
	keyPrefix  string
	pool       *redis.Pool
	ttlSeconds int64
}

// NewRedisBackend dials addr (host:port) lazily through a pool of up to
// maxConnections idle connections.
func NewRedisBackend(keyPrefix, addr string, ttl time.Duration, maxConnections int) *RedisBackend {
	pool := &redis.Pool{
		MaxIdle: maxConnections,
		Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", addr) },
	}

	return &RedisBackend{keyPrefix: keyPrefix, pool: pool, ttlSeconds: int64(ttl.Seconds())}
}

func (b *RedisBackend) cacheKey(key string) string {
	return fmt.Sprintf("%s-%s", b.keyPrefix, key)
}

// Push implements Backend.
func (b *RedisBackend) Push(ctx context.Context, key string, data []byte) error {
	conn, err := b.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("SET", b.cacheKey(key), data, "EX", b.ttlSeconds)

	return err
}

// Pull implements Backend.
func (b *RedisBackend) Pull(ctx context.Context, key string) ([]byte, error) {
	conn, err := b.pool.GetContext(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	raw, err := conn.Do("GET", b.cacheKey(key))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrSnapshotNotFound
	}

	data, ok := raw.([]byte)
	if !ok {
		return nil, fmt.Errorf("snapshotcache: unexpected redis reply type %T", raw)
	}

	return data, nil
}
