// Copyright 2025 The Fluxa Authors, Inc.
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

package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/pkg/redis"
)

// Locker is the per-entity in-flight guard. Acquire never blocks on a held key:
// it reports ok=false and the caller rejects the mutation.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

type memoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker guards keys within this process.
func NewMemoryLocker() Locker {
	return &memoryLocker{held: make(map[string]struct{})}
}

func (l *memoryLocker) Acquire(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    *log.Logger
}

// NewRedisLocker guards keys across every instance sharing the Redis server.
// A crashed holder's key expires after ttl.
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisLocker{
		client: client,
		ttl:    ttl,
		prefix: "fluxa:mutation:",
		log:    log.GetLogger("redis-locker"),
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	full := l.prefix + key
	ok, err := l.client.TryLock(ctx, full, token, l.ttl)
	if err != nil || !ok {
		return nil, false, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be gone
			releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if _, err := l.client.Unlock(releaseCtx, full, token); err != nil {
				l.log.Error("release mutation lock", err, "key", full)
			}
		})
	}, true, nil
}
