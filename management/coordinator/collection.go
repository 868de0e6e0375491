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
)

// Collection is a view's local copy of one canonical collection, kept as a
// single map keyed by entity id plus the order it was loaded in.
type Collection[T any] struct {
	mu     sync.RWMutex
	keyOf  func(T) string
	load   func(ctx context.Context) ([]T, error)
	order  []string
	items  map[string]T
	loaded bool
}

func NewCollection[T any](keyOf func(T) string, load func(ctx context.Context) ([]T, error)) *Collection[T] {
	return &Collection[T]{
		keyOf: keyOf,
		load:  load,
		items: make(map[string]T),
	}
}

// Reload replaces the local state with the canonical one. On error the local
// state is left as it was.
func (c *Collection[T]) Reload(ctx context.Context) error {
	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	order := make([]string, 0, len(items))
	byKey := make(map[string]T, len(items))
	for _, it := range items {
		k := c.keyOf(it)
		if _, dup := byKey[k]; !dup {
			order = append(order, k)
		}
		byKey[k] = it
	}

	c.mu.Lock()
	c.order, c.items, c.loaded = order, byKey, true
	c.mu.Unlock()
	return nil
}

func (c *Collection[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Items returns the entities in load order.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.items[k])
	}
	return out
}

func (c *Collection[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Put inserts or replaces item and returns a function restoring the previous state.
func (c *Collection[T]) Put(item T) (undo func()) {
	key := c.keyOf(item)

	c.mu.Lock()
	prev, existed := c.items[key]
	c.items[key] = item
	if !existed {
		c.order = append(c.order, key)
	}
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if existed {
			c.items[key] = prev
			return
		}
		delete(c.items, key)
		c.order = removeKey(c.order, key)
	}
}

// Remove drops key and returns a function putting it back at its old position.
func (c *Collection[T]) Remove(key string) (undo func()) {
	c.mu.Lock()
	prev, existed := c.items[key]
	pos := -1
	if existed {
		delete(c.items, key)
		pos = indexOf(c.order, key)
		c.order = removeKey(c.order, key)
	}
	c.mu.Unlock()

	return func() {
		if !existed {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, back := c.items[key]; back {
			return
		}
		c.items[key] = prev
		if pos < 0 || pos > len(c.order) {
			pos = len(c.order)
		}
		c.order = append(c.order[:pos], append([]string{key}, c.order[pos:]...)...)
	}
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func removeKey(keys []string, key string) []string {
	i := indexOf(keys, key)
	if i < 0 {
		return keys
	}
	out := make([]string, 0, len(keys)-1)
	out = append(out, keys[:i]...)
	return append(out, keys[i+1:]...)
}
