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

package loop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestTaskLoop(t *testing.T) {
	t.Run("runs queued tasks in order and drains on stop", func(t *testing.T) {
		l := NewTaskLoop(10)
		ctx := context.Background()

		var order []int
		done := make(chan struct{})
		for i := 0; i < 5; i++ {
			i := i
			if err := l.AddTask(ctx, "append", func(ctx context.Context) error {
				order = append(order, i)
				if i == 4 {
					close(done)
				}
				return nil
			}); err != nil {
				t.Fatalf("AddTask %d: %v", i, err)
			}
		}

		l.Start(ctx)
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("tasks did not run")
		}
		l.Stop()

		for i, v := range order {
			if v != i {
				t.Fatalf("order = %v", order)
			}
		}
	})

	t.Run("failing and panicking tasks do not stop the loop", func(t *testing.T) {
		l := NewTaskLoop(10)
		var ran atomic.Int32

		_ = l.TryAddTask("fail", func(ctx context.Context) error { return errors.New("boom") })
		_ = l.TryAddTask("panic", func(ctx context.Context) error { panic("oops") })
		_ = l.TryAddTask("ok", func(ctx context.Context) error { ran.Add(1); return nil })

		l.Start(context.Background())
		l.Stop()

		if ran.Load() != 1 {
			t.Fatalf("ran = %d", ran.Load())
		}
	})

	t.Run("queue full", func(t *testing.T) {
		l := NewTaskLoop(1)
		noop := func(ctx context.Context) error { return nil }
		if err := l.TryAddTask("first", noop); err != nil {
			t.Fatal(err)
		}
		if err := l.TryAddTask("second", noop); !errors.Is(err, ErrQueueFull) {
			t.Fatalf("err = %v", err)
		}
		l.Stop()
	})

	t.Run("add after stop", func(t *testing.T) {
		l := NewTaskLoop(1)
		l.Start(context.Background())
		l.Stop()
		err := l.AddTask(context.Background(), "late", func(ctx context.Context) error { return nil })
		if !errors.Is(err, ErrStopped) {
			t.Fatalf("err = %v", err)
		}
		if l.IsRunning() {
			t.Fatal("loop still running")
		}
	})
}
