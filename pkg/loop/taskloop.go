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
	"sync"
	"time"

	"github.com/xmreur/Fluxa/internal/log"
)

var (
	ErrQueueFull = errors.New("task queue is full")
	ErrStopped   = errors.New("task loop stopped")
)

// Task is a unit of background work. A returned error is logged and dropped.
type Task func(ctx context.Context) error

type job struct {
	name string
	run  Task
}

// TaskLoop runs queued tasks one at a time on a single goroutine.
type TaskLoop struct {
	log   *log.Logger
	tasks chan job
	mu    sync.Mutex

	running      bool
	stopped      bool
	stopCh       chan struct{}
	doneCh       chan struct{}
	drainTimeout time.Duration
}

// NewTaskLoop creates a loop with the given queue size. The loop does not run
// until Start is called; queued tasks wait for it.
func NewTaskLoop(queueSize int) *TaskLoop {
	if queueSize <= 0 {
		queueSize = 100
	}
	return &TaskLoop{
		log:          log.GetLogger("task-loop"),
		tasks:        make(chan job, queueSize),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		drainTimeout: 5 * time.Second,
	}
}

// AddTask blocks until the task is queued, ctx ends or the loop stops.
func (l *TaskLoop) AddTask(ctx context.Context, name string, task Task) error {
	select {
	case <-l.stopCh:
		return ErrStopped
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return ErrStopped
	case l.tasks <- job{name: name, run: task}:
		return nil
	}
}

// TryAddTask queues the task or fails immediately when the queue is full.
func (l *TaskLoop) TryAddTask(name string, task Task) error {
	select {
	case <-l.stopCh:
		return ErrStopped
	default:
	}
	select {
	case l.tasks <- job{name: name, run: task}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the worker. Cancelling ctx stops the loop like Stop does.
func (l *TaskLoop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running || l.stopped {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	go func() {
		defer close(l.doneCh)
		for {
			select {
			case <-l.stopCh:
				l.drain()
				return
			case <-ctx.Done():
				l.drain()
				return
			case j := <-l.tasks:
				l.exec(ctx, j)
			}
		}
	}()
}

func (l *TaskLoop) exec(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorf("task %s panicked: %v", j.name, r)
		}
	}()
	if err := j.run(ctx); err != nil {
		l.log.Error("task failed", err, "task", j.name)
	}
}

// drain runs whatever is still queued, bounded by drainTimeout.
func (l *TaskLoop) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), l.drainTimeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			if n := len(l.tasks); n > 0 {
				l.log.Warningf("dropping %d queued tasks on shutdown", n)
			}
			return
		case j := <-l.tasks:
			l.exec(ctx, j)
		default:
			return
		}
	}
}

// Stop stops accepting tasks, runs the queued ones and waits for the worker to exit.
func (l *TaskLoop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	wasRunning := l.running
	close(l.stopCh)
	l.mu.Unlock()

	if wasRunning {
		<-l.doneCh
	}
}

func (l *TaskLoop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running && !l.stopped
}

// QueuedTasksCount returns the number of tasks waiting to run.
func (l *TaskLoop) QueuedTasksCount() int {
	return len(l.tasks)
}
