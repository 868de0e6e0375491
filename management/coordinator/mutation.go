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

// Package coordinator runs every collaborative mutation through one protocol:
// precondition, per-entity guard, optimistic apply, remote call, revert on
// failure and a refresh of the canonical state.
package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

type State int32

const (
	StateIdle State = iota
	StatePending
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// ErrMutationReused is returned when a Mutation value is run a second time.
var ErrMutationReused = errors.New("mutation already ran")

// Mutation describes one change. Only Remote is required.
type Mutation struct {
	// Kind labels metrics and logs, e.g. "member.role".
	Kind string
	// Key identifies the mutated entity for the in-flight guard.
	Key string

	// Precondition runs before anything else, outside the guard. A plain
	// error is reported as PermissionDenied; classified errors keep their
	// kind. State it reads may change before Remote runs, so Remote must
	// re-read anything its write depends on.
	Precondition func(ctx context.Context) error
	// Apply changes local state optimistically, Revert undoes it.
	Apply  func()
	Revert func()
	// Remote performs the change in the store while the guard is held.
	Remote func(ctx context.Context) error
	// Refresh reloads the canonical state. It runs after every attempt that
	// reached the remote call.
	Refresh func(ctx context.Context) error

	started atomic.Bool
	state   atomic.Int32
}

// State returns where the mutation is in its lifecycle.
func (m *Mutation) State() State {
	return State(m.state.Load())
}

type Coordinator struct {
	log   *log.Logger
	guard Locker
}

// New returns a coordinator guarded by locker, an in-process one when nil.
func New(locker Locker) *Coordinator {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &Coordinator{
		log:   log.GetLogger("coordinator"),
		guard: locker,
	}
}

// Run executes m. The returned error is nil only when the remote call and the
// refresh both succeeded.
func (c *Coordinator) Run(ctx context.Context, m *Mutation) (err error) {
	if !m.started.CompareAndSwap(false, true) {
		return ErrMutationReused
	}
	start := time.Now()
	defer func() {
		observe(m.Kind, outcomeOf(m, err), time.Since(start))
	}()

	if m.Precondition != nil {
		if err := m.Precondition(ctx); err != nil {
			if fxerrors.KindOf(err) == fxerrors.KindUnknown {
				return fxerrors.Denied("%s", err.Error())
			}
			return err
		}
	}

	release, ok, err := c.guard.Acquire(ctx, m.Key)
	if err != nil {
		return fxerrors.Remote(err)
	}
	if !ok {
		c.log.Verbosef("mutation %s on %s rejected, another one is pending", m.Kind, m.Key)
		return fxerrors.ErrConcurrentMutation
	}
	defer release()

	applied := false
	if m.Apply != nil {
		m.Apply()
		applied = true
	}

	m.state.Store(int32(StatePending))
	remoteErr := m.Remote(ctx)
	if remoteErr != nil {
		if applied && m.Revert != nil {
			m.Revert()
		}
		m.state.Store(int32(StateRolledBack))
		c.log.Warn("mutation rolled back", "kind", m.Kind, "key", m.Key, "err", remoteErr)
		remoteErr = fxerrors.Remote(remoteErr)
	} else {
		m.state.Store(int32(StateCommitted))
	}

	if m.Refresh != nil {
		if refreshErr := m.Refresh(ctx); refreshErr != nil {
			c.log.Error("refresh after mutation failed", refreshErr, "kind", m.Kind, "key", m.Key)
			if remoteErr == nil {
				return fxerrors.Remote(refreshErr)
			}
		}
	}
	return remoteErr
}

func outcomeOf(m *Mutation, err error) string {
	switch m.State() {
	case StateCommitted:
		if err != nil {
			return "refresh_failed"
		}
		return "committed"
	case StateRolledBack:
		if fxerrors.IsKind(err, fxerrors.KindPartialFailure) {
			return "partial"
		}
		return "rolled_back"
	default:
		if fxerrors.IsKind(err, fxerrors.KindConcurrentMutation) {
			return "concurrent"
		}
		return "rejected"
	}
}
