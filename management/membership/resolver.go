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

package membership

import (
	"context"
	"errors"

	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

// Resolver looks up roles from the store.
type Resolver struct {
	members repository.MemberRepository
}

func NewResolver(members repository.MemberRepository) *Resolver {
	return &Resolver{members: members}
}

// RoleOf returns the user's role in c, RoleNone when there is no membership.
func (r *Resolver) RoleOf(ctx context.Context, c model.Container, userID string) (model.Role, error) {
	if userID == "" || c.ID == "" {
		return model.RoleNone, nil
	}
	m, err := r.members.Get(ctx, c, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.RoleNone, nil
		}
		return model.RoleNone, fxerrors.Remote(err)
	}
	return m.Role, nil
}

// Require returns the user's role in c when allowed accepts it, PermissionDenied otherwise.
func (r *Resolver) Require(ctx context.Context, c model.Container, userID string, allowed func(model.Role) bool, action string) (model.Role, error) {
	role, err := r.RoleOf(ctx, c, userID)
	if err != nil {
		return model.RoleNone, err
	}
	if !allowed(role) {
		if role == model.RoleNone {
			return role, fxerrors.Denied("you are not a member of this %s", c.Kind)
		}
		return role, fxerrors.Denied("your role (%s) cannot %s", role, action)
	}
	return role, nil
}

// ContainersOf lists the ids of every team or project the user belongs to.
func (r *Resolver) ContainersOf(ctx context.Context, kind model.ContainerKind, userID string) ([]string, error) {
	ids, err := r.members.ContainerIDs(ctx, kind, userID)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	return ids, nil
}
