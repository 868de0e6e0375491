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

// Package membership decides who may do what inside a team or project.
// Every predicate denies RoleNone and any role outside the closed enumeration.
package membership

import (
	"strings"

	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

// ParseRole maps s onto the closed role enumeration. Unknown values fail with a
// validation error instead of being treated as a lesser role.
func ParseRole(s string) (model.Role, error) {
	switch model.Role(strings.ToLower(strings.TrimSpace(s))) {
	case model.RoleOwner:
		return model.RoleOwner, nil
	case model.RoleAdmin:
		return model.RoleAdmin, nil
	case model.RoleMember:
		return model.RoleMember, nil
	default:
		return model.RoleNone, fxerrors.Invalid("unknown role %q", s)
	}
}

// IsValidRole reports whether r may be handed out through an invite or a role edit.
// owner is never assignable.
func IsValidRole(r model.Role) bool {
	return r == model.RoleMember || r == model.RoleAdmin
}

func known(r model.Role) bool {
	return r == model.RoleOwner || r == model.RoleAdmin || r == model.RoleMember
}

// CanView: any membership.
func CanView(r model.Role) bool {
	return known(r)
}

func CanManageMembers(r model.Role) bool {
	return r == model.RoleOwner || r == model.RoleAdmin
}

// CanManageRoles is owner only.
func CanManageRoles(r model.Role) bool {
	return r == model.RoleOwner
}

// CanRemoveMember: only the owner removes, and never another owner.
func CanRemoveMember(acting, target model.Role) bool {
	return acting == model.RoleOwner && target != model.RoleOwner
}

func CanInvite(r model.Role) bool {
	return r == model.RoleOwner || r == model.RoleAdmin
}

// CanEditContainer covers container metadata and label management.
func CanEditContainer(r model.Role) bool {
	return r == model.RoleOwner || r == model.RoleAdmin
}

// Rank orders roles for display, owner first.
func Rank(r model.Role) int {
	switch r {
	case model.RoleOwner:
		return 0
	case model.RoleAdmin:
		return 1
	case model.RoleMember:
		return 2
	default:
		return 3
	}
}
