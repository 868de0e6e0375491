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
	"testing"

	"github.com/xmreur/Fluxa/management/database"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

var allRoles = []model.Role{model.RoleOwner, model.RoleAdmin, model.RoleMember, model.RoleNone, model.Role("superuser")}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		pred func(model.Role) bool
		want map[model.Role]bool
	}{
		{"CanManageMembers", CanManageMembers, map[model.Role]bool{model.RoleOwner: true, model.RoleAdmin: true}},
		{"CanManageRoles", CanManageRoles, map[model.Role]bool{model.RoleOwner: true}},
		{"CanInvite", CanInvite, map[model.Role]bool{model.RoleOwner: true, model.RoleAdmin: true}},
		{"CanEditContainer", CanEditContainer, map[model.Role]bool{model.RoleOwner: true, model.RoleAdmin: true}},
		{"CanView", CanView, map[model.Role]bool{model.RoleOwner: true, model.RoleAdmin: true, model.RoleMember: true}},
		{"IsValidRole", IsValidRole, map[model.Role]bool{model.RoleAdmin: true, model.RoleMember: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range allRoles {
				if got := tt.pred(r); got != tt.want[r] {
					t.Errorf("%s(%q) = %v, want %v", tt.name, r, got, tt.want[r])
				}
			}
		})
	}
}

// members and non-members never pass a management predicate
func TestRoleDenial(t *testing.T) {
	for _, r := range []model.Role{model.RoleMember, model.RoleNone} {
		if CanManageMembers(r) || CanManageRoles(r) || CanInvite(r) {
			t.Fatalf("role %q passed a management predicate", r)
		}
		for _, target := range allRoles {
			if CanRemoveMember(r, target) {
				t.Fatalf("role %q may remove %q", r, target)
			}
		}
	}
}

func TestCanRemoveMember(t *testing.T) {
	for _, target := range allRoles {
		want := target != model.RoleOwner
		if got := CanRemoveMember(model.RoleOwner, target); got != want {
			t.Errorf("owner removes %q = %v", target, got)
		}
		if CanRemoveMember(model.RoleAdmin, target) {
			t.Errorf("admin may remove %q", target)
		}
	}
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]model.Role{"owner": model.RoleOwner, " Admin ": model.RoleAdmin, "member": model.RoleMember} {
		got, err := ParseRole(in)
		if err != nil || got != want {
			t.Errorf("ParseRole(%q) = %q, %v", in, got, err)
		}
	}
	for _, in := range []string{"", "root", "viewer"} {
		_, err := ParseRole(in)
		if !fxerrors.IsKind(err, fxerrors.KindValidation) {
			t.Errorf("ParseRole(%q) err = %v", in, err)
		}
	}
}

func TestResolver(t *testing.T) {
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	members := repository.NewMemberRepository(db)
	ctx := context.Background()
	team := model.TeamContainer("t1")
	if err := members.Create(ctx, team, "alice", model.RoleOwner); err != nil {
		t.Fatal(err)
	}
	if err := members.Create(ctx, team, "bob", model.RoleMember); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(members)

	role, err := r.RoleOf(ctx, team, "carol")
	if err != nil || role != model.RoleNone {
		t.Fatalf("non-member role = %q, %v", role, err)
	}

	if _, err := r.Require(ctx, team, "alice", CanManageRoles, "change roles"); err != nil {
		t.Fatalf("owner denied: %v", err)
	}
	_, err = r.Require(ctx, team, "bob", CanInvite, "invite")
	if !fxerrors.IsKind(err, fxerrors.KindPermissionDenied) {
		t.Fatalf("member invite err = %v", err)
	}

	ids, err := r.ContainersOf(ctx, model.ContainerTeam, "bob")
	if err != nil || len(ids) != 1 || ids[0] != "t1" {
		t.Fatalf("ContainersOf = %v, %v", ids, err)
	}
}
