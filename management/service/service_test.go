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

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/xmreur/Fluxa/management/auth"
	"github.com/xmreur/Fluxa/management/coordinator"
	"github.com/xmreur/Fluxa/management/database"
	"github.com/xmreur/Fluxa/management/dto"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/management/storage"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"gorm.io/gorm"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	repos    *repository.Set
	locker   coordinator.Locker
	fs       afero.Fs
	provider *auth.LocalProvider
	svc      *Services
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		repos:    repository.NewSet(db),
		locker:   coordinator.NewMemoryLocker(),
		fs:       afero.NewMemMapFs(),
		provider: auth.NewLocalProvider(db, "test-secret", time.Hour),
	}
	f.svc = New(Deps{
		Repos:       f.repos,
		Coordinator: coordinator.New(f.locker),
		Bucket:      storage.NewFSBucket(f.fs, "http://localhost/storage"),
		Provider:    f.provider,
	}, opts...)
	return f
}

// user stores a profile and returns it as an actor.
func (f *fixture) user(name string) Actor {
	f.t.Helper()
	a := Actor{ID: name, Email: name + "@example.com"}
	if err := f.repos.Profiles.Create(f.ctx, &model.Profile{ID: a.ID, Email: a.Email, Username: name}); err != nil {
		f.t.Fatalf("create profile %s: %v", name, err)
	}
	return a
}

func (f *fixture) team(owner Actor, name string) *model.Team {
	f.t.Helper()
	team, err := f.svc.Teams.Create(f.ctx, owner, &dto.TeamDto{Name: name})
	if err != nil {
		f.t.Fatalf("create team: %v", err)
	}
	return team
}

func (f *fixture) project(owner Actor, teamID, name string) *model.Project {
	f.t.Helper()
	p, err := f.svc.Projects.Create(f.ctx, owner, &dto.ProjectDto{TeamID: teamID, Name: name})
	if err != nil {
		f.t.Fatalf("create project: %v", err)
	}
	return p
}

// join invites and accepts in one go.
func (f *fixture) join(inviter, invitee Actor, c model.Container, role string) {
	f.t.Helper()
	inv, err := f.svc.Invites.Create(f.ctx, inviter, c, &dto.InviteDto{Email: invitee.Email, Role: role}, nil)
	if err != nil {
		f.t.Fatalf("invite %s: %v", invitee.ID, err)
	}
	if _, err := f.svc.Invites.Accept(f.ctx, invitee, inv.ID, nil); err != nil {
		f.t.Fatalf("accept %s: %v", invitee.ID, err)
	}
}

func (f *fixture) role(c model.Container, userID string) model.Role {
	f.t.Helper()
	m, err := f.repos.Members.Get(f.ctx, c, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.RoleNone
	}
	if err != nil {
		f.t.Fatal(err)
	}
	return m.Role
}

func TestInviteAcceptDemote(t *testing.T) {
	f := newFixture(t)
	owner, bob, carol := f.user("owner"), f.user("bob"), f.user("carol")
	team := f.team(owner, "Core")
	c := model.TeamContainer(team.ID)

	inbox := f.svc.Invites.InboxView(bob)
	if err := inbox.Reload(f.ctx); err != nil {
		t.Fatal(err)
	}
	if inbox.Len() != 0 {
		t.Fatalf("inbox before invite = %d", inbox.Len())
	}

	inv, err := f.svc.Invites.Create(f.ctx, owner, c, &dto.InviteDto{Email: bob.Email, Role: "admin"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := inbox.Reload(f.ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := inbox.Get(inv.ID); !ok {
		t.Fatal("invite missing from bob's inbox")
	}

	res, err := f.svc.Invites.Accept(f.ctx, bob, inv.ID, inbox)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Role != model.RoleAdmin || res.AlreadyMember {
		t.Fatalf("accept result = %+v", res)
	}
	if inbox.Len() != 0 {
		t.Fatalf("inbox after accept = %d", inbox.Len())
	}

	view := f.svc.Members.NewView(c)
	if err := f.svc.Members.ChangeRole(f.ctx, owner, c, bob.ID, "member", view); err != nil {
		t.Fatalf("demote: %v", err)
	}
	if got := f.role(c, bob.ID); got != model.RoleMember {
		t.Fatalf("bob role = %s", got)
	}
	m, ok := view.Get(bob.ID)
	if !ok || m.Role != model.RoleMember {
		t.Fatalf("view after demote = %+v, %v", m, ok)
	}

	_, err = f.svc.Invites.Create(f.ctx, bob, c, &dto.InviteDto{Email: carol.Email, Role: "member"}, nil)
	if !fxerrors.IsKind(err, fxerrors.KindPermissionDenied) {
		t.Fatalf("bob invite err = %v", err)
	}
	pending, err := f.repos.Invites.ListByContainers(f.ctx, model.ContainerTeam, []string{team.ID})
	if err != nil || len(pending) != 0 {
		t.Fatalf("pending invites = %d, %v", len(pending), err)
	}
}

func TestAcceptIsConsumedOnce(t *testing.T) {
	f := newFixture(t)
	owner, bob := f.user("owner"), f.user("bob")
	team := f.team(owner, "Core")

	inv, err := f.svc.Invites.Create(f.ctx, owner, model.TeamContainer(team.ID), &dto.InviteDto{Email: bob.Email, Role: "member"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Invites.Accept(f.ctx, bob, inv.ID, nil); err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.Invites.Accept(f.ctx, bob, inv.ID, nil)
	if !errors.Is(err, fxerrors.ErrInviteNotFound) {
		t.Fatalf("second accept err = %v", err)
	}
	if got := f.role(model.TeamContainer(team.ID), bob.ID); got != model.RoleMember {
		t.Fatalf("role after double accept = %s", got)
	}

	t.Run("decline of a consumed invite is a no-op", func(t *testing.T) {
		if err := f.svc.Invites.Decline(f.ctx, bob, inv.ID, nil); err != nil {
			t.Fatalf("decline: %v", err)
		}
	})

	t.Run("invite addressed to someone else", func(t *testing.T) {
		carol, dave := f.user("carol"), f.user("dave")
		inv, err := f.svc.Invites.Create(f.ctx, owner, model.TeamContainer(team.ID), &dto.InviteDto{Email: carol.Email, Role: "member"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.svc.Invites.Accept(f.ctx, dave, inv.ID, nil); !errors.Is(err, fxerrors.ErrInviteNotAddressed) {
			t.Fatalf("accept by dave err = %v", err)
		}
	})
}

func TestMembershipIsUnique(t *testing.T) {
	f := newFixture(t)
	owner, bob := f.user("owner"), f.user("bob")
	team := f.team(owner, "Core")
	c := model.TeamContainer(team.ID)
	f.join(owner, bob, c, "member")

	t.Run("existing member cannot be invited", func(t *testing.T) {
		_, err := f.svc.Invites.Create(f.ctx, owner, c, &dto.InviteDto{Email: bob.Email, Role: "admin"}, nil)
		if !errors.Is(err, fxerrors.ErrMembershipExists) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("accept after joining keeps the existing role", func(t *testing.T) {
		carol := f.user("carol")
		inv, err := f.svc.Invites.Create(f.ctx, owner, c, &dto.InviteDto{Email: carol.Email, Role: "admin"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.repos.Members.Create(f.ctx, c, carol.ID, model.RoleMember); err != nil {
			t.Fatal(err)
		}
		res, err := f.svc.Invites.Accept(f.ctx, carol, inv.ID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !res.AlreadyMember || res.Role != model.RoleMember {
			t.Fatalf("result = %+v", res)
		}
		members, err := f.repos.Members.List(f.ctx, c)
		if err != nil {
			t.Fatal(err)
		}
		count := 0
		for _, m := range members {
			if m.UserID == carol.ID {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("carol has %d memberships", count)
		}
	})

	t.Run("duplicate pending invite", func(t *testing.T) {
		dave := f.user("dave")
		req := &dto.InviteDto{Email: dave.Email, Role: "member"}
		if _, err := f.svc.Invites.Create(f.ctx, owner, c, req, nil); err != nil {
			t.Fatal(err)
		}
		if _, err := f.svc.Invites.Create(f.ctx, owner, c, req, nil); !errors.Is(err, fxerrors.ErrInvitationExists) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestRoleRules(t *testing.T) {
	f := newFixture(t)
	owner, admin, member := f.user("owner"), f.user("admin"), f.user("member")
	team := f.team(owner, "Core")
	c := model.TeamContainer(team.ID)
	f.join(owner, admin, c, "admin")
	f.join(owner, member, c, "member")

	tests := []struct {
		name string
		run  func() error
		want error
		kind fxerrors.Kind
	}{
		{
			name: "member cannot invite",
			run: func() error {
				_, err := f.svc.Invites.Create(f.ctx, member, c, &dto.InviteDto{Email: "x@example.com", Role: "member"}, nil)
				return err
			},
			kind: fxerrors.KindPermissionDenied,
		},
		{
			name: "admin cannot change roles",
			run:  func() error { return f.svc.Members.ChangeRole(f.ctx, admin, c, member.ID, "admin", nil) },
			kind: fxerrors.KindPermissionDenied,
		},
		{
			name: "owner role cannot be assigned",
			run:  func() error { return f.svc.Members.ChangeRole(f.ctx, owner, c, member.ID, "owner", nil) },
			want: fxerrors.ErrInvalidRole,
		},
		{
			name: "unknown role",
			run:  func() error { return f.svc.Members.ChangeRole(f.ctx, owner, c, member.ID, "superuser", nil) },
			want: fxerrors.ErrInvalidRole,
		},
		{
			name: "owner cannot be demoted",
			run:  func() error { return f.svc.Members.ChangeRole(f.ctx, owner, c, owner.ID, "admin", nil) },
			want: fxerrors.ErrOwnerRoleImmutable,
		},
		{
			name: "owner cannot be removed",
			run:  func() error { return f.svc.Members.Remove(f.ctx, owner, c, owner.ID, nil) },
			want: fxerrors.ErrCannotRemoveOwner,
		},
		{
			name: "admin cannot remove members",
			run:  func() error { return f.svc.Members.Remove(f.ctx, admin, c, member.ID, nil) },
			kind: fxerrors.KindPermissionDenied,
		},
		{
			name: "outsider cannot change roles",
			run: func() error {
				return f.svc.Members.ChangeRole(f.ctx, Actor{ID: "nobody"}, c, member.ID, "admin", nil)
			},
			kind: fxerrors.KindPermissionDenied,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.want == nil && !fxerrors.IsKind(err, tt.kind) {
				t.Fatalf("err = %v, want kind %s", err, tt.kind)
			}
		})
	}

	if got := f.role(c, member.ID); got != model.RoleMember {
		t.Fatalf("member role changed to %s", got)
	}
	if got := f.role(c, owner.ID); got != model.RoleOwner {
		t.Fatalf("owner role changed to %s", got)
	}
}

func TestRemoveTeamMemberLeavesProjects(t *testing.T) {
	f := newFixture(t)
	owner, bob := f.user("owner"), f.user("bob")
	team := f.team(owner, "Core")
	project := f.project(owner, team.ID, "Website")
	f.join(owner, bob, model.TeamContainer(team.ID), "member")
	f.join(owner, bob, model.ProjectContainer(project.ID), "member")

	view := f.svc.Members.NewView(model.TeamContainer(team.ID))
	if err := f.svc.Members.Remove(f.ctx, owner, model.TeamContainer(team.ID), bob.ID, view); err != nil {
		t.Fatal(err)
	}
	if _, ok := view.Get(bob.ID); ok {
		t.Fatal("bob still in the view")
	}
	if got := f.role(model.ProjectContainer(project.ID), bob.ID); got != model.RoleNone {
		t.Fatalf("project role after team removal = %s", got)
	}
}

func TestProjectInviteRequiresTeamMembership(t *testing.T) {
	f := newFixture(t)
	owner, bob := f.user("owner"), f.user("bob")
	team := f.team(owner, "Core")
	project := f.project(owner, team.ID, "Website")

	_, err := f.svc.Invites.Create(f.ctx, owner, model.ProjectContainer(project.ID), &dto.InviteDto{Email: bob.Email, Role: "member"}, nil)
	if !errors.Is(err, fxerrors.ErrNotTeamMember) {
		t.Fatalf("err = %v", err)
	}
}

func TestConcurrentMutationRejected(t *testing.T) {
	f := newFixture(t)
	owner, bob := f.user("owner"), f.user("bob")
	team := f.team(owner, "Core")
	c := model.TeamContainer(team.ID)
	f.join(owner, bob, c, "member")

	release, ok, err := f.locker.Acquire(f.ctx, memberKey(c, bob.ID))
	if err != nil || !ok {
		t.Fatalf("acquire = %v, %v", ok, err)
	}
	err = f.svc.Members.ChangeRole(f.ctx, owner, c, bob.ID, "admin", nil)
	if !errors.Is(err, fxerrors.ErrConcurrentMutation) {
		t.Fatalf("err = %v", err)
	}
	release()

	if err := f.svc.Members.ChangeRole(f.ctx, owner, c, bob.ID, "admin", nil); err != nil {
		t.Fatalf("after release: %v", err)
	}
}

func TestStepwiseAcceptRestoresInvite(t *testing.T) {
	f := newFixture(t, WithStepwiseWrites())
	owner, bob := f.user("owner"), f.user("bob")
	team := f.team(owner, "Core")

	inv, err := f.svc.Invites.Create(f.ctx, owner, model.TeamContainer(team.ID), &dto.InviteDto{Email: bob.Email, Role: "member"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.db.Migrator().DropTable(&model.TeamMember{}); err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Invites.Accept(f.ctx, bob, inv.ID, nil)
	if !errors.Is(err, fxerrors.ErrInviteConsumed) {
		t.Fatalf("err = %v", err)
	}
	var failure *AcceptFailure
	if !errors.As(err, &failure) || !failure.Restored || failure.InviteID != inv.ID {
		t.Fatalf("failure = %+v", failure)
	}
	if _, err := f.repos.Invites.Get(f.ctx, inv.ID); err != nil {
		t.Fatalf("invite not restored: %v", err)
	}
}

func TestCreateWithoutOwnerMembership(t *testing.T) {
	t.Run("transaction rolls back", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user("owner")
		if err := f.db.Migrator().DropTable(&model.TeamMember{}); err != nil {
			t.Fatal(err)
		}
		_, err := f.svc.Teams.Create(f.ctx, owner, &dto.TeamDto{Name: "Core"})
		if !fxerrors.IsKind(err, fxerrors.KindRemoteFailure) {
			t.Fatalf("err = %v", err)
		}
		if n, _ := f.repos.Teams.Count(f.ctx); n != 0 {
			t.Fatalf("teams = %d", n)
		}
	})

	t.Run("stepwise compensates", func(t *testing.T) {
		f := newFixture(t, WithStepwiseWrites())
		owner := f.user("owner")
		if err := f.db.Migrator().DropTable(&model.TeamMember{}); err != nil {
			t.Fatal(err)
		}
		_, err := f.svc.Teams.Create(f.ctx, owner, &dto.TeamDto{Name: "Core"})
		if !errors.Is(err, fxerrors.ErrCreationIncomplete) {
			t.Fatalf("err = %v", err)
		}
		if n, _ := f.repos.Teams.Count(f.ctx); n != 0 {
			t.Fatalf("teams = %d", n)
		}
	})
}

func TestProjectVisibility(t *testing.T) {
	f := newFixture(t)
	owner, bob, eve := f.user("owner"), f.user("bob"), f.user("eve")
	team := f.team(owner, "Core")
	project := f.project(owner, team.ID, "Website")
	f.join(owner, bob, model.TeamContainer(team.ID), "member")

	detail, err := f.svc.Projects.Get(f.ctx, bob, project.ID)
	if err != nil {
		t.Fatalf("team member read: %v", err)
	}
	if detail.Role != model.RoleNone || len(detail.Invites) != 0 {
		t.Fatalf("detail = %+v", detail.ProjectVo)
	}
	if _, err := f.svc.Projects.Get(f.ctx, eve, project.ID); !fxerrors.IsKind(err, fxerrors.KindPermissionDenied) {
		t.Fatalf("outsider err = %v", err)
	}

	list, err := f.svc.Projects.List(f.ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Role != model.RoleOwner {
		t.Fatalf("owner projects = %+v", list)
	}

	newName := "Web"
	if _, err := f.svc.Projects.Update(f.ctx, bob, project.ID, &dto.ProjectUpdateDto{Name: &newName}); !fxerrors.IsKind(err, fxerrors.KindPermissionDenied) {
		t.Fatalf("bob update err = %v", err)
	}
	updated, err := f.svc.Projects.Update(f.ctx, owner, project.ID, &dto.ProjectUpdateDto{Name: &newName})
	if err != nil || updated.Name != "Web" {
		t.Fatalf("owner update = %+v, %v", updated, err)
	}
}
