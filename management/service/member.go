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

	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/coordinator"
	"github.com/xmreur/Fluxa/management/membership"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/management/vo"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

// MemberView is one view's copy of a container's memberships, keyed by user id.
type MemberView = coordinator.Collection[*model.Membership]

type MemberService interface {
	// List renders the members of c. Any member may list.
	List(ctx context.Context, actor Actor, c model.Container) ([]vo.MemberVo, error)
	// NewView returns an unloaded view over the memberships of c.
	NewView(c model.Container) *MemberView
	// ChangeRole sets the role of userID in c. Owner only; owner is never a target.
	ChangeRole(ctx context.Context, actor Actor, c model.Container, userID, role string, view *MemberView) error
	// Remove drops userID from c. Removing a team member also drops their
	// memberships in the team's projects.
	Remove(ctx context.Context, actor Actor, c model.Container, userID string, view *MemberView) error
}

var (
	_ MemberService = (*memberService)(nil)
)

type memberService struct {
	log *log.Logger
	*base
}

func NewMemberService(b *base) MemberService {
	return &memberService{
		log:  log.GetLogger("member-service"),
		base: b,
	}
}

func (s *memberService) List(ctx context.Context, actor Actor, c model.Container) ([]vo.MemberVo, error) {
	if err := s.containerExists(ctx, c); err != nil {
		return nil, err
	}
	if _, err := s.roles.Require(ctx, c, actor.ID, membership.CanView, "view members"); err != nil {
		return nil, err
	}
	return s.memberVos(ctx, c)
}

func (s *memberService) NewView(c model.Container) *MemberView {
	return coordinator.NewCollection(
		func(m *model.Membership) string { return m.UserID },
		func(ctx context.Context) ([]*model.Membership, error) {
			return s.repos.Members.List(ctx, c)
		},
	)
}

func memberKey(c model.Container, userID string) string {
	return "member:" + c.String() + ":" + userID
}

func (s *memberService) target(ctx context.Context, c model.Container, userID string) (*model.Membership, error) {
	m, err := s.repos.Members.Get(ctx, c, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fxerrors.ErrMemberNotFound
		}
		return nil, fxerrors.Remote(err)
	}
	return m, nil
}

func (s *memberService) ChangeRole(ctx context.Context, actor Actor, c model.Container, userID, roleName string, view *MemberView) error {
	role, err := membership.ParseRole(roleName)
	if err != nil {
		return fxerrors.ErrInvalidRole.Wrap(err)
	}
	if !membership.IsValidRole(role) {
		return fxerrors.ErrInvalidRole
	}

	var undo func()
	return s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "member.role",
		Key:  memberKey(c, userID),
		Precondition: func(ctx context.Context) error {
			if _, err := s.roles.Require(ctx, c, actor.ID, membership.CanManageRoles, "change roles"); err != nil {
				return err
			}
			target, err := s.target(ctx, c, userID)
			if err != nil {
				return err
			}
			if target.Role == model.RoleOwner {
				return fxerrors.ErrOwnerRoleImmutable
			}
			return nil
		},
		Apply: func() {
			if view == nil {
				return
			}
			if cur, ok := view.Get(userID); ok {
				next := *cur
				next.Role = role
				undo = view.Put(&next)
			}
		},
		Revert: func() {
			if undo != nil {
				undo()
			}
		},
		Remote: func(ctx context.Context) error {
			n, err := s.repos.Members.UpdateRole(ctx, c, userID, role)
			if err != nil {
				return err
			}
			if n == 0 {
				return fxerrors.ErrMemberNotFound
			}
			s.log.Infof("%s set role of %s in %s to %s", actor.ID, userID, c, role)
			return nil
		},
		Refresh: reload(view),
	})
}

func (s *memberService) Remove(ctx context.Context, actor Actor, c model.Container, userID string, view *MemberView) error {
	var undo func()
	return s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "member.remove",
		Key:  memberKey(c, userID),
		Precondition: func(ctx context.Context) error {
			acting, err := s.roles.RoleOf(ctx, c, actor.ID)
			if err != nil {
				return err
			}
			if !membership.CanManageMembers(acting) {
				return fxerrors.Denied("your role (%s) cannot remove members", acting)
			}
			target, err := s.target(ctx, c, userID)
			if err != nil {
				return err
			}
			if target.Role == model.RoleOwner {
				return fxerrors.ErrCannotRemoveOwner
			}
			if !membership.CanRemoveMember(acting, target.Role) {
				return fxerrors.Denied("only the owner can remove members")
			}
			return nil
		},
		Apply: func() {
			if view != nil {
				undo = view.Remove(userID)
			}
		},
		Revert: func() {
			if undo != nil {
				undo()
			}
		},
		Remote: func(ctx context.Context) error {
			return s.atomically(ctx, func(tx *repository.Set) error {
				n, err := tx.Members.Delete(ctx, c, userID)
				if err != nil {
					return err
				}
				if n == 0 {
					return fxerrors.ErrMemberNotFound
				}
				if c.Kind == model.ContainerTeam {
					// project members must stay team members
					if _, err := tx.Members.DeleteProjectsOfTeam(ctx, c.ID, userID); err != nil {
						return err
					}
				}
				s.log.Infof("%s removed %s from %s", actor.ID, userID, c)
				return nil
			})
		},
		Refresh: reload(view),
	})
}
