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
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/coordinator"
	"github.com/xmreur/Fluxa/management/dto"
	"github.com/xmreur/Fluxa/management/membership"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/notify"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/management/vo"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"github.com/xmreur/Fluxa/pkg/utils"
)

// InviteView is one view's copy of a list of invites, keyed by invite id.
type InviteView = coordinator.Collection[*model.Invite]

type InviteService interface {
	Create(ctx context.Context, actor Actor, c model.Container, req *dto.InviteDto, view *InviteView) (*model.Invite, error)
	// ContainerInvites lists the pending invites of c.
	ContainerInvites(ctx context.Context, actor Actor, c model.Container) ([]vo.InviteVo, error)
	// Inbox lists the invites addressed to the actor's e-mail.
	Inbox(ctx context.Context, actor Actor) ([]vo.InviteVo, error)
	ContainerView(c model.Container) *InviteView
	InboxView(actor Actor) *InviteView

	// Accept consumes the invite and grants its role. A second accept fails with NotFound.
	Accept(ctx context.Context, actor Actor, inviteID string, view *InviteView) (*vo.AcceptVo, error)
	// Decline consumes the invite without membership. A missing invite is a no-op.
	Decline(ctx context.Context, actor Actor, inviteID string, view *InviteView) error
	// Revoke withdraws the invite. A missing invite is a no-op.
	Revoke(ctx context.Context, actor Actor, inviteID string, view *InviteView) error
}

// AcceptFailure is the cause carried by fxerrors.ErrInviteConsumed: the invite
// was deleted but the membership could not be created.
type AcceptFailure struct {
	InviteID string
	// Restored is set when the invite row could be put back, so the invitee can
	// simply retry.
	Restored bool
	Cause    error
}

func (e *AcceptFailure) Error() string {
	state := "not restored"
	if e.Restored {
		state = "restored"
	}
	return fmt.Sprintf("invite %s %s: %v", e.InviteID, state, e.Cause)
}

func (e *AcceptFailure) Unwrap() error { return e.Cause }

var (
	_ InviteService = (*inviteService)(nil)
)

type inviteService struct {
	log *log.Logger
	*base
}

func NewInviteService(b *base) InviteService {
	return &inviteService{
		log:  log.GetLogger("invite-service"),
		base: b,
	}
}

func (s *inviteService) ContainerView(c model.Container) *InviteView {
	return coordinator.NewCollection(
		func(inv *model.Invite) string { return inv.ID },
		func(ctx context.Context) ([]*model.Invite, error) {
			return s.repos.Invites.ListByContainers(ctx, c.Kind, []string{c.ID})
		},
	)
}

func (s *inviteService) InboxView(actor Actor) *InviteView {
	return coordinator.NewCollection(
		func(inv *model.Invite) string { return inv.ID },
		func(ctx context.Context) ([]*model.Invite, error) {
			return s.repos.Invites.ListByEmail(ctx, actor.Email)
		},
	)
}

func (s *inviteService) Create(ctx context.Context, actor Actor, c model.Container, req *dto.InviteDto, view *InviteView) (*model.Invite, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	email := model.NormalizeEmail(req.Email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, fxerrors.ErrInvalidEmail.Wrap(err)
	}
	role, err := membership.ParseRole(req.Role)
	if err != nil {
		return nil, fxerrors.ErrInvalidRole.Wrap(err)
	}
	if !membership.IsValidRole(role) {
		return nil, fxerrors.ErrInvalidRole
	}

	var (
		invite = model.NewInvite(c, email, role, actor.ID)
		name   string
	)
	err = s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "invite.create",
		Key:  "invite:" + c.String() + ":" + email,
		Precondition: func(ctx context.Context) error {
			var err error
			name, err = s.checkInvitable(ctx, actor, c, email)
			return err
		},
		Remote: func(ctx context.Context) error {
			return s.repos.Invites.Create(ctx, invite)
		},
		Refresh: reload(view),
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("%s invited %s to %s as %s", actor.ID, email, c, role)
	if s.mailer != nil {
		inviter := actor.Email
		if p, err := s.repos.Profiles.Get(ctx, actor.ID); err == nil && p.Username != "" {
			inviter = p.Username
		}
		s.mailer.InviteCreated(notify.InviteMail{Invite: invite, Name: name, Inviter: inviter})
	}
	return invite, nil
}

// checkInvitable enforces who may invite and whom, and returns the container name.
func (s *inviteService) checkInvitable(ctx context.Context, actor Actor, c model.Container, email string) (string, error) {
	var name, teamID string
	switch c.Kind {
	case model.ContainerTeam:
		t, err := s.team(ctx, c.ID)
		if err != nil {
			return "", err
		}
		name = t.Name
	case model.ContainerProject:
		p, err := s.project(ctx, c.ID)
		if err != nil {
			return "", err
		}
		name, teamID = p.Name, p.TeamID
	default:
		return "", fxerrors.Invalid("unknown container kind %q", c.Kind)
	}

	if _, err := s.roles.Require(ctx, c, actor.ID, membership.CanInvite, "invite members"); err != nil {
		return "", err
	}

	invitee, err := s.repos.Profiles.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", fxerrors.Remote(err)
	}
	if invitee != nil {
		role, err := s.roles.RoleOf(ctx, c, invitee.ID)
		if err != nil {
			return "", err
		}
		if role != model.RoleNone {
			return "", fxerrors.ErrMembershipExists
		}
	}
	if c.Kind == model.ContainerProject {
		if invitee == nil {
			return "", fxerrors.ErrNotTeamMember
		}
		teamRole, err := s.roles.RoleOf(ctx, model.TeamContainer(teamID), invitee.ID)
		if err != nil {
			return "", err
		}
		if teamRole == model.RoleNone {
			return "", fxerrors.ErrNotTeamMember
		}
	}

	if _, err := s.repos.Invites.FindPending(ctx, c, email); err == nil {
		return "", fxerrors.ErrInvitationExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", fxerrors.Remote(err)
	}
	return name, nil
}

func (s *inviteService) ContainerInvites(ctx context.Context, actor Actor, c model.Container) ([]vo.InviteVo, error) {
	if err := s.containerExists(ctx, c); err != nil {
		return nil, err
	}
	if _, err := s.roles.Require(ctx, c, actor.ID, membership.CanView, "view invites"); err != nil {
		return nil, err
	}
	invites, err := s.repos.Invites.ListByContainers(ctx, c.Kind, []string{c.ID})
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	return s.inviteVos(ctx, invites)
}

func (s *inviteService) Inbox(ctx context.Context, actor Actor) ([]vo.InviteVo, error) {
	invites, err := s.repos.Invites.ListByEmail(ctx, actor.Email)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	return s.inviteVos(ctx, invites)
}

// addressed loads the invite and checks it belongs to the actor.
func (s *inviteService) addressed(ctx context.Context, actor Actor, id string) (*model.Invite, error) {
	inv, err := s.repos.Invites.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fxerrors.ErrInviteNotFound
		}
		return nil, fxerrors.Remote(err)
	}
	if !strings.EqualFold(inv.InviteeEmail, model.NormalizeEmail(actor.Email)) {
		return nil, fxerrors.ErrInviteNotAddressed
	}
	return inv, nil
}

func optimisticRemove(view *InviteView, id string, undo *func()) func() {
	return func() {
		if view != nil {
			*undo = view.Remove(id)
		}
	}
}

func revert(undo *func()) func() {
	return func() {
		if *undo != nil {
			(*undo)()
		}
	}
}

func (s *inviteService) Accept(ctx context.Context, actor Actor, inviteID string, view *InviteView) (*vo.AcceptVo, error) {
	var (
		inv    *model.Invite
		result *vo.AcceptVo
		undo   func()
	)
	err := s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "invite.accept",
		Key:  "invite:" + inviteID,
		Precondition: func(ctx context.Context) error {
			var err error
			inv, err = s.addressed(ctx, actor, inviteID)
			return err
		},
		Apply:  optimisticRemove(view, inviteID, &undo),
		Revert: revert(&undo),
		Remote: func(ctx context.Context) error {
			var err error
			if s.stepwise {
				result, err = s.acceptStepwise(ctx, actor, inv)
			} else {
				result, err = s.acceptInTx(ctx, actor, inv)
			}
			return err
		},
		Refresh: reload(view),
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("%s accepted invite %s to %s as %s", actor.ID, inv.ID, result.Container, result.Role)
	return result, nil
}

// grant creates the membership an invite stands for. An existing membership is
// kept as it is.
func grant(ctx context.Context, set *repository.Set, userID string, inv *model.Invite) (*vo.AcceptVo, error) {
	c := inv.Container()
	if c.Kind == model.ContainerProject {
		p, err := set.Projects.Get(ctx, c.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fxerrors.ErrProjectNotFound
			}
			return nil, err
		}
		if _, err := set.Members.Get(ctx, model.TeamContainer(p.TeamID), userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fxerrors.ErrNotTeamMember
			}
			return nil, err
		}
	}

	err := set.Members.Create(ctx, c, userID, inv.Role)
	if errors.Is(err, fxerrors.ErrMembershipExists) {
		existing, err := set.Members.Get(ctx, c, userID)
		if err != nil {
			return nil, err
		}
		return &vo.AcceptVo{Container: c, Role: existing.Role, AlreadyMember: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &vo.AcceptVo{Container: c, Role: inv.Role}, nil
}

func (s *inviteService) acceptInTx(ctx context.Context, actor Actor, inv *model.Invite) (*vo.AcceptVo, error) {
	var result *vo.AcceptVo
	err := s.repos.Transaction(ctx, func(tx *repository.Set) error {
		deleted, err := tx.Invites.Delete(ctx, inv.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return fxerrors.ErrInviteNotFound
		}
		result, err = grant(ctx, tx, actor.ID, inv)
		return err
	})
	return result, err
}

// acceptStepwise deletes the invite, then grants membership. When the grant
// fails the invite is put back; the caller learns whether that worked.
func (s *inviteService) acceptStepwise(ctx context.Context, actor Actor, inv *model.Invite) (*vo.AcceptVo, error) {
	deleted, err := s.repos.Invites.Delete(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, fxerrors.ErrInviteNotFound
	}

	result, grantErr := grant(ctx, s.repos, actor.ID, inv)
	if grantErr == nil {
		return result, nil
	}

	restored := true
	if err := s.repos.Invites.Create(ctx, inv); err != nil {
		restored = false
		s.log.Error("restore consumed invite", err, "invite", inv.ID)
	}
	s.log.Warn("invite consumed without membership", "invite", inv.ID, "restored", restored, "err", grantErr)
	return nil, fxerrors.ErrInviteConsumed.Wrap(&AcceptFailure{InviteID: inv.ID, Restored: restored, Cause: grantErr})
}

func (s *inviteService) Decline(ctx context.Context, actor Actor, inviteID string, view *InviteView) error {
	var undo func()
	return s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "invite.decline",
		Key:  "invite:" + inviteID,
		Precondition: func(ctx context.Context) error {
			_, err := s.addressed(ctx, actor, inviteID)
			if errors.Is(err, fxerrors.ErrInviteNotFound) {
				return nil
			}
			return err
		},
		Apply:  optimisticRemove(view, inviteID, &undo),
		Revert: revert(&undo),
		Remote: func(ctx context.Context) error {
			_, err := s.repos.Invites.Delete(ctx, inviteID)
			return err
		},
		Refresh: reload(view),
	})
}

func (s *inviteService) Revoke(ctx context.Context, actor Actor, inviteID string, view *InviteView) error {
	var undo func()
	return s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "invite.revoke",
		Key:  "invite:" + inviteID,
		Precondition: func(ctx context.Context) error {
			inv, err := s.repos.Invites.Get(ctx, inviteID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fxerrors.Remote(err)
			}
			_, err = s.roles.Require(ctx, inv.Container(), actor.ID, membership.CanInvite, "revoke invites")
			return err
		},
		Apply:  optimisticRemove(view, inviteID, &undo),
		Revert: revert(&undo),
		Remote: func(ctx context.Context) error {
			_, err := s.repos.Invites.Delete(ctx, inviteID)
			return err
		},
		Refresh: reload(view),
	})
}
