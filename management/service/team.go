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
	"strings"

	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/coordinator"
	"github.com/xmreur/Fluxa/management/dto"
	"github.com/xmreur/Fluxa/management/membership"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/management/vo"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"github.com/xmreur/Fluxa/pkg/utils"
	"golang.org/x/sync/errgroup"
)

type TeamService interface {
	// Create stores the team and makes the actor its owner in one step.
	Create(ctx context.Context, actor Actor, req *dto.TeamDto) (*model.Team, error)
	// ListMine returns the actor's teams with members and pending invites.
	ListMine(ctx context.Context, actor Actor) ([]vo.TeamVo, error)
	Get(ctx context.Context, actor Actor, id string) (*vo.TeamVo, error)
	Update(ctx context.Context, actor Actor, id string, req *dto.TeamUpdateDto) (*model.Team, error)
}

var (
	_ TeamService = (*teamService)(nil)
)

type teamService struct {
	log *log.Logger
	*base
}

func NewTeamService(b *base) TeamService {
	return &teamService{
		log:  log.GetLogger("team-service"),
		base: b,
	}
}

func (t *teamService) Create(ctx context.Context, actor Actor, req *dto.TeamDto) (*model.Team, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	team := &model.Team{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   actor.ID,
	}
	err := t.atomically(ctx, func(tx *repository.Set) error {
		if err := tx.Teams.Create(ctx, team); err != nil {
			return err
		}
		if err := tx.Members.Create(ctx, model.TeamContainer(team.ID), actor.ID, model.RoleOwner); err != nil {
			if t.stepwise {
				return t.undoCreate(ctx, tx.Teams.Delete, team.ID, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fxerrors.Remote(err)
	}

	t.log.Infof("team %s created by %s", team.ID, actor.ID)
	return team, nil
}

// undoCreate compensates a creation whose owner membership failed.
func (b *base) undoCreate(ctx context.Context, del func(context.Context, ...repository.Scope) (int64, error), id string, cause error) error {
	if _, err := del(ctx, repository.WithID(id)); err != nil {
		return fxerrors.ErrCreationIncomplete.Wrap(err)
	}
	return fxerrors.ErrCreationIncomplete.Wrap(cause)
}

func (t *teamService) teamVo(ctx context.Context, team *model.Team, role model.Role) (*vo.TeamVo, error) {
	c := model.TeamContainer(team.ID)
	v := &vo.TeamVo{Team: team, Role: role}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		members, err := t.memberVos(ctx, c)
		v.Members = members
		return err
	})
	eg.Go(func() error {
		invites, err := t.repos.Invites.ListByContainers(ctx, c.Kind, []string{c.ID})
		if err != nil {
			return fxerrors.Remote(err)
		}
		v.Invites, err = t.inviteVos(ctx, invites)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return v, nil
}

func (t *teamService) ListMine(ctx context.Context, actor Actor) ([]vo.TeamVo, error) {
	ids, err := t.roles.ContainersOf(ctx, model.ContainerTeam, actor.ID)
	if err != nil {
		return nil, err
	}
	teams, err := t.repos.Teams.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}

	out := make([]vo.TeamVo, len(teams))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, team := range teams {
		eg.Go(func() error {
			role, err := t.roles.RoleOf(egCtx, model.TeamContainer(team.ID), actor.ID)
			if err != nil {
				return err
			}
			v, err := t.teamVo(egCtx, team, role)
			if err != nil {
				return err
			}
			out[i] = *v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *teamService) Get(ctx context.Context, actor Actor, id string) (*vo.TeamVo, error) {
	team, err := t.team(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := t.roles.Require(ctx, model.TeamContainer(id), actor.ID, membership.CanView, "view this team")
	if err != nil {
		return nil, err
	}
	return t.teamVo(ctx, team, role)
}

func (t *teamService) Update(ctx context.Context, actor Actor, id string, req *dto.TeamUpdateDto) (*model.Team, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	values := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fxerrors.Invalid("name is required")
		}
		values["name"] = name
	}
	if req.Description != nil {
		values["description"] = strings.TrimSpace(*req.Description)
	}

	c := model.TeamContainer(id)
	err := t.coord.Run(ctx, &coordinator.Mutation{
		Kind: "team.update",
		Key:  c.String(),
		Precondition: func(ctx context.Context) error {
			if _, err := t.team(ctx, id); err != nil {
				return err
			}
			_, err := t.roles.Require(ctx, c, actor.ID, membership.CanEditContainer, "edit this team")
			return err
		},
		Remote: func(ctx context.Context) error {
			if len(values) == 0 {
				return nil
			}
			_, err := t.repos.Teams.Updates(ctx, values, repository.WithID(id))
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return t.team(ctx, id)
}
