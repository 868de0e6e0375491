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
	"github.com/xmreur/Fluxa/management/aggregate"
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

type ProjectService interface {
	// Create stores the project inside a team the actor belongs to and makes
	// the actor its owner in one step.
	Create(ctx context.Context, actor Actor, req *dto.ProjectDto) (*model.Project, error)
	// List returns the projects of the actor's teams with their progress.
	List(ctx context.Context, actor Actor) ([]vo.ProjectVo, error)
	Get(ctx context.Context, actor Actor, id string) (*vo.ProjectDetailVo, error)
	Update(ctx context.Context, actor Actor, id string, req *dto.ProjectUpdateDto) (*model.Project, error)
}

var (
	_ ProjectService = (*projectService)(nil)
)

type projectService struct {
	log *log.Logger
	*base
}

func NewProjectService(b *base) ProjectService {
	return &projectService{
		log:  log.GetLogger("project-service"),
		base: b,
	}
}

func (p *projectService) Create(ctx context.Context, actor Actor, req *dto.ProjectDto) (*model.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := p.team(ctx, req.TeamID); err != nil {
		return nil, err
	}
	if _, err := p.roles.Require(ctx, model.TeamContainer(req.TeamID), actor.ID, membership.CanView, "create projects"); err != nil {
		return nil, err
	}

	project := &model.Project{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		TeamID:      req.TeamID,
		CreatedBy:   actor.ID,
	}
	err := p.atomically(ctx, func(tx *repository.Set) error {
		if err := tx.Projects.Create(ctx, project); err != nil {
			return err
		}
		if err := tx.Members.Create(ctx, model.ProjectContainer(project.ID), actor.ID, model.RoleOwner); err != nil {
			if p.stepwise {
				return p.undoCreate(ctx, tx.Projects.Delete, project.ID, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fxerrors.Remote(err)
	}

	p.log.Infof("project %s created in team %s by %s", project.ID, project.TeamID, actor.ID)
	return project, nil
}

func (p *projectService) List(ctx context.Context, actor Actor) ([]vo.ProjectVo, error) {
	teamIDs, err := p.roles.ContainersOf(ctx, model.ContainerTeam, actor.ID)
	if err != nil {
		return nil, err
	}

	var (
		projects []*model.Project
		mine     []string
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		projects, err = p.repos.Projects.ListByTeams(egCtx, teamIDs)
		return err
	})
	eg.Go(func() error {
		var err error
		mine, err = p.repos.Members.ContainerIDs(egCtx, model.ContainerProject, actor.ID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fxerrors.Remote(err)
	}

	ids := make([]string, 0, len(projects))
	for _, pr := range projects {
		ids = append(ids, pr.ID)
	}
	issues, err := p.repos.Issues.ListByProjects(ctx, ids)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	byProject := aggregate.GroupByProject(issues)

	joined := make(map[string]bool, len(mine))
	for _, id := range mine {
		joined[id] = true
	}
	out := make([]vo.ProjectVo, 0, len(projects))
	for _, pr := range projects {
		role := model.RoleNone
		if joined[pr.ID] {
			if role, err = p.roles.RoleOf(ctx, model.ProjectContainer(pr.ID), actor.ID); err != nil {
				return nil, err
			}
		}
		out = append(out, vo.ProjectVo{Project: pr, Role: role, Stats: aggregate.StatsOf(byProject[pr.ID])})
	}
	return out, nil
}

func (p *projectService) Get(ctx context.Context, actor Actor, id string) (*vo.ProjectDetailVo, error) {
	project, role, err := p.readProject(ctx, actor.ID, id)
	if err != nil {
		return nil, err
	}
	if project.CreatedBy != "" {
		if creator, err := p.repos.Profiles.Get(ctx, project.CreatedBy); err == nil {
			project.Creator = creator
		}
	}

	c := model.ProjectContainer(id)
	v := &vo.ProjectDetailVo{ProjectVo: vo.ProjectVo{Project: project, Role: role}}
	var issues []*model.Issue

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		v.Members, err = p.memberVos(egCtx, c)
		return err
	})
	eg.Go(func() error {
		var err error
		if v.Labels, err = p.repos.Labels.ListByProjects(egCtx, []string{id}); err != nil {
			return fxerrors.Remote(err)
		}
		if issues, err = p.repos.Issues.ListByProjects(egCtx, []string{id}); err != nil {
			return fxerrors.Remote(err)
		}
		return nil
	})
	if membership.CanInvite(role) {
		eg.Go(func() error {
			invites, err := p.repos.Invites.ListByContainers(egCtx, c.Kind, []string{id})
			if err != nil {
				return fxerrors.Remote(err)
			}
			v.Invites, err = p.inviteVos(egCtx, invites)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	v.Stats = aggregate.StatsOf(issues)
	v.LabelCounts = aggregate.LabelCounts(v.Labels, issues)
	return v, nil
}

func (p *projectService) Update(ctx context.Context, actor Actor, id string, req *dto.ProjectUpdateDto) (*model.Project, error) {
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

	c := model.ProjectContainer(id)
	err := p.coord.Run(ctx, &coordinator.Mutation{
		Kind: "project.update",
		Key:  c.String(),
		Precondition: func(ctx context.Context) error {
			if _, err := p.project(ctx, id); err != nil {
				return err
			}
			_, err := p.roles.Require(ctx, c, actor.ID, membership.CanEditContainer, "edit this project")
			return err
		},
		Remote: func(ctx context.Context) error {
			if len(values) == 0 {
				return nil
			}
			_, err := p.repos.Projects.Updates(ctx, values, repository.WithID(id))
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return p.project(ctx, id)
}
