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

	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/aggregate"
	"github.com/xmreur/Fluxa/management/dto"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/management/vo"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"golang.org/x/sync/errgroup"
)

// recentIssues caps the issue list of the dashboard.
const recentIssues = 10

type DashboardService interface {
	// Stats counts the actor's teams and projects and the issues they created
	// or are assigned to. The issue list covers every project the actor has
	// joined and honours the label and title filters.
	Stats(ctx context.Context, actor Actor, filter *dto.IssueFilter) (*vo.DashboardVo, error)
}

var (
	_ DashboardService = (*dashboardService)(nil)
)

type dashboardService struct {
	log *log.Logger
	*base
}

func NewDashboardService(b *base) DashboardService {
	return &dashboardService{
		log:  log.GetLogger("dashboard-service"),
		base: b,
	}
}

func (d *dashboardService) Stats(ctx context.Context, actor Actor, filter *dto.IssueFilter) (*vo.DashboardVo, error) {
	if filter == nil {
		filter = &dto.IssueFilter{}
	}

	var (
		teamIDs, projectIDs []string
		mine                []*model.Issue
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		teamIDs, err = d.repos.Members.ContainerIDs(egCtx, model.ContainerTeam, actor.ID)
		return err
	})
	eg.Go(func() error {
		var err error
		projectIDs, err = d.repos.Members.ContainerIDs(egCtx, model.ContainerProject, actor.ID)
		return err
	})
	eg.Go(func() error {
		var err error
		mine, err = d.repos.Issues.ListForUser(egCtx, actor.ID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fxerrors.Remote(err)
	}

	var scopes []repository.Scope
	if filter.Search != "" {
		scopes = append(scopes, repository.WithKeyword(filter.Search, "title"))
	}
	projects, err := d.repos.Projects.ListByIDs(ctx, projectIDs)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	issues, err := d.repos.Issues.ListByProjects(ctx, projectIDs, append(scopes, repository.Preload("Assignee"))...)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	if filter.LabelID != "" {
		issues = aggregate.LabelFilter(issues, filter.LabelID)
	}

	byProject := aggregate.GroupByProject(issues)
	out := &vo.DashboardVo{
		DashboardStats: aggregate.Dashboard(len(teamIDs), len(projectIDs), mine),
		ProjectStats:   make([]vo.ProjectVo, 0, len(projects)),
	}
	for _, p := range projects {
		role, err := d.roles.RoleOf(ctx, model.ProjectContainer(p.ID), actor.ID)
		if err != nil {
			return nil, err
		}
		out.ProjectStats = append(out.ProjectStats, vo.ProjectVo{Project: p, Role: role, Stats: aggregate.StatsOf(byProject[p.ID])})
	}
	if len(issues) > recentIssues {
		issues = issues[:recentIssues]
	}
	out.RecentIssues = issues
	return out, nil
}
