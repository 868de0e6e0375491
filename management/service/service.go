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
	"sort"

	"github.com/xmreur/Fluxa/management/aggregate"
	"github.com/xmreur/Fluxa/management/auth"
	"github.com/xmreur/Fluxa/management/coordinator"
	"github.com/xmreur/Fluxa/management/membership"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/notify"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/management/storage"
	"github.com/xmreur/Fluxa/management/vo"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

// Actor is the signed-in user a call is made on behalf of.
type Actor struct {
	ID    string
	Email string
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Repos       *repository.Set
	Coordinator *coordinator.Coordinator
	Notifier    *notify.Notifier
	Mailer      *notify.Mailer
	Bucket      storage.Bucket
	Provider    auth.Provider
}

type Option func(*base)

// WithStepwiseWrites runs multi-step writes one statement at a time with
// explicit compensation instead of inside a transaction, for stores that
// cannot span a transaction across the steps.
func WithStepwiseWrites() Option {
	return func(b *base) { b.stepwise = true }
}

// WithSearchMinLength overrides the shortest query that triggers a search.
func WithSearchMinLength(n int) Option {
	return func(b *base) { b.searchMinLength = n }
}

type base struct {
	repos    *repository.Set
	roles    *membership.Resolver
	coord    *coordinator.Coordinator
	notifier *notify.Notifier
	mailer   *notify.Mailer
	bucket   storage.Bucket
	provider auth.Provider

	stepwise        bool
	searchMinLength int
}

type Services struct {
	Teams         TeamService
	Projects      ProjectService
	Members       MemberService
	Invites       InviteService
	Labels        LabelService
	Issues        IssueService
	Notifications NotificationService
	Dashboard     DashboardService
	Profiles      ProfileService
	Search        *Searcher
}

func New(deps Deps, opts ...Option) *Services {
	coord := deps.Coordinator
	if coord == nil {
		coord = coordinator.New(nil)
	}
	b := &base{
		repos:    deps.Repos,
		roles:    membership.NewResolver(deps.Repos.Members),
		coord:    coord,
		notifier: deps.Notifier,
		mailer:   deps.Mailer,
		bucket:   deps.Bucket,
		provider: deps.Provider,
	}
	for _, opt := range opts {
		opt(b)
	}

	invites := NewInviteService(b)
	return &Services{
		Teams:         NewTeamService(b),
		Projects:      NewProjectService(b),
		Members:       NewMemberService(b),
		Invites:       invites,
		Labels:        NewLabelService(b),
		Issues:        NewIssueService(b),
		Notifications: NewNotificationService(b, invites),
		Dashboard:     NewDashboardService(b),
		Profiles:      NewProfileService(b),
		Search:        NewSearcher(b),
	}
}

// atomically runs fn inside one transaction, or directly when writes are stepwise.
// Code inside fn must only use the Set it is handed.
func (b *base) atomically(ctx context.Context, fn func(tx *repository.Set) error) error {
	if b.stepwise {
		return fn(b.repos)
	}
	return b.repos.Transaction(ctx, fn)
}

func (b *base) team(ctx context.Context, id string) (*model.Team, error) {
	t, err := b.repos.Teams.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fxerrors.ErrTeamNotFound
		}
		return nil, fxerrors.Remote(err)
	}
	return t, nil
}

func (b *base) project(ctx context.Context, id string) (*model.Project, error) {
	p, err := b.repos.Projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fxerrors.ErrProjectNotFound
		}
		return nil, fxerrors.Remote(err)
	}
	return p, nil
}

func (b *base) issue(ctx context.Context, id string) (*model.Issue, error) {
	i, err := b.repos.Issues.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fxerrors.ErrIssueNotFound
		}
		return nil, fxerrors.Remote(err)
	}
	return i, nil
}

// containerExists fails with NotFound for an unknown team or project.
func (b *base) containerExists(ctx context.Context, c model.Container) error {
	var err error
	switch c.Kind {
	case model.ContainerTeam:
		_, err = b.team(ctx, c.ID)
	case model.ContainerProject:
		_, err = b.project(ctx, c.ID)
	default:
		err = fxerrors.Invalid("unknown container kind %q", c.Kind)
	}
	return err
}

// readProject returns the project with the caller's role in it. Members of the
// owning team may read a project they have not joined; their role is RoleNone.
func (b *base) readProject(ctx context.Context, actorID, projectID string) (*model.Project, model.Role, error) {
	p, err := b.project(ctx, projectID)
	if err != nil {
		return nil, model.RoleNone, err
	}
	role, err := b.roles.RoleOf(ctx, model.ProjectContainer(p.ID), actorID)
	if err != nil {
		return nil, model.RoleNone, err
	}
	if membership.CanView(role) {
		return p, role, nil
	}
	teamRole, err := b.roles.RoleOf(ctx, model.TeamContainer(p.TeamID), actorID)
	if err != nil {
		return nil, model.RoleNone, err
	}
	if !membership.CanView(teamRole) {
		return nil, model.RoleNone, fxerrors.Denied("you are not a member of this project")
	}
	return p, model.RoleNone, nil
}

// visibleProjectIDs lists the projects of every team the user belongs to.
func (b *base) visibleProjectIDs(ctx context.Context, userID string) ([]string, error) {
	teamIDs, err := b.roles.ContainersOf(ctx, model.ContainerTeam, userID)
	if err != nil {
		return nil, err
	}
	projects, err := b.repos.Projects.ListByTeams(ctx, teamIDs)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// issuesOf loads the issues counted on a container's member cards.
func (b *base) issuesOf(ctx context.Context, c model.Container) ([]*model.Issue, error) {
	projectIDs := []string{c.ID}
	if c.Kind == model.ContainerTeam {
		projects, err := b.repos.Projects.ListByTeams(ctx, []string{c.ID})
		if err != nil {
			return nil, err
		}
		projectIDs = projectIDs[:0]
		for _, p := range projects {
			projectIDs = append(projectIDs, p.ID)
		}
	}
	return b.repos.Issues.ListByProjects(ctx, projectIDs)
}

// memberVos renders the members of c with their profiles and issue counts,
// owner first.
func (b *base) memberVos(ctx context.Context, c model.Container) ([]vo.MemberVo, error) {
	rows, err := b.repos.Members.List(ctx, c)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	ids := make([]string, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.UserID)
	}
	profiles, err := b.repos.Profiles.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	issues, err := b.issuesOf(ctx, c)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	idx := repository.ProfileIndex(profiles)
	counts := aggregate.IssueCountByUser(issues)

	out := make([]vo.MemberVo, 0, len(rows))
	for _, m := range rows {
		out = append(out, vo.MemberVo{
			UserID:     m.UserID,
			Role:       m.Role,
			Profile:    idx[m.UserID],
			IssueCount: counts[m.UserID],
			JoinedAt:   m.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return membership.Rank(out[i].Role) < membership.Rank(out[j].Role)
	})
	return out, nil
}

// inviteVos attaches container names and, when the invitee already has an
// account, their profile.
func (b *base) inviteVos(ctx context.Context, invites []*model.Invite) ([]vo.InviteVo, error) {
	var teamIDs, projectIDs, emails []string
	for _, inv := range invites {
		c := inv.Container()
		if c.Kind == model.ContainerTeam {
			teamIDs = append(teamIDs, c.ID)
		} else {
			projectIDs = append(projectIDs, c.ID)
		}
		emails = append(emails, inv.InviteeEmail)
	}

	names := make(map[string]string)
	if len(teamIDs) > 0 {
		teams, err := b.repos.Teams.ListByIDs(ctx, teamIDs)
		if err != nil {
			return nil, fxerrors.Remote(err)
		}
		for _, t := range teams {
			names[model.TeamContainer(t.ID).String()] = t.Name
		}
	}
	if len(projectIDs) > 0 {
		projects, err := b.repos.Projects.ListByIDs(ctx, projectIDs)
		if err != nil {
			return nil, fxerrors.Remote(err)
		}
		for _, p := range projects {
			names[model.ProjectContainer(p.ID).String()] = p.Name
		}
	}
	byEmail := make(map[string]*model.Profile)
	if len(emails) > 0 {
		profiles, err := b.repos.Profiles.ListByEmails(ctx, emails)
		if err != nil {
			return nil, fxerrors.Remote(err)
		}
		for _, p := range profiles {
			byEmail[p.Email] = p
		}
	}

	out := make([]vo.InviteVo, 0, len(invites))
	for _, inv := range invites {
		v := vo.NewInviteVo(inv)
		v.ContainerName = names[v.Container.String()]
		v.Invitee = byEmail[inv.InviteeEmail]
		out = append(out, v)
	}
	return out, nil
}

// reload refreshes a view when there is one.
func reload[T any](view *coordinator.Collection[T]) func(context.Context) error {
	if view == nil {
		return nil
	}
	return view.Reload
}
