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
	"strings"
	"time"

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
)

// IssueView is one view's copy of a project's issues.
type IssueView = coordinator.Collection[*model.Issue]

// VoteView is one view's copy of an issue's votes, keyed by voter.
type VoteView = coordinator.Collection[*model.Vote]

type IssueService interface {
	List(ctx context.Context, actor Actor, filter *dto.IssueFilter) (*vo.IssueListVo, error)
	NewView(projectID string) *IssueView
	Get(ctx context.Context, actor Actor, id string) (*vo.IssueDetailVo, error)
	// Create, Update and the comment and vote operations are open to every
	// project member. Delete is limited to the creator and project owners and admins.
	Create(ctx context.Context, actor Actor, req *dto.IssueDto, view *IssueView) (*model.Issue, error)
	Update(ctx context.Context, actor Actor, id string, req *dto.IssueUpdateDto, view *IssueView) (*model.Issue, error)
	Delete(ctx context.Context, actor Actor, id string, view *IssueView) error

	NewVoteView(issueID string) *VoteView
	// ToggleVote adds the actor's vote, or removes it when present.
	ToggleVote(ctx context.Context, actor Actor, issueID string, view *VoteView) (*vo.VoteVo, error)
	AddComment(ctx context.Context, actor Actor, issueID string, req *dto.CommentDto) (*model.Comment, error)
	// EditComment is open to the comment's author only.
	EditComment(ctx context.Context, actor Actor, commentID string, req *dto.CommentDto) (*model.Comment, error)
}

var (
	_ IssueService = (*issueService)(nil)
)

type issueService struct {
	log *log.Logger
	*base
}

func NewIssueService(b *base) IssueService {
	return &issueService{
		log:  log.GetLogger("issue-service"),
		base: b,
	}
}

func (s *issueService) List(ctx context.Context, actor Actor, filter *dto.IssueFilter) (*vo.IssueListVo, error) {
	if filter == nil {
		filter = &dto.IssueFilter{}
	}
	var scopes []repository.Scope
	if filter.Status != "" {
		if !model.IssueStatus(filter.Status).Valid() {
			return nil, fxerrors.Invalid("unknown status %q", filter.Status)
		}
		scopes = append(scopes, repository.WithEq("status", filter.Status))
	}
	if filter.Type != "" {
		if !model.IssueType(filter.Type).Valid() {
			return nil, fxerrors.Invalid("unknown issue type %q", filter.Type)
		}
		scopes = append(scopes, repository.WithEq("type", filter.Type))
	}
	if filter.Search != "" {
		scopes = append(scopes, repository.WithKeyword(filter.Search, "title", "description"))
	}

	var (
		issues []*model.Issue
		err    error
	)
	switch {
	case filter.ProjectID != "":
		if _, _, err := s.readProject(ctx, actor.ID, filter.ProjectID); err != nil {
			return nil, err
		}
		if filter.Mine {
			scopes = append(scopes, repository.WithProjectID(filter.ProjectID), repository.Preload("Labels"))
			issues, err = s.repos.Issues.ListForUser(ctx, actor.ID, scopes...)
		} else {
			issues, err = s.repos.Issues.ListByProjects(ctx, []string{filter.ProjectID}, scopes...)
		}
	case filter.Mine:
		issues, err = s.repos.Issues.ListForUser(ctx, actor.ID, append(scopes, repository.Preload("Labels"))...)
	default:
		var ids []string
		if ids, err = s.visibleProjectIDs(ctx, actor.ID); err != nil {
			return nil, err
		}
		issues, err = s.repos.Issues.ListByProjects(ctx, ids, scopes...)
	}
	if err != nil {
		return nil, fxerrors.Remote(err)
	}

	if filter.LabelID != "" {
		issues = aggregate.LabelFilter(issues, filter.LabelID)
	}
	solved := aggregate.CountSolved(issues)
	return &vo.IssueListVo{
		Issues:   issues,
		Total:    len(issues),
		Active:   aggregate.CountActive(issues),
		Solved:   solved,
		Progress: aggregate.ProgressPercent(len(issues), solved),
	}, nil
}

func (s *issueService) NewView(projectID string) *IssueView {
	return coordinator.NewCollection(
		func(i *model.Issue) string { return i.ID },
		func(ctx context.Context) ([]*model.Issue, error) {
			return s.repos.Issues.ListByProjects(ctx, []string{projectID})
		},
	)
}

func (s *issueService) Get(ctx context.Context, actor Actor, id string) (*vo.IssueDetailVo, error) {
	issue, err := s.repos.Issues.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fxerrors.ErrIssueNotFound
		}
		return nil, fxerrors.Remote(err)
	}
	_, role, err := s.readProject(ctx, actor.ID, issue.ProjectID)
	if err != nil {
		return nil, err
	}

	v := &vo.IssueDetailVo{Issue: issue, VoteCount: len(issue.Votes), Role: role}
	for _, vote := range issue.Votes {
		if vote.UserID == actor.ID {
			v.Voted = true
		}
	}
	return v, nil
}

// requireContributor allows project members only.
func (s *issueService) requireContributor(ctx context.Context, actor Actor, projectID string) (model.Role, error) {
	return s.roles.Require(ctx, model.ProjectContainer(projectID), actor.ID, membership.CanView, "work on issues")
}

// checkAssignee rejects assignees outside the project.
func (s *issueService) checkAssignee(ctx context.Context, projectID string, assignee *string) error {
	if assignee == nil || *assignee == "" {
		return nil
	}
	role, err := s.roles.RoleOf(ctx, model.ProjectContainer(projectID), *assignee)
	if err != nil {
		return err
	}
	if role == model.RoleNone {
		return fxerrors.Invalid("the assignee must be a member of the project")
	}
	return nil
}

func (s *issueService) checkLabels(ctx context.Context, projectID string, labelIDs []string) error {
	if len(labelIDs) == 0 {
		return nil
	}
	n, err := s.repos.Labels.Count(ctx, repository.WithIDs(labelIDs), repository.WithProjectID(projectID))
	if err != nil {
		return fxerrors.Remote(err)
	}
	if int(n) != len(uniq(labelIDs)) {
		return fxerrors.Invalid("every label must belong to the project")
	}
	return nil
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *issueService) Create(ctx context.Context, actor Actor, req *dto.IssueDto, view *IssueView) (*model.Issue, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	status := model.IssueStatus(req.Status)
	if status == "" {
		status = model.StatusTodo
	}
	var assignee *string
	if req.AssignedTo != nil && *req.AssignedTo != "" {
		assignee = req.AssignedTo
	}

	issue := &model.Issue{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Type:        model.IssueType(req.Type),
		Priority:    req.Priority,
		Status:      status,
		IsActive:    status.Active(),
		CreatedBy:   actor.ID,
		AssignedTo:  assignee,
	}
	labelIDs := uniq(req.LabelIDs)

	err := s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "issue.create",
		Key:  "issue-create:" + req.ProjectID + ":" + actor.ID + ":" + strings.ToLower(req.Title),
		Precondition: func(ctx context.Context) error {
			if _, err := s.project(ctx, req.ProjectID); err != nil {
				return err
			}
			if _, err := s.requireContributor(ctx, actor, req.ProjectID); err != nil {
				return err
			}
			if err := s.checkAssignee(ctx, req.ProjectID, assignee); err != nil {
				return err
			}
			return s.checkLabels(ctx, req.ProjectID, labelIDs)
		},
		Remote: func(ctx context.Context) error {
			return s.atomically(ctx, func(tx *repository.Set) error {
				if err := tx.Issues.Create(ctx, issue); err != nil {
					return err
				}
				for _, id := range labelIDs {
					if err := tx.Issues.AttachLabel(ctx, issue.ID, id); err != nil {
						return err
					}
				}
				return nil
			})
		},
		Refresh: reload(view),
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("issue %s created in %s by %s", issue.ID, issue.ProjectID, actor.ID)
	if s.notifier != nil {
		s.notifier.IssueAssigned(issue, actor.ID)
	}
	return s.issue(ctx, issue.ID)
}

func (s *issueService) Update(ctx context.Context, actor Actor, id string, req *dto.IssueUpdateDto, view *IssueView) (*model.Issue, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var (
		current  *model.Issue
		values   = issueChanges(req)
		reassign bool
		undo     func()
	)
	err := s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "issue.update",
		Key:  "issue:" + id,
		Precondition: func(ctx context.Context) error {
			var err error
			if current, err = s.issue(ctx, id); err != nil {
				return err
			}
			if _, err := s.requireContributor(ctx, actor, current.ProjectID); err != nil {
				return err
			}
			if req.AssignedTo != nil {
				if err := s.checkAssignee(ctx, current.ProjectID, req.AssignedTo); err != nil {
					return err
				}
				prev := ""
				if current.AssignedTo != nil {
					prev = *current.AssignedTo
				}
				reassign = *req.AssignedTo != "" && *req.AssignedTo != prev
			}
			return nil
		},
		Apply: func() {
			if view == nil {
				return
			}
			next := *current
			applyIssueChanges(&next, req)
			undo = view.Put(&next)
		},
		Revert: revert(&undo),
		Remote: func(ctx context.Context) error {
			if len(values) == 0 {
				return nil
			}
			n, err := s.repos.Issues.Updates(ctx, values, repository.WithID(id))
			if err != nil {
				return err
			}
			if n == 0 {
				return fxerrors.ErrIssueNotFound
			}
			return nil
		},
		Refresh: reload(view),
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.issue(ctx, id)
	if err != nil {
		return nil, err
	}
	if reassign && s.notifier != nil {
		s.notifier.IssueAssigned(updated, actor.ID)
	}
	return updated, nil
}

// issueChanges lists the columns an update writes. A status change always
// rewrites is_active with it.
func issueChanges(req *dto.IssueUpdateDto) map[string]any {
	values := map[string]any{}
	if req.Title != nil {
		values["title"] = *req.Title
	}
	if req.Description != nil {
		values["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Type != nil {
		values["type"] = *req.Type
	}
	if req.Priority != nil {
		values["priority"] = *req.Priority
	}
	if req.Status != nil {
		status := model.IssueStatus(*req.Status)
		values["status"] = status
		values["is_active"] = status.Active()
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			values["assigned_to"] = nil
		} else {
			values["assigned_to"] = *req.AssignedTo
		}
	}
	return values
}

func applyIssueChanges(i *model.Issue, req *dto.IssueUpdateDto) {
	if req.Title != nil {
		i.Title = *req.Title
	}
	if req.Description != nil {
		i.Description = strings.TrimSpace(*req.Description)
	}
	if req.Type != nil {
		i.Type = model.IssueType(*req.Type)
	}
	if req.Priority != nil {
		i.Priority = *req.Priority
	}
	if req.Status != nil {
		i.Status = model.IssueStatus(*req.Status)
		i.IsActive = i.Status.Active()
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			i.AssignedTo = nil
		} else {
			assignee := *req.AssignedTo
			i.AssignedTo = &assignee
		}
	}
}

func (s *issueService) Delete(ctx context.Context, actor Actor, id string, view *IssueView) error {
	var undo func()
	return s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "issue.delete",
		Key:  "issue:" + id,
		Precondition: func(ctx context.Context) error {
			current, err := s.issue(ctx, id)
			if err != nil {
				return err
			}
			role, err := s.requireContributor(ctx, actor, current.ProjectID)
			if err != nil {
				return err
			}
			if current.CreatedBy != actor.ID && !membership.CanEditContainer(role) {
				return fxerrors.Denied("only the creator or a project admin can delete this issue")
			}
			return nil
		},
		Apply: func() {
			if view != nil {
				undo = view.Remove(id)
			}
		},
		Revert: revert(&undo),
		Remote: func(ctx context.Context) error {
			return s.atomically(ctx, func(tx *repository.Set) error {
				if err := tx.Issues.ClearAssociations(ctx, id); err != nil {
					return err
				}
				_, err := tx.Issues.Delete(ctx, repository.WithID(id))
				return err
			})
		},
		Refresh: reload(view),
	})
}

func (s *issueService) NewVoteView(issueID string) *VoteView {
	return coordinator.NewCollection(
		func(v *model.Vote) string { return v.UserID },
		func(ctx context.Context) ([]*model.Vote, error) {
			return s.repos.Votes.Find(ctx, repository.WithEq("issue_id", issueID), repository.OrderBy("created_at", false))
		},
	)
}

func (s *issueService) ToggleVote(ctx context.Context, actor Actor, issueID string, view *VoteView) (*vo.VoteVo, error) {
	var (
		had  bool
		undo func()
	)
	err := s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "issue.vote",
		Key:  "vote:" + issueID + ":" + actor.ID,
		Precondition: func(ctx context.Context) error {
			issue, err := s.issue(ctx, issueID)
			if err != nil {
				return err
			}
			if _, err := s.requireContributor(ctx, actor, issue.ProjectID); err != nil {
				return err
			}
			if had, err = s.repos.Votes.Has(ctx, issueID, actor.ID); err != nil {
				return fxerrors.Remote(err)
			}
			return nil
		},
		Apply: func() {
			if view == nil {
				return
			}
			if had {
				undo = view.Remove(actor.ID)
			} else {
				undo = view.Put(&model.Vote{IssueID: issueID, UserID: actor.ID, CreatedAt: time.Now()})
			}
		},
		Revert: revert(&undo),
		Remote: func(ctx context.Context) error {
			// A toggle that finished after the precondition read flips the
			// direction; Refresh corrects the optimistic copy.
			now, err := s.repos.Votes.Has(ctx, issueID, actor.ID)
			if err != nil {
				return err
			}
			had = now
			if had {
				_, err = s.repos.Votes.Remove(ctx, issueID, actor.ID)
			} else {
				_, err = s.repos.Votes.Add(ctx, issueID, actor.ID)
			}
			return err
		},
		Refresh: reload(view),
	})
	if err != nil {
		return nil, err
	}

	count, err := s.repos.Votes.Count(ctx, repository.WithEq("issue_id", issueID))
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	return &vo.VoteVo{IssueID: issueID, Voted: !had, Count: int(count)}, nil
}

func (s *issueService) comment(ctx context.Context, id string) (*model.Comment, error) {
	c, err := s.repos.Comments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fxerrors.ErrCommentNotFound
		}
		return nil, fxerrors.Remote(err)
	}
	return c, nil
}

func (s *issueService) AddComment(ctx context.Context, actor Actor, issueID string, req *dto.CommentDto) (*model.Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	comment := &model.Comment{IssueID: issueID, AuthorID: actor.ID, Content: req.Content}

	err := s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "comment.create",
		Key:  "comment-create:" + issueID + ":" + actor.ID,
		Precondition: func(ctx context.Context) error {
			issue, err := s.issue(ctx, issueID)
			if err != nil {
				return err
			}
			_, err = s.requireContributor(ctx, actor, issue.ProjectID)
			return err
		},
		Remote: func(ctx context.Context) error {
			return s.repos.Comments.Create(ctx, comment)
		},
	})
	if err != nil {
		return nil, err
	}
	return s.comment(ctx, comment.ID)
}

func (s *issueService) EditComment(ctx context.Context, actor Actor, commentID string, req *dto.CommentDto) (*model.Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	err := s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "comment.edit",
		Key:  "comment:" + commentID,
		Precondition: func(ctx context.Context) error {
			current, err := s.comment(ctx, commentID)
			if err != nil {
				return err
			}
			if current.AuthorID != actor.ID {
				return fxerrors.Denied("only the author can edit this comment")
			}
			return nil
		},
		Remote: func(ctx context.Context) error {
			_, err := s.repos.Comments.Updates(ctx, map[string]any{
				"content":   req.Content,
				"edited_at": time.Now(),
			}, repository.WithID(commentID))
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return s.comment(ctx, commentID)
}
