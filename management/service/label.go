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

	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/coordinator"
	"github.com/xmreur/Fluxa/management/dto"
	"github.com/xmreur/Fluxa/management/membership"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"github.com/xmreur/Fluxa/pkg/utils"
)

// LabelView is one view's copy of a project's labels.
type LabelView = coordinator.Collection[*model.Label]

type LabelService interface {
	List(ctx context.Context, actor Actor, projectID string) ([]*model.Label, error)
	NewView(projectID string) *LabelView
	// Create, Update and Delete are open to project owners and admins.
	Create(ctx context.Context, actor Actor, projectID string, req *dto.LabelDto, view *LabelView) (*model.Label, error)
	Update(ctx context.Context, actor Actor, labelID string, req *dto.LabelDto, view *LabelView) (*model.Label, error)
	Delete(ctx context.Context, actor Actor, labelID string, view *LabelView) error
	// Attach and Detach are open to every project member.
	Attach(ctx context.Context, actor Actor, issueID, labelID string) error
	Detach(ctx context.Context, actor Actor, issueID, labelID string) error
}

var (
	_ LabelService = (*labelService)(nil)
)

type labelService struct {
	log *log.Logger
	*base
}

func NewLabelService(b *base) LabelService {
	return &labelService{
		log:  log.GetLogger("label-service"),
		base: b,
	}
}

func (s *labelService) label(ctx context.Context, id string) (*model.Label, error) {
	l, err := s.repos.Labels.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fxerrors.ErrLabelNotFound
		}
		return nil, fxerrors.Remote(err)
	}
	return l, nil
}

func (s *labelService) List(ctx context.Context, actor Actor, projectID string) ([]*model.Label, error) {
	if _, _, err := s.readProject(ctx, actor.ID, projectID); err != nil {
		return nil, err
	}
	labels, err := s.repos.Labels.ListByProjects(ctx, []string{projectID})
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	return labels, nil
}

func (s *labelService) NewView(projectID string) *LabelView {
	return coordinator.NewCollection(
		func(l *model.Label) string { return l.ID },
		func(ctx context.Context) ([]*model.Label, error) {
			return s.repos.Labels.ListByProjects(ctx, []string{projectID})
		},
	)
}

func (s *labelService) canEdit(ctx context.Context, actor Actor, projectID string) error {
	if _, err := s.project(ctx, projectID); err != nil {
		return err
	}
	_, err := s.roles.Require(ctx, model.ProjectContainer(projectID), actor.ID, membership.CanEditContainer, "manage labels")
	return err
}

func (s *labelService) Create(ctx context.Context, actor Actor, projectID string, req *dto.LabelDto, view *LabelView) (*model.Label, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	label := &model.Label{ProjectID: projectID, Name: req.Name, Color: strings.TrimSpace(req.Color)}

	err := s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "label.create",
		Key:  "labels:" + projectID + ":" + strings.ToLower(label.Name),
		Precondition: func(ctx context.Context) error {
			return s.canEdit(ctx, actor, projectID)
		},
		Remote: func(ctx context.Context) error {
			return s.repos.Labels.Create(ctx, label)
		},
		Refresh: reload(view),
	})
	if err != nil {
		return nil, err
	}
	return label, nil
}

func (s *labelService) Update(ctx context.Context, actor Actor, labelID string, req *dto.LabelDto, view *LabelView) (*model.Label, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var (
		current *model.Label
		undo    func()
	)
	err := s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "label.update",
		Key:  "label:" + labelID,
		Precondition: func(ctx context.Context) error {
			var err error
			if current, err = s.label(ctx, labelID); err != nil {
				return err
			}
			return s.canEdit(ctx, actor, current.ProjectID)
		},
		Apply: func() {
			if view == nil {
				return
			}
			next := *current
			next.Name, next.Color = req.Name, strings.TrimSpace(req.Color)
			undo = view.Put(&next)
		},
		Revert: revert(&undo),
		Remote: func(ctx context.Context) error {
			_, err := s.repos.Labels.Updates(ctx, map[string]any{
				"name":  req.Name,
				"color": strings.TrimSpace(req.Color),
			}, repository.WithID(labelID))
			return err
		},
		Refresh: reload(view),
	})
	if err != nil {
		return nil, err
	}
	return s.label(ctx, labelID)
}

func (s *labelService) Delete(ctx context.Context, actor Actor, labelID string, view *LabelView) error {
	var undo func()
	return s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "label.delete",
		Key:  "label:" + labelID,
		Precondition: func(ctx context.Context) error {
			current, err := s.label(ctx, labelID)
			if err != nil {
				return err
			}
			return s.canEdit(ctx, actor, current.ProjectID)
		},
		Apply: func() {
			if view != nil {
				undo = view.Remove(labelID)
			}
		},
		Revert: revert(&undo),
		Remote: func(ctx context.Context) error {
			return s.atomically(ctx, func(tx *repository.Set) error {
				if err := tx.Issues.DetachLabelEverywhere(ctx, labelID); err != nil {
					return err
				}
				_, err := tx.Labels.Delete(ctx, repository.WithID(labelID))
				return err
			})
		},
		Refresh: reload(view),
	})
}

// issueLabel checks that both exist, share a project and the actor works on it.
func (s *labelService) issueLabel(ctx context.Context, actor Actor, issueID, labelID string) error {
	issue, err := s.issue(ctx, issueID)
	if err != nil {
		return err
	}
	label, err := s.label(ctx, labelID)
	if err != nil {
		return err
	}
	if label.ProjectID != issue.ProjectID {
		return fxerrors.Invalid("label belongs to another project")
	}
	_, err = s.roles.Require(ctx, model.ProjectContainer(issue.ProjectID), actor.ID, membership.CanView, "label issues")
	return err
}

func (s *labelService) Attach(ctx context.Context, actor Actor, issueID, labelID string) error {
	return s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "issue.label",
		Key:  "issue-label:" + issueID + ":" + labelID,
		Precondition: func(ctx context.Context) error {
			return s.issueLabel(ctx, actor, issueID, labelID)
		},
		Remote: func(ctx context.Context) error {
			return s.repos.Issues.AttachLabel(ctx, issueID, labelID)
		},
	})
}

func (s *labelService) Detach(ctx context.Context, actor Actor, issueID, labelID string) error {
	return s.coord.Run(ctx, &coordinator.Mutation{
		Kind: "issue.unlabel",
		Key:  "issue-label:" + issueID + ":" + labelID,
		Precondition: func(ctx context.Context) error {
			return s.issueLabel(ctx, actor, issueID, labelID)
		},
		Remote: func(ctx context.Context) error {
			_, err := s.repos.Issues.DetachLabel(ctx, issueID, labelID)
			return err
		},
	})
}
