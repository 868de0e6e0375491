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

type NotificationService interface {
	// Inbox returns the actor's pending invites and notifications.
	Inbox(ctx context.Context, actor Actor) (*vo.InboxVo, error)
	// History pages through the actor's notifications, newest first.
	History(ctx context.Context, actor Actor, page *dto.PageRequest) (*dto.PageResult[*model.Notification], error)
	MarkRead(ctx context.Context, actor Actor, id string) error
	MarkAllRead(ctx context.Context, actor Actor) (int64, error)
}

var (
	_ NotificationService = (*notificationService)(nil)
)

type notificationService struct {
	log     *log.Logger
	invites InviteService
	*base
}

func NewNotificationService(b *base, invites InviteService) NotificationService {
	return &notificationService{
		log:     log.GetLogger("notification-service"),
		invites: invites,
		base:    b,
	}
}

func (s *notificationService) Inbox(ctx context.Context, actor Actor) (*vo.InboxVo, error) {
	v := &vo.InboxVo{}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		v.Invites, err = s.invites.Inbox(egCtx, actor)
		return err
	})
	eg.Go(func() error {
		notes, err := s.repos.Notifications.ListForUser(egCtx, actor.ID)
		if err != nil {
			return fxerrors.Remote(err)
		}
		v.Notifications = notes
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	v.Unread = aggregate.UnreadCount(v.Notifications)
	return v, nil
}

func (s *notificationService) History(ctx context.Context, actor Actor, page *dto.PageRequest) (*dto.PageResult[*model.Notification], error) {
	if page == nil {
		page = &dto.PageRequest{}
	}
	filters := []repository.Scope{repository.WithUserID(actor.ID)}
	if page.Search != "" {
		filters = append(filters, repository.WithKeyword(page.Search, "title", "description"))
	}

	total, err := s.repos.Notifications.Count(ctx, filters...)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}
	notes, err := s.repos.Notifications.Find(ctx, append(filters, repository.OrderBy("created_at", true), repository.Paginate(page))...)
	if err != nil {
		return nil, fxerrors.Remote(err)
	}

	n, size := page.Normalize()
	return &dto.PageResult[*model.Notification]{Total: total, Page: n, PageSize: size, List: notes}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor Actor, id string) error {
	n, err := s.repos.Notifications.MarkRead(ctx, actor.ID, id)
	if err != nil {
		return fxerrors.Remote(err)
	}
	if n > 0 {
		return nil
	}
	// zero rows also means it was already read
	exists, err := s.repos.Notifications.Exists(ctx, repository.WithID(id), repository.WithUserID(actor.ID))
	if err != nil {
		return fxerrors.Remote(err)
	}
	if !exists {
		return fxerrors.ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	n, err := s.repos.Notifications.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, fxerrors.Remote(err)
	}
	s.log.Verbosef("%s marked %d notifications read", actor.ID, n)
	return n, nil
}
