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

// Package notify delivers in-app notifications and invite e-mails off the
// request path, on a bounded task loop.
package notify

import (
	"context"
	"fmt"

	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/pkg/loop"
)

// Notifier persists notifications asynchronously.
type Notifier struct {
	log   *log.Logger
	loop  *loop.TaskLoop
	store *repository.NotificationRepository
}

func NewNotifier(l *loop.TaskLoop, store *repository.NotificationRepository) *Notifier {
	return &Notifier{
		log:   log.GetLogger("notifier"),
		loop:  l,
		store: store,
	}
}

// Post queues n for storage. A full queue drops the notification with a warning
// rather than slowing the request down.
func (n *Notifier) Post(note *model.Notification) {
	err := n.loop.TryAddTask("notification", func(ctx context.Context) error {
		return n.store.Create(ctx, note)
	})
	if err != nil {
		n.log.Warningf("drop notification for %s: %v", note.UserID, err)
	}
}

// IssueAssigned tells the assignee about their new issue. Self assignment is silent.
func (n *Notifier) IssueAssigned(issue *model.Issue, assignerID string) {
	if issue.AssignedTo == nil || *issue.AssignedTo == "" || *issue.AssignedTo == assignerID {
		return
	}
	n.Post(&model.Notification{
		UserID:      *issue.AssignedTo,
		ProjectID:   issue.ProjectID,
		Title:       "New issue assigned",
		Description: fmt.Sprintf("You have been assigned to %q", issue.Title),
	})
}
