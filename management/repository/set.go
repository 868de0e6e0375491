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

package repository

import (
	"context"

	"gorm.io/gorm"
)

// Set bundles every repository over one connection or one transaction.
type Set struct {
	db *gorm.DB

	Profiles      *ProfileRepository
	Teams         *TeamRepository
	Projects      *ProjectRepository
	Members       MemberRepository
	Invites       InviteRepository
	Labels        *LabelRepository
	Issues        *IssueRepository
	Comments      *CommentRepository
	Votes         *VoteRepository
	Notifications *NotificationRepository
}

func NewSet(db *gorm.DB) *Set {
	return &Set{
		db:            db,
		Profiles:      NewProfileRepository(db),
		Teams:         NewTeamRepository(db),
		Projects:      NewProjectRepository(db),
		Members:       NewMemberRepository(db),
		Invites:       NewInviteRepository(db),
		Labels:        NewLabelRepository(db),
		Issues:        NewIssueRepository(db),
		Comments:      NewCommentRepository(db),
		Votes:         NewVoteRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

func (s *Set) DB() *gorm.DB { return s.db }

// Transaction runs fn with a Set bound to a single transaction. Any error rolls
// every step back.
func (s *Set) Transaction(ctx context.Context, fn func(tx *Set) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewSet(tx))
	})
}
