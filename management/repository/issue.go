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
	"errors"

	"github.com/xmreur/Fluxa/management/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IssueRepository struct {
	*BaseRepository[model.Issue]
}

func NewIssueRepository(db *gorm.DB) *IssueRepository {
	return &IssueRepository{BaseRepository: NewBaseRepository[model.Issue](db)}
}

// Get loads an issue with its labels and people.
func (r *IssueRepository) Get(ctx context.Context, id string) (*model.Issue, error) {
	return r.First(ctx, WithID(id), Preload("Labels", "Creator", "Assignee"))
}

// GetDetail also loads votes and comments with their authors, oldest comment first.
func (r *IssueRepository) GetDetail(ctx context.Context, id string) (*model.Issue, error) {
	return r.First(ctx,
		WithID(id),
		Preload("Labels", "Creator", "Assignee", "Votes", "Comments.Author"),
		func(db *gorm.DB) *gorm.DB {
			return db.Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") })
		},
	)
}

func (r *IssueRepository) ListByProjects(ctx context.Context, projectIDs []string, scopes ...Scope) ([]*model.Issue, error) {
	base := []Scope{WithIn("project_id", projectIDs), Preload("Labels"), OrderBy("created_at", true)}
	return r.Find(ctx, append(base, scopes...)...)
}

// ListForUser returns issues the user created or is assigned to.
func (r *IssueRepository) ListForUser(ctx context.Context, userID string, scopes ...Scope) ([]*model.Issue, error) {
	base := []Scope{
		func(db *gorm.DB) *gorm.DB {
			return db.Where("created_by = ? OR assigned_to = ?", userID, userID)
		},
		OrderBy("created_at", true),
	}
	return r.Find(ctx, append(base, scopes...)...)
}

// AttachLabel links a label to an issue; linking twice is a no-op.
func (r *IssueRepository) AttachLabel(ctx context.Context, issueID, labelID string) error {
	return r.db.WithContext(ctx).
		Table("issue_labels").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{"issue_id": issueID, "label_id": labelID}).Error
}

func (r *IssueRepository) DetachLabel(ctx context.Context, issueID, labelID string) (int64, error) {
	res := r.db.WithContext(ctx).Exec("DELETE FROM issue_labels WHERE issue_id = ? AND label_id = ?", issueID, labelID)
	return res.RowsAffected, res.Error
}

// DetachLabelEverywhere drops every issue_labels row for the label.
func (r *IssueRepository) DetachLabelEverywhere(ctx context.Context, labelID string) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM issue_labels WHERE label_id = ?", labelID).Error
}

// ClearAssociations removes the rows that hang off an issue before the issue itself goes.
func (r *IssueRepository) ClearAssociations(ctx context.Context, issueID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM issue_labels WHERE issue_id = ?", issueID).Error; err != nil {
		return err
	}
	if err := db.Where("issue_id = ?", issueID).Delete(&model.Vote{}).Error; err != nil {
		return err
	}
	return db.Where("issue_id = ?", issueID).Delete(&model.Comment{}).Error
}

type LabelRepository struct {
	*BaseRepository[model.Label]
}

func NewLabelRepository(db *gorm.DB) *LabelRepository {
	return &LabelRepository{BaseRepository: NewBaseRepository[model.Label](db)}
}

func (r *LabelRepository) Get(ctx context.Context, id string) (*model.Label, error) {
	return r.First(ctx, WithID(id))
}

func (r *LabelRepository) ListByProjects(ctx context.Context, projectIDs []string) ([]*model.Label, error) {
	return r.Find(ctx, WithIn("project_id", projectIDs), OrderBy("name", false))
}

type CommentRepository struct {
	*BaseRepository[model.Comment]
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{BaseRepository: NewBaseRepository[model.Comment](db)}
}

func (r *CommentRepository) Get(ctx context.Context, id string) (*model.Comment, error) {
	return r.First(ctx, WithID(id), Preload("Author"))
}

type VoteRepository struct {
	*BaseRepository[model.Vote]
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{BaseRepository: NewBaseRepository[model.Vote](db)}
}

// Add records a vote. It reports false when the user had already voted.
func (r *VoteRepository) Add(ctx context.Context, issueID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Vote{IssueID: issueID, UserID: userID})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Remove deletes a vote. It reports false when there was none.
func (r *VoteRepository) Remove(ctx context.Context, issueID, userID string) (bool, error) {
	n, err := r.Delete(ctx, WithEq("issue_id", issueID), WithUserID(userID))
	return n > 0, err
}

func (r *VoteRepository) Has(ctx context.Context, issueID, userID string) (bool, error) {
	return r.Exists(ctx, WithEq("issue_id", issueID), WithUserID(userID))
}

type NotificationRepository struct {
	*BaseRepository[model.Notification]
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{BaseRepository: NewBaseRepository[model.Notification](db)}
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, scopes ...Scope) ([]*model.Notification, error) {
	return r.Find(ctx, append([]Scope{WithUserID(userID), OrderBy("created_at", true)}, scopes...)...)
}

// MarkRead flags one notification of the user as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) (int64, error) {
	return r.Updates(ctx, map[string]any{"is_read": true}, WithID(id), WithUserID(userID))
}

// MarkAllRead flags every unread notification of the user as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return r.Updates(ctx, map[string]any{"is_read": true}, WithUserID(userID), WithEq("is_read", false))
}
