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

package model

import "time"

type IssueType string

const (
	IssueBug         IssueType = "bug"
	IssueFeature     IssueType = "feature"
	IssueImprovement IssueType = "improvement"
	IssueTask        IssueType = "task"
)

type IssueStatus string

const (
	StatusTodo       IssueStatus = "todo"
	StatusInProgress IssueStatus = "in-progress"
	StatusDone       IssueStatus = "done"
	StatusCancelled  IssueStatus = "cancelled"
)

const (
	MinPriority = 1
	MaxPriority = 5
)

func (t IssueType) Valid() bool {
	switch t {
	case IssueBug, IssueFeature, IssueImprovement, IssueTask:
		return true
	}
	return false
}

func (s IssueStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether an issue in this status still needs work.
func (s IssueStatus) Active() bool {
	return s != StatusDone && s != StatusCancelled
}

type Issue struct {
	Model
	ProjectID   string      `gorm:"type:varchar(36);index;not null" json:"project_id"`
	Title       string      `gorm:"type:varchar(200);not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Type        IssueType   `gorm:"type:varchar(20);not null" json:"type"`
	Priority    int         `gorm:"not null" json:"priority"`
	Status      IssueStatus `gorm:"type:varchar(20);not null" json:"status"`
	IsActive    bool        `gorm:"not null" json:"is_active"`
	CreatedBy   string      `gorm:"type:varchar(36);index" json:"created_by"`
	AssignedTo  *string     `gorm:"type:varchar(36);index" json:"assigned_to"`

	Labels   []Label   `gorm:"many2many:issue_labels;" json:"labels,omitempty"`
	Comments []Comment `gorm:"foreignKey:IssueID" json:"comments,omitempty"`
	Votes    []Vote    `gorm:"foreignKey:IssueID" json:"votes,omitempty"`
	Creator  *Profile  `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Assignee *Profile  `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
}

func (Issue) TableName() string { return "issues" }

// HasLabel reports whether the issue carries labelID.
func (i *Issue) HasLabel(labelID string) bool {
	for _, l := range i.Labels {
		if l.ID == labelID {
			return true
		}
	}
	return false
}

type Label struct {
	Model
	ProjectID string `gorm:"type:varchar(36);index;not null" json:"project_id"`
	Name      string `gorm:"type:varchar(50);not null" json:"name"`
	Color     string `gorm:"type:varchar(20)" json:"color"`
}

func (Label) TableName() string { return "labels" }

type Comment struct {
	Model
	IssueID  string     `gorm:"type:varchar(36);index;not null" json:"issue_id"`
	AuthorID string     `gorm:"type:varchar(36);not null" json:"author_id"`
	Content  string     `gorm:"type:text;not null" json:"content"`
	EditedAt *time.Time `json:"edited_at"`
	Author   *Profile   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Comment) TableName() string { return "issue_comments" }

// Vote allows one row per (issue, user).
type Vote struct {
	IssueID   string    `gorm:"primaryKey;type:varchar(36)" json:"issue_id"`
	UserID    string    `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Vote) TableName() string { return "votes" }

type Notification struct {
	Model
	UserID      string `gorm:"type:varchar(36);index;not null" json:"user_id"`
	ProjectID   string `gorm:"type:varchar(36)" json:"project_id"`
	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Read        bool   `gorm:"column:is_read;not null" json:"read"`
}

func (Notification) TableName() string { return "notifications" }
