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

package dto

type IssueDto struct {
	ProjectID   string   `json:"project_id" validate:"required"`
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=10000"`
	Type        string   `json:"type" validate:"required,oneof=bug feature improvement task"`
	Priority    int      `json:"priority" validate:"min=1,max=5"`
	Status      string   `json:"status" validate:"omitempty,oneof=todo in-progress done cancelled"`
	AssignedTo  *string  `json:"assigned_to"`
	LabelIDs    []string `json:"label_ids"`
}

// IssueUpdateDto changes the fields that are set. An empty AssignedTo unassigns.
type IssueUpdateDto struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	Type        *string `json:"type" validate:"omitempty,oneof=bug feature improvement task"`
	Priority    *int    `json:"priority" validate:"omitempty,min=1,max=5"`
	Status      *string `json:"status" validate:"omitempty,oneof=todo in-progress done cancelled"`
	AssignedTo  *string `json:"assigned_to"`
}

// IssueFilter narrows issue lists. Mine limits to issues the caller created
// or is assigned to.
type IssueFilter struct {
	ProjectID string `form:"project_id"`
	Status    string `form:"status"`
	Type      string `form:"type"`
	LabelID   string `form:"label_id"`
	Search    string `form:"search"`
	Mine      bool   `form:"mine"`
}

type CommentDto struct {
	Content string `json:"content" validate:"required,max=5000"`
}

type LabelDto struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"max=20"`
}
