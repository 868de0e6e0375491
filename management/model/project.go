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

type Project struct {
	Model
	Name        string   `gorm:"type:varchar(100);not null" json:"name"`
	Description string   `gorm:"type:text" json:"description"`
	TeamID      string   `gorm:"type:varchar(36);index;not null" json:"team_id"`
	CreatedBy   string   `gorm:"type:varchar(36);index" json:"created_by"`
	Creator     *Profile `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

func (Project) TableName() string { return "projects" }

type ProjectMember struct {
	ProjectID string    `gorm:"primaryKey;type:varchar(36)" json:"project_id"`
	UserID    string    `gorm:"primaryKey;type:varchar(36);index" json:"user_id"`
	Role      Role      `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectMember) TableName() string { return "project_members" }
