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

import "strings"

// Invite targets exactly one container: TeamID or ProjectID is set, never both.
type Invite struct {
	Model
	TeamID       *string `gorm:"type:varchar(36);index" json:"team_id"`
	ProjectID    *string `gorm:"type:varchar(36);index" json:"project_id"`
	InviteeEmail string  `gorm:"type:varchar(255);index;not null" json:"invitee_email"`
	Role         Role    `gorm:"type:varchar(20);not null" json:"role"`
	InvitedBy    string  `gorm:"type:varchar(36)" json:"invited_by"`
}

func (Invite) TableName() string { return "invites" }

func NewInvite(c Container, email string, role Role, invitedBy string) *Invite {
	inv := &Invite{
		InviteeEmail: NormalizeEmail(email),
		Role:         role,
		InvitedBy:    invitedBy,
	}
	id := c.ID
	if c.Kind == ContainerTeam {
		inv.TeamID = &id
	} else {
		inv.ProjectID = &id
	}
	return inv
}

// Container returns the team or project the invite grants access to.
func (i *Invite) Container() Container {
	if i.TeamID != nil && *i.TeamID != "" {
		return TeamContainer(*i.TeamID)
	}
	if i.ProjectID != nil {
		return ProjectContainer(*i.ProjectID)
	}
	return Container{}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
