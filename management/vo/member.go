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

package vo

import (
	"time"

	"github.com/xmreur/Fluxa/management/model"
)

// MemberVo is one row of a member list.
type MemberVo struct {
	UserID     string         `json:"user_id"`
	Role       model.Role     `json:"role"`
	Profile    *model.Profile `json:"profile"`
	IssueCount int            `json:"issue_count"`
	JoinedAt   time.Time      `json:"joined_at"`
}

// InviteVo is a pending invite with the names needed to display it.
type InviteVo struct {
	ID            string          `json:"id"`
	Container     model.Container `json:"container"`
	ContainerName string          `json:"container_name"`
	InviteeEmail  string          `json:"invitee_email"`
	Invitee       *model.Profile  `json:"invitee,omitempty"`
	Role          model.Role      `json:"role"`
	InvitedBy     string          `json:"invited_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewInviteVo(inv *model.Invite) InviteVo {
	return InviteVo{
		ID:           inv.ID,
		Container:    inv.Container(),
		InviteeEmail: inv.InviteeEmail,
		Role:         inv.Role,
		InvitedBy:    inv.InvitedBy,
		CreatedAt:    inv.CreatedAt,
	}
}

// AcceptVo reports the membership an accepted invite granted.
type AcceptVo struct {
	Container model.Container `json:"container"`
	Role      model.Role      `json:"role"`
	// AlreadyMember is set when the invitee already belonged to the container;
	// the invite is consumed and the existing role kept.
	AlreadyMember bool `json:"already_member"`
}
