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
	"github.com/xmreur/Fluxa/management/aggregate"
	"github.com/xmreur/Fluxa/management/model"
)

type TeamVo struct {
	*model.Team
	Role    model.Role `json:"role"`
	Members []MemberVo `json:"members"`
	Invites []InviteVo `json:"invites"`
}

type ProjectVo struct {
	*model.Project
	Role  model.Role             `json:"role"`
	Stats aggregate.ProjectStats `json:"stats"`
}

// ProjectDetailVo backs the project page.
type ProjectDetailVo struct {
	ProjectVo
	Members     []MemberVo             `json:"members"`
	Invites     []InviteVo             `json:"invites"`
	Labels      []*model.Label         `json:"labels"`
	LabelCounts []aggregate.LabelCount `json:"label_counts"`
}
