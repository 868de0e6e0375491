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
	"github.com/xmreur/Fluxa/management/auth"
	"github.com/xmreur/Fluxa/management/model"
)

type InboxVo struct {
	Invites       []InviteVo            `json:"invites"`
	Notifications []*model.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

type DashboardVo struct {
	aggregate.DashboardStats
	RecentIssues []*model.Issue `json:"recent_issues"`
	ProjectStats []ProjectVo    `json:"project_stats"`
}

type AccountVo struct {
	User    *auth.User     `json:"user"`
	Profile *model.Profile `json:"profile"`
}

// SearchVo carries the results shown for Query. Superseded marks a request
// whose own results were dropped in favour of a newer query.
type SearchVo struct {
	Query      string            `json:"query"`
	Results    aggregate.Results `json:"results"`
	Superseded bool              `json:"superseded"`
}
