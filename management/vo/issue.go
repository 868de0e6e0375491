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
	"github.com/xmreur/Fluxa/management/model"
)

type IssueDetailVo struct {
	*model.Issue
	VoteCount int        `json:"vote_count"`
	Voted     bool       `json:"voted"`
	Role      model.Role `json:"role"`
}

type VoteVo struct {
	IssueID string `json:"issue_id"`
	Voted   bool   `json:"voted"`
	Count   int    `json:"count"`
}

type IssueListVo struct {
	Issues   []*model.Issue `json:"issues"`
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Solved   int            `json:"solved"`
	Progress float64        `json:"progress"`
}
