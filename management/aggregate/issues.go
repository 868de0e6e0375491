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

// Package aggregate derives counts, progress and filtered lists from loaded
// collections. Nothing here touches the store and nil input is always valid.
package aggregate

import (
	"sort"

	"github.com/xmreur/Fluxa/management/model"
)

// Predicate selects issues.
type Predicate func(*model.Issue) bool

func IsBug(i *model.Issue) bool     { return i.Type == model.IssueBug }
func IsFeature(i *model.Issue) bool { return i.Type == model.IssueFeature }
func IsActive(i *model.Issue) bool  { return i.IsActive }

// IsSolved is the complement of IsActive: done and cancelled issues are both
// solved, so active plus solved always equals the total.
func IsSolved(i *model.Issue) bool { return !i.IsActive }

func CountByPredicate(issues []*model.Issue, pred Predicate) int {
	n := 0
	for _, i := range issues {
		if i != nil && pred(i) {
			n++
		}
	}
	return n
}

func CountBugs(issues []*model.Issue) int     { return CountByPredicate(issues, IsBug) }
func CountFeatures(issues []*model.Issue) int { return CountByPredicate(issues, IsFeature) }
func CountActive(issues []*model.Issue) int   { return CountByPredicate(issues, IsActive) }
func CountSolved(issues []*model.Issue) int   { return CountByPredicate(issues, IsSolved) }

// ProgressPercent is solved/total as a percentage clamped to [0, 100].
// An empty project, or one with nothing solved, is at 0.
func ProgressPercent(total, solved int) float64 {
	if total <= 0 || solved <= 0 {
		return 0
	}
	p := float64(solved) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}

// LabelFilter keeps issues carrying labelID. An empty id keeps everything.
func LabelFilter(issues []*model.Issue, labelID string) []*model.Issue {
	if labelID == "" {
		return issues
	}
	out := make([]*model.Issue, 0, len(issues))
	for _, i := range issues {
		if i != nil && i.HasLabel(labelID) {
			out = append(out, i)
		}
	}
	return out
}

// TitleFilter keeps issues whose title contains query, ignoring case.
func TitleFilter(issues []*model.Issue, query string) []*model.Issue {
	if normalize(query) == "" {
		return issues
	}
	out := make([]*model.Issue, 0, len(issues))
	for _, i := range issues {
		if i != nil && contains(i.Title, query) {
			out = append(out, i)
		}
	}
	return out
}

// IssueCountByUser tallies, per user, the issues they created or are assigned to.
// An issue a user both created and holds counts once.
func IssueCountByUser(issues []*model.Issue) map[string]int {
	counts := make(map[string]int)
	for _, i := range issues {
		if i == nil {
			continue
		}
		if i.CreatedBy != "" {
			counts[i.CreatedBy]++
		}
		if i.AssignedTo != nil && *i.AssignedTo != "" && *i.AssignedTo != i.CreatedBy {
			counts[*i.AssignedTo]++
		}
	}
	return counts
}

// LabelCount is the number of issues carrying one label.
type LabelCount struct {
	Label model.Label `json:"label"`
	Count int         `json:"count"`
}

// LabelCounts tallies issues per label, keeping labels without issues, ordered by name.
func LabelCounts(labels []*model.Label, issues []*model.Issue) []LabelCount {
	index := make(map[string]int, len(labels))
	out := make([]LabelCount, 0, len(labels))
	for _, l := range labels {
		if l == nil {
			continue
		}
		index[l.ID] = len(out)
		out = append(out, LabelCount{Label: *l})
	}
	for _, i := range issues {
		if i == nil {
			continue
		}
		for _, l := range i.Labels {
			if pos, ok := index[l.ID]; ok {
				out[pos].Count++
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Label.Name < out[b].Label.Name })
	return out
}

func UnreadCount(notifications []*model.Notification) int {
	n := 0
	for _, x := range notifications {
		if x != nil && !x.Read {
			n++
		}
	}
	return n
}

// ProjectStats summarises one project's issues.
type ProjectStats struct {
	Total    int     `json:"total"`
	Solved   int     `json:"solved"`
	Active   int     `json:"active"`
	Bugs     int     `json:"bugs"`
	Features int     `json:"features"`
	Progress float64 `json:"progress"`
}

func StatsOf(issues []*model.Issue) ProjectStats {
	total := 0
	for _, i := range issues {
		if i != nil {
			total++
		}
	}
	solved := CountSolved(issues)
	return ProjectStats{
		Total:    total,
		Solved:   solved,
		Active:   CountActive(issues),
		Bugs:     CountBugs(issues),
		Features: CountFeatures(issues),
		Progress: ProgressPercent(total, solved),
	}
}

// GroupByProject buckets issues by project id.
func GroupByProject(issues []*model.Issue) map[string][]*model.Issue {
	out := make(map[string][]*model.Issue)
	for _, i := range issues {
		if i != nil {
			out[i.ProjectID] = append(out[i.ProjectID], i)
		}
	}
	return out
}

// DashboardStats are the headline numbers of the dashboard.
type DashboardStats struct {
	Teams           int `json:"teams"`
	Projects        int `json:"projects"`
	OpenIssues      int `json:"open_issues"`
	CompletedIssues int `json:"completed_issues"`
}

// Dashboard counts open issues as active and completed ones as solved.
func Dashboard(teams, projects int, issues []*model.Issue) DashboardStats {
	return DashboardStats{
		Teams:           teams,
		Projects:        projects,
		OpenIssues:      CountActive(issues),
		CompletedIssues: CountSolved(issues),
	}
}
