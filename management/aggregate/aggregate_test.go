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

package aggregate

import (
	"fmt"
	"testing"

	"github.com/xmreur/Fluxa/management/model"
)

func issue(id string, typ model.IssueType, status model.IssueStatus, labels ...string) *model.Issue {
	i := &model.Issue{Model: model.Model{ID: id}, Title: "issue " + id, Type: typ, Status: status, IsActive: status.Active()}
	for _, l := range labels {
		i.Labels = append(i.Labels, model.Label{Model: model.Model{ID: l}, Name: l})
	}
	return i
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		total, solved int
		want          float64
	}{
		{10, 0, 0},
		{10, 5, 50},
		{10, 10, 100},
		{0, 0, 0},
		{0, 3, 0},
		{4, 1, 25},
		// more solved than total never exceeds 100
		{2, 5, 100},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.solved, tt.total), func(t *testing.T) {
			got := ProgressPercent(tt.total, tt.solved)
			if got != tt.want {
				t.Fatalf("ProgressPercent(%d, %d) = %v, want %v", tt.total, tt.solved, got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Fatalf("out of bounds: %v", got)
			}
		})
	}

	// total/solved*100 would report 200% for this project; progress is solved/total.
	if got := ProgressPercent(10, 5); got != 50 {
		t.Fatalf("progress uses the inverted ratio: %v", got)
	}
}

func TestCounts(t *testing.T) {
	issues := []*model.Issue{
		issue("1", model.IssueBug, model.StatusTodo),
		issue("2", model.IssueBug, model.StatusDone),
		issue("3", model.IssueFeature, model.StatusInProgress),
		issue("4", model.IssueTask, model.StatusCancelled),
		nil,
	}

	if n := CountBugs(issues); n != 2 {
		t.Errorf("bugs = %d", n)
	}
	if n := CountFeatures(issues); n != 1 {
		t.Errorf("features = %d", n)
	}
	if n := CountActive(issues); n != 2 {
		t.Errorf("active = %d", n)
	}
	if n := CountSolved(issues); n != 2 {
		t.Errorf("solved = %d", n)
	}

	stats := StatsOf(issues)
	if stats.Total != 4 || stats.Solved != 2 || stats.Progress != 50 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Active+stats.Solved != stats.Total {
		t.Errorf("active %d + solved %d != total %d", stats.Active, stats.Solved, stats.Total)
	}

	if CountActive(nil) != 0 || len(LabelFilter(nil, "x")) != 0 || UnreadCount(nil) != 0 {
		t.Error("nil input must yield zero values")
	}
}

func TestDoneIssueCountsAsCompleted(t *testing.T) {
	i := issue("1", model.IssueBug, model.StatusTodo)
	before := Dashboard(1, 1, []*model.Issue{i})
	if before.OpenIssues != 1 || before.CompletedIssues != 0 {
		t.Fatalf("before = %+v", before)
	}

	i.Status = model.StatusDone
	i.IsActive = i.Status.Active()
	after := Dashboard(1, 1, []*model.Issue{i})
	if after.OpenIssues != 0 || after.CompletedIssues != 1 {
		t.Fatalf("after = %+v", after)
	}

	cancelled := issue("2", model.IssueTask, model.StatusCancelled)
	both := Dashboard(1, 1, []*model.Issue{i, cancelled})
	if both.CompletedIssues != 2 || both.OpenIssues != 0 {
		t.Fatalf("done and cancelled = %+v", both)
	}
	if p := StatsOf([]*model.Issue{i, cancelled}).Progress; p != 100 {
		t.Fatalf("progress = %v", p)
	}
}

func TestLabelFilterAndCounts(t *testing.T) {
	issues := []*model.Issue{
		issue("1", model.IssueBug, model.StatusTodo, "ui"),
		issue("2", model.IssueBug, model.StatusTodo, "ui", "api"),
		issue("3", model.IssueBug, model.StatusTodo),
	}

	if got := LabelFilter(issues, "ui"); len(got) != 2 {
		t.Fatalf("ui issues = %d", len(got))
	}
	if got := LabelFilter(issues, ""); len(got) != 3 {
		t.Fatalf("empty label must keep all, got %d", len(got))
	}

	labels := []*model.Label{
		{Model: model.Model{ID: "ui"}, Name: "ui"},
		{Model: model.Model{ID: "api"}, Name: "api"},
		{Model: model.Model{ID: "docs"}, Name: "docs"},
	}
	counts := LabelCounts(labels, issues)
	want := map[string]int{"api": 1, "docs": 0, "ui": 2}
	if len(counts) != 3 || counts[0].Label.Name != "api" {
		t.Fatalf("counts = %+v", counts)
	}
	for _, c := range counts {
		if c.Count != want[c.Label.ID] {
			t.Errorf("%s = %d, want %d", c.Label.ID, c.Count, want[c.Label.ID])
		}
	}
}

func TestIssueCountByUser(t *testing.T) {
	bob := "bob"
	alice := "alice"
	issues := []*model.Issue{
		{CreatedBy: "alice"},
		{CreatedBy: "alice", AssignedTo: &bob},
		{CreatedBy: "alice", AssignedTo: &alice},
	}
	counts := IssueCountByUser(issues)
	if counts["alice"] != 3 || counts["bob"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestTextSearch(t *testing.T) {
	var projects []*model.Project
	for i := 0; i < 8; i++ {
		projects = append(projects, &model.Project{Model: model.Model{ID: fmt.Sprint(i)}, Name: fmt.Sprintf("Apollo %d", i)})
	}
	corpus := Corpus{
		Projects: projects,
		Teams:    []*model.Team{{Name: "Core", Description: "apollo platform"}, {Name: "Web"}},
		Users:    []*model.Profile{{Username: "ada", Email: "ada@apollo.io"}, {Username: "bob", Email: "bob@x.io"}},
		Issues:   []*model.Issue{{Title: "Crash", Description: "APOLLO fails"}, {Title: "Typo"}},
	}

	t.Run("caps and matches every category", func(t *testing.T) {
		r := TextSearch(corpus, "apollo", 0)
		if len(r.Projects) != MaxPerCategory {
			t.Errorf("projects = %d", len(r.Projects))
		}
		if len(r.Teams) != 1 || len(r.Users) != 1 || len(r.Issues) != 1 {
			t.Errorf("results = %+v", r)
		}
		if len(r.Pages) != 0 {
			t.Errorf("pages shown for a real query")
		}
	})

	t.Run("short query shows shortcuts", func(t *testing.T) {
		for _, q := range []string{"", "ap", "  ap  "} {
			r := TextSearch(corpus, q, DefaultMinQueryLength)
			if len(r.Pages) != len(Shortcuts()) || len(r.Projects) != 0 {
				t.Errorf("query %q: %+v", q, r)
			}
		}
	})

	t.Run("no hits", func(t *testing.T) {
		r := TextSearch(corpus, "zzz", 3)
		if !r.Empty() {
			t.Errorf("results = %+v", r)
		}
	})

	t.Run("empty corpus", func(t *testing.T) {
		if !TextSearch(Corpus{}, "apollo", 3).Empty() {
			t.Error("empty corpus produced hits")
		}
	})
}
