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
	"encoding/json"
	"testing"

	"github.com/xmreur/Fluxa/management/aggregate"
	"github.com/xmreur/Fluxa/management/model"
)

func TestDashboardVoJSON(t *testing.T) {
	d := DashboardVo{
		DashboardStats: aggregate.DashboardStats{Teams: 2, Projects: 3, OpenIssues: 4, CompletedIssues: 5},
		ProjectStats:   []ProjectVo{{Project: &model.Project{Name: "Apollo"}}},
	}
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	for key, want := range map[string]float64{"teams": 2, "projects": 3, "open_issues": 4, "completed_issues": 5} {
		if got[key] != want {
			t.Errorf("%s = %v, want %v in %s", key, got[key], want, raw)
		}
	}
	if list, ok := got["project_stats"].([]any); !ok || len(list) != 1 {
		t.Errorf("project_stats = %v", got["project_stats"])
	}
}
