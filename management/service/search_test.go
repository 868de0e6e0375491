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

package service

import (
	"errors"
	"testing"

	"github.com/xmreur/Fluxa/management/dto"
	"github.com/xmreur/Fluxa/management/model"
)

func TestSearchScope(t *testing.T) {
	f := newFixture(t)
	alice, bob, eve := f.user("alice"), f.user("bob"), f.user("eve")
	team := f.team(alice, "Rocket team")
	f.project(alice, team.ID, "Rocket launcher")
	f.join(alice, bob, model.TeamContainer(team.ID), "member")

	other := f.team(eve, "Rocket rivals")
	f.project(eve, other.ID, "Rocket secret")

	res, err := f.svc.Search.Search(f.ctx, alice, "rocket")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Projects) != 1 || res.Projects[0].Title != "Rocket launcher" {
		t.Fatalf("projects = %+v", res.Projects)
	}
	if len(res.Teams) != 1 || res.Teams[0].Title != "Rocket team" {
		t.Fatalf("teams = %+v", res.Teams)
	}

	t.Run("teammates without self", func(t *testing.T) {
		res, err := f.svc.Search.Search(f.ctx, alice, "example.com")
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Users) != 1 || res.Users[0].ID != bob.ID {
			t.Fatalf("users = %+v", res.Users)
		}
	})

	t.Run("short query shows shortcuts", func(t *testing.T) {
		res, err := f.svc.Search.Search(f.ctx, alice, "ro")
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Pages) == 0 || len(res.Projects) != 0 {
			t.Fatalf("short query = %+v", res)
		}
	})
}

func TestSearchWildcardQuery(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	for _, c := range []string{"1", "2", "3", "4", "5"} {
		f.team(alice, "aXc team "+c)
	}
	f.team(alice, "a_c team")

	res, err := f.svc.Search.Search(f.ctx, alice, "a_c")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Teams) != 1 || res.Teams[0].Title != "a_c team" {
		t.Fatalf("teams = %+v", res.Teams)
	}
}

func TestSearchSuperseded(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	team := f.team(alice, "Core")
	f.project(alice, team.ID, "Alpha")
	f.project(alice, team.ID, "Beta")

	session := f.svc.Search.Session(alice)
	var newer error
	session.beforeCommit = func(query string) {
		if query == "alpha" {
			_, newer = session.Search(f.ctx, "beta")
		}
	}

	_, err := session.Search(f.ctx, "alpha")
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale search err = %v", err)
	}
	if newer != nil {
		t.Fatalf("newer search: %v", newer)
	}
	query, shown := session.Latest()
	if query != "beta" || len(shown.Projects) != 1 || shown.Projects[0].Title != "Beta" {
		t.Fatalf("latest = %q %+v", query, shown.Projects)
	}

	t.Run("other users are not affected", func(t *testing.T) {
		bob := f.user("bob")
		f.join(alice, bob, model.TeamContainer(team.ID), "member")
		if _, err := f.svc.Search.Search(f.ctx, bob, "core"); err != nil {
			t.Fatalf("bob search: %v", err)
		}
		if q, _ := session.Latest(); q != "beta" {
			t.Fatalf("alice latest = %q", q)
		}
	})
}

func TestSearchIssues(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	team := f.team(alice, "Core")
	project := f.project(alice, team.ID, "Website")
	if _, err := f.svc.Issues.Create(f.ctx, alice, &dto.IssueDto{
		ProjectID:   project.ID,
		Title:       "Checkout fails",
		Description: "payment gateway timeout",
		Type:        "bug",
		Priority:    4,
	}, nil); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.Search.Search(f.ctx, alice, "GATEWAY")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Issues) != 1 || res.Issues[0].Title != "Checkout fails" {
		t.Fatalf("issues = %+v", res.Issues)
	}
}
