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
	"strings"
	"unicode/utf8"

	"github.com/xmreur/Fluxa/management/model"
)

const (
	// DefaultMinQueryLength is the shortest query that triggers a real search.
	DefaultMinQueryLength = 3
	// MaxPerCategory caps every result category.
	MaxPerCategory = 5
)

// Entry is one search hit.
type Entry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Path     string `json:"path"`
}

// Results groups hits by category. Pages holds the navigation shortcuts shown
// for short queries.
type Results struct {
	Pages    []Entry `json:"pages"`
	Projects []Entry `json:"projects"`
	Teams    []Entry `json:"teams"`
	Users    []Entry `json:"users"`
	Issues   []Entry `json:"issues"`
}

// Empty reports whether no category has a hit.
func (r Results) Empty() bool {
	return len(r.Pages)+len(r.Projects)+len(r.Teams)+len(r.Users)+len(r.Issues) == 0
}

// Corpus is the searchable material visible to one user.
type Corpus struct {
	Projects []*model.Project
	Teams    []*model.Team
	Users    []*model.Profile
	Issues   []*model.Issue
}

// Shortcuts are the static navigation pages.
func Shortcuts() []Entry {
	return []Entry{
		{ID: "dashboard", Title: "Dashboard", Path: "/dashboard"},
		{ID: "inbox", Title: "Inbox", Path: "/inbox"},
		{ID: "issues", Title: "My Issues", Path: "/issues"},
		{ID: "projects", Title: "Projects", Path: "/projects"},
		{ID: "teams", Title: "Teams", Path: "/teams"},
		{ID: "settings", Title: "Settings", Path: "/settings"},
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(field, query string) bool {
	q := normalize(query)
	return q != "" && strings.Contains(strings.ToLower(field), q)
}

// ShortQuery reports whether query is too short to search; minLength <= 0 means the default.
func ShortQuery(query string, minLength int) bool {
	if minLength <= 0 {
		minLength = DefaultMinQueryLength
	}
	return utf8.RuneCountInString(strings.TrimSpace(query)) < minLength
}

// TextSearch matches query case-insensitively against every category of the
// corpus: projects and teams by name or description, users by username or
// email, issues by title or description. Each category keeps at most
// MaxPerCategory hits in corpus order. Queries shorter than minLength return
// the navigation shortcuts instead.
func TextSearch(corpus Corpus, query string, minLength int) Results {
	if ShortQuery(query, minLength) {
		return Results{Pages: Shortcuts()}
	}

	var r Results
	for _, p := range corpus.Projects {
		if len(r.Projects) == MaxPerCategory {
			break
		}
		if p != nil && (contains(p.Name, query) || contains(p.Description, query)) {
			r.Projects = append(r.Projects, Entry{ID: p.ID, Title: p.Name, Subtitle: p.Description, Path: "/projects/" + p.ID})
		}
	}
	for _, t := range corpus.Teams {
		if len(r.Teams) == MaxPerCategory {
			break
		}
		if t != nil && (contains(t.Name, query) || contains(t.Description, query)) {
			r.Teams = append(r.Teams, Entry{ID: t.ID, Title: t.Name, Subtitle: t.Description, Path: "/teams"})
		}
	}
	for _, u := range corpus.Users {
		if len(r.Users) == MaxPerCategory {
			break
		}
		if u != nil && (contains(u.Username, query) || contains(u.Email, query)) {
			r.Users = append(r.Users, Entry{ID: u.ID, Title: u.Username, Subtitle: u.Email, Path: "/users/" + u.ID})
		}
	}
	for _, i := range corpus.Issues {
		if len(r.Issues) == MaxPerCategory {
			break
		}
		if i != nil && (contains(i.Title, query) || contains(i.Description, query)) {
			r.Issues = append(r.Issues, Entry{ID: i.ID, Title: i.Title, Subtitle: string(i.Status), Path: "/issues/" + i.ID})
		}
	}
	return r
}
