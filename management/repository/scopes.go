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

package repository

import (
	"strings"

	"github.com/xmreur/Fluxa/management/dto"
	"gorm.io/gorm"
)

// Column names passed to these scopes come from code, never from requests.

func WithID(id string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithIDs(ids []string) Scope {
	return WithIn("id", ids)
}

func WithUserID(userID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if userID == "" {
			return db
		}
		return db.Where("user_id = ?", userID)
	}
}

func WithProjectID(projectID string) Scope {
	return WithEq("project_id", projectID)
}

func WithEq(column string, value any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", value)
	}
}

// WithIn matches column against values. An empty list matches nothing.
func WithIn(column string, values []string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if len(values) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where(column+" IN ?", values)
	}
}

// likeEscaper makes % and _ in a keyword match themselves. '!' is the escape
// character since a backslash is itself an escape in MySQL string literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// WithKeyword is a case-insensitive literal contains match over any of columns.
func WithKeyword(keyword string, columns ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(keyword)) + "%"
		clauses := make([]string, 0, len(columns))
		args := make([]any, 0, len(columns))
		for _, c := range columns {
			clauses = append(clauses, "LOWER("+c+") LIKE ? ESCAPE '!'")
			args = append(args, pattern)
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

func OrderBy(column string, desc bool) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if desc {
			return db.Order(column + " DESC")
		}
		return db.Order(column)
	}
}

// Preload expands the named associations.
func Preload(associations ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		for _, a := range associations {
			db = db.Preload(a)
		}
		return db
	}
}

func Limit(n int) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if n <= 0 {
			return db
		}
		return db.Limit(n)
	}
}

func Paginate(params *dto.PageRequest) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if params == nil {
			return db
		}
		page, size := params.Normalize()
		return db.Offset((page - 1) * size).Limit(size)
	}
}
