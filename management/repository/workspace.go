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
	"context"

	"github.com/xmreur/Fluxa/management/model"
	"gorm.io/gorm"
)

type TeamRepository struct {
	*BaseRepository[model.Team]
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{BaseRepository: NewBaseRepository[model.Team](db)}
}

func (r *TeamRepository) Get(ctx context.Context, id string) (*model.Team, error) {
	return r.First(ctx, WithID(id))
}

func (r *TeamRepository) ListByIDs(ctx context.Context, ids []string, scopes ...Scope) ([]*model.Team, error) {
	return r.Find(ctx, append([]Scope{WithIDs(ids), OrderBy("created_at", false)}, scopes...)...)
}

type ProjectRepository struct {
	*BaseRepository[model.Project]
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{BaseRepository: NewBaseRepository[model.Project](db)}
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (*model.Project, error) {
	return r.First(ctx, WithID(id))
}

func (r *ProjectRepository) ListByIDs(ctx context.Context, ids []string, scopes ...Scope) ([]*model.Project, error) {
	return r.Find(ctx, append([]Scope{WithIDs(ids), OrderBy("created_at", true)}, scopes...)...)
}

func (r *ProjectRepository) ListByTeams(ctx context.Context, teamIDs []string) ([]*model.Project, error) {
	return r.Find(ctx, WithIn("team_id", teamIDs), Preload("Creator"), OrderBy("created_at", true))
}

type ProfileRepository struct {
	*BaseRepository[model.Profile]
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{BaseRepository: NewBaseRepository[model.Profile](db)}
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (*model.Profile, error) {
	return r.First(ctx, WithID(id))
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return r.First(ctx, WithEq("email", model.NormalizeEmail(email)))
}

func (r *ProfileRepository) ListByIDs(ctx context.Context, ids []string, scopes ...Scope) ([]*model.Profile, error) {
	return r.Find(ctx, append([]Scope{WithIDs(ids)}, scopes...)...)
}

func (r *ProfileRepository) ListByEmails(ctx context.Context, emails []string) ([]*model.Profile, error) {
	return r.Find(ctx, WithIn("email", emails))
}

// ProfileIndex maps profiles by id.
func ProfileIndex(profiles []*model.Profile) map[string]*model.Profile {
	idx := make(map[string]*model.Profile, len(profiles))
	for _, p := range profiles {
		idx[p.ID] = p
	}
	return idx
}
