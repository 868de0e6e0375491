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
	"errors"
	"fmt"

	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"gorm.io/gorm"
)

// MemberRepository reads and writes team_members and project_members through one
// container-neutral API.
type MemberRepository interface {
	WithTx(tx *gorm.DB) MemberRepository

	// Get returns the membership or ErrNotFound.
	Get(ctx context.Context, c model.Container, userID string) (*model.Membership, error)
	List(ctx context.Context, c model.Container) ([]*model.Membership, error)
	// Create inserts a membership; a second row for the same (container, user) fails
	// with fxerrors.ErrMembershipExists.
	Create(ctx context.Context, c model.Container, userID string, role model.Role) error
	UpdateRole(ctx context.Context, c model.Container, userID string, role model.Role) (int64, error)
	Delete(ctx context.Context, c model.Container, userID string) (int64, error)
	// DeleteProjectsOfTeam drops the user's memberships in every project of the team.
	DeleteProjectsOfTeam(ctx context.Context, teamID, userID string) (int64, error)
	// DeleteUser drops every membership of the user.
	DeleteUser(ctx context.Context, userID string) error

	// ContainerIDs lists the ids of every container of the kind the user belongs to.
	ContainerIDs(ctx context.Context, kind model.ContainerKind, userID string) ([]string, error)
	// UserIDs lists the distinct members of the given containers.
	UserIDs(ctx context.Context, kind model.ContainerKind, containerIDs []string) ([]string, error)
}

var (
	_ MemberRepository = (*memberRepository)(nil)
)

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) WithTx(tx *gorm.DB) MemberRepository {
	return &memberRepository{db: tx}
}

func tableOf(kind model.ContainerKind) (table, column string, err error) {
	switch kind {
	case model.ContainerTeam:
		return "team_members", "team_id", nil
	case model.ContainerProject:
		return "project_members", "project_id", nil
	default:
		return "", "", fmt.Errorf("unknown container kind %q", kind)
	}
}

func (r *memberRepository) query(ctx context.Context, kind model.ContainerKind) (*gorm.DB, string, error) {
	table, column, err := tableOf(kind)
	if err != nil {
		return nil, "", err
	}
	return r.db.WithContext(ctx).Table(table), column, nil
}

func (r *memberRepository) Get(ctx context.Context, c model.Container, userID string) (*model.Membership, error) {
	q, column, err := r.query(ctx, c.Kind)
	if err != nil {
		return nil, err
	}
	var m model.Membership
	err = q.Select(column+" AS container_id, user_id, role, created_at").
		Where(column+" = ? AND user_id = ?", c.ID, userID).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.Kind = c.Kind
	return &m, nil
}

func (r *memberRepository) List(ctx context.Context, c model.Container) ([]*model.Membership, error) {
	q, column, err := r.query(ctx, c.Kind)
	if err != nil {
		return nil, err
	}
	var rows []*model.Membership
	err = q.Select(column+" AS container_id, user_id, role, created_at").
		Where(column+" = ?", c.ID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		m.Kind = c.Kind
	}
	return rows, nil
}

func (r *memberRepository) Create(ctx context.Context, c model.Container, userID string, role model.Role) error {
	if _, err := r.Get(ctx, c, userID); err == nil {
		return fxerrors.ErrMembershipExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	var row any
	switch c.Kind {
	case model.ContainerTeam:
		row = &model.TeamMember{TeamID: c.ID, UserID: userID, Role: role}
	case model.ContainerProject:
		row = &model.ProjectMember{ProjectID: c.ID, UserID: userID, Role: role}
	default:
		return fmt.Errorf("unknown container kind %q", c.Kind)
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		// lost a race with a concurrent insert of the same pair
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fxerrors.ErrMembershipExists
		}
		return err
	}
	return nil
}

func (r *memberRepository) UpdateRole(ctx context.Context, c model.Container, userID string, role model.Role) (int64, error) {
	q, column, err := r.query(ctx, c.Kind)
	if err != nil {
		return 0, err
	}
	res := q.Where(column+" = ? AND user_id = ?", c.ID, userID).Update("role", role)
	return res.RowsAffected, res.Error
}

func (r *memberRepository) Delete(ctx context.Context, c model.Container, userID string) (int64, error) {
	var res *gorm.DB
	switch c.Kind {
	case model.ContainerTeam:
		res = r.db.WithContext(ctx).Where("team_id = ? AND user_id = ?", c.ID, userID).Delete(&model.TeamMember{})
	case model.ContainerProject:
		res = r.db.WithContext(ctx).Where("project_id = ? AND user_id = ?", c.ID, userID).Delete(&model.ProjectMember{})
	default:
		return 0, fmt.Errorf("unknown container kind %q", c.Kind)
	}
	return res.RowsAffected, res.Error
}

func (r *memberRepository) DeleteProjectsOfTeam(ctx context.Context, teamID, userID string) (int64, error) {
	projects := r.db.Model(&model.Project{}).Select("id").Where("team_id = ?", teamID)
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id IN (?)", userID, projects).
		Delete(&model.ProjectMember{})
	return res.RowsAffected, res.Error
}

func (r *memberRepository) DeleteUser(ctx context.Context, userID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&model.ProjectMember{}).Error; err != nil {
		return err
	}
	return db.Where("user_id = ?", userID).Delete(&model.TeamMember{}).Error
}

func (r *memberRepository) ContainerIDs(ctx context.Context, kind model.ContainerKind, userID string) ([]string, error) {
	q, column, err := r.query(ctx, kind)
	if err != nil {
		return nil, err
	}
	var ids []string
	err = q.Where("user_id = ?", userID).Pluck(column, &ids).Error
	return ids, err
}

func (r *memberRepository) UserIDs(ctx context.Context, kind model.ContainerKind, containerIDs []string) ([]string, error) {
	if len(containerIDs) == 0 {
		return nil, nil
	}
	q, column, err := r.query(ctx, kind)
	if err != nil {
		return nil, err
	}
	var ids []string
	err = q.Distinct("user_id").Where(column+" IN ?", containerIDs).Pluck("user_id", &ids).Error
	return ids, err
}
