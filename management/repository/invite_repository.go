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

type InviteRepository interface {
	WithTx(tx *gorm.DB) InviteRepository

	Create(ctx context.Context, invite *model.Invite) error
	// Get returns the invite or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Invite, error)
	// Delete removes the invite and reports whether this call removed it.
	Delete(ctx context.Context, id string) (bool, error)
	ListByContainers(ctx context.Context, kind model.ContainerKind, containerIDs []string) ([]*model.Invite, error)
	ListByEmail(ctx context.Context, email string) ([]*model.Invite, error)
	// FindPending returns the pending invite for email in c, or ErrNotFound.
	FindPending(ctx context.Context, c model.Container, email string) (*model.Invite, error)
}

var (
	_ InviteRepository = (*inviteRepository)(nil)
)

type inviteRepository struct {
	*BaseRepository[model.Invite]
}

func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{BaseRepository: NewBaseRepository[model.Invite](db)}
}

func (r *inviteRepository) WithTx(tx *gorm.DB) InviteRepository {
	return NewInviteRepository(tx)
}

func containerColumn(kind model.ContainerKind) string {
	if kind == model.ContainerTeam {
		return "team_id"
	}
	return "project_id"
}

func (r *inviteRepository) Get(ctx context.Context, id string) (*model.Invite, error) {
	return r.First(ctx, WithID(id))
}

func (r *inviteRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := r.BaseRepository.Delete(ctx, WithID(id))
	return n > 0, err
}

func (r *inviteRepository) ListByContainers(ctx context.Context, kind model.ContainerKind, containerIDs []string) ([]*model.Invite, error) {
	return r.Find(ctx, WithIn(containerColumn(kind), containerIDs), OrderBy("created_at", true))
}

func (r *inviteRepository) ListByEmail(ctx context.Context, email string) ([]*model.Invite, error) {
	return r.Find(ctx, WithEq("invitee_email", model.NormalizeEmail(email)), OrderBy("created_at", true))
}

func (r *inviteRepository) FindPending(ctx context.Context, c model.Container, email string) (*model.Invite, error) {
	return r.First(ctx,
		WithEq(containerColumn(c.Kind), c.ID),
		WithEq("invitee_email", model.NormalizeEmail(email)),
	)
}
