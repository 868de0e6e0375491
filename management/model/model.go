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

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model is embedded by every entity with a generated string id. Rows are hard deleted.
type Model struct {
	ID        string    `gorm:"primaryKey;type:varchar(36);autoIncrement:false" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Model) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// All lists every persisted entity, in migration order.
func All() []any {
	return []any{
		&Profile{},
		&Credential{},
		&Team{},
		&TeamMember{},
		&Project{},
		&ProjectMember{},
		&Invite{},
		&Label{},
		&Issue{},
		&Comment{},
		&Vote{},
		&Notification{},
	}
}
