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

import "time"

// Role is a membership role inside a team or a project.
type Role string

const (
	RoleNone   Role = ""
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ContainerKind tells teams and projects apart.
type ContainerKind string

const (
	ContainerTeam    ContainerKind = "team"
	ContainerProject ContainerKind = "project"
)

// Container identifies a team or a project.
type Container struct {
	Kind ContainerKind `json:"kind"`
	ID   string        `json:"id"`
}

func TeamContainer(id string) Container    { return Container{Kind: ContainerTeam, ID: id} }
func ProjectContainer(id string) Container { return Container{Kind: ContainerProject, ID: id} }

func (c Container) String() string { return string(c.Kind) + "/" + c.ID }

// Membership is the container independent view of a team_members or
// project_members row.
type Membership struct {
	Kind        ContainerKind `gorm:"-" json:"kind"`
	ContainerID string        `json:"container_id"`
	UserID      string        `json:"user_id"`
	Role        Role          `json:"role"`
	CreatedAt   time.Time     `json:"created_at"`
}
