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

package dto

// RoleDto carries a role change. The role is parsed by the service so that
// unknown values fail with a precise message.
type RoleDto struct {
	Role string `json:"role" validate:"required"`
}

type InviteDto struct {
	Email string `json:"email" validate:"required,max=255"`
	Role  string `json:"role" validate:"required"`
}
