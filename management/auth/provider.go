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

// Package auth defines the authentication provider the rest of the server
// depends on, and ships a self-contained implementation backed by the database.
package auth

import (
	"context"
	"time"
)

// User is the authenticated account, independent of its profile row.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

type Event string

const (
	EventSignedIn    Event = "SIGNED_IN"
	EventSignedOut   Event = "SIGNED_OUT"
	EventUserUpdated Event = "USER_UPDATED"
	EventUserDeleted Event = "USER_DELETED"
)

// SignOutScope selects which sessions a sign-out ends.
type SignOutScope string

const (
	// ScopeLocal ends the session of the presented token only.
	ScopeLocal SignOutScope = "local"
	// ScopeGlobal ends every session of the user.
	ScopeGlobal SignOutScope = "global"
)

func ParseScope(s string) SignOutScope {
	if SignOutScope(s) == ScopeGlobal {
		return ScopeGlobal
	}
	return ScopeLocal
}

// UserPatch changes the fields that are set.
type UserPatch struct {
	DisplayName *string
	Password    *string
}

// Listener observes session changes. The session is nil for sign-out and deletion.
type Listener func(event Event, userID string, session *Session)

type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string, scope SignOutScope) error
	// GetSession validates the token and returns the session it belongs to.
	GetSession(ctx context.Context, accessToken string) (*Session, error)
	UpdateUser(ctx context.Context, userID string, patch UserPatch) (*User, error)
	DeleteUser(ctx context.Context, userID string) error
	// OnSessionChange registers l and returns a function that unregisters it.
	OnSessionChange(l Listener) (unsubscribe func())
}
