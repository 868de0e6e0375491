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

// Package session scopes the authenticated user and their profile to one
// owner: an HTTP request, or a long lived client in tests.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/auth"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"gorm.io/gorm"
)

const (
	defaultUsername = "New User"
	guestUsername   = "Guest"
)

// Handler observes changes of the signed-in user. Both values are nil after
// sign-out or account deletion.
type Handler func(user *auth.User, profile *model.Profile)

// Subscription is returned by OnChange; Unsubscribe stops delivery.
type Subscription struct {
	id  int
	ctx *Context
}

func (s Subscription) Unsubscribe() {
	if s.ctx == nil {
		return
	}
	s.ctx.mu.Lock()
	delete(s.ctx.handlers, s.id)
	s.ctx.mu.Unlock()
}

// Context holds one user's session. It is created per owner and torn down
// with it; there is no process wide current user.
type Context struct {
	log      *log.Logger
	provider auth.Provider
	profiles *repository.ProfileRepository
	token    string

	mu          sync.RWMutex
	user        *auth.User
	profile     *model.Profile
	handlers    map[int]Handler
	nextID      int
	unsubscribe func()
	closed      bool
}

func New(provider auth.Provider, profiles *repository.ProfileRepository, accessToken string) *Context {
	return &Context{
		log:      log.GetLogger("session"),
		provider: provider,
		profiles: profiles,
		token:    accessToken,
		handlers: make(map[int]Handler),
	}
}

// Initialize resolves the token into a user and loads, or lazily creates, the
// profile. When the profile cannot be loaded a Guest profile stands in.
func (c *Context) Initialize(ctx context.Context) (*auth.User, *model.Profile, error) {
	sess, err := c.provider.GetSession(ctx, c.token)
	if err != nil {
		return nil, nil, err
	}
	user := sess.User

	profile, err := EnsureProfile(ctx, c.profiles, &user)
	if err != nil {
		c.log.Warn("profile unavailable, using guest profile", "user", user.ID, "err", err)
		profile = guestProfile(&user)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, nil, fxerrors.ErrUnauthenticated
	}
	c.user = &user
	c.profile = profile
	if c.unsubscribe == nil {
		c.unsubscribe = c.provider.OnSessionChange(c.onProviderEvent)
	}
	return c.user, c.profile, nil
}

// User returns the signed-in user or nil.
func (c *Context) User() *auth.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Context) Profile() *model.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

func (c *Context) AccessToken() string {
	return c.token
}

// OnChange registers h for session changes.
func (c *Context) OnChange(h Handler) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = h
	return Subscription{id: id, ctx: c}
}

// Teardown drops the provider subscription and every handler. The context
// cannot be initialized again afterwards.
func (c *Context) Teardown() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.closed = true
	c.handlers = make(map[int]Handler)
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Context) onProviderEvent(event auth.Event, userID string, sess *auth.Session) {
	c.mu.Lock()
	if c.closed || c.user == nil || c.user.ID != userID {
		c.mu.Unlock()
		return
	}
	switch event {
	case auth.EventSignedOut, auth.EventUserDeleted:
		c.user = nil
		c.profile = nil
	case auth.EventUserUpdated, auth.EventSignedIn:
		if sess != nil {
			u := sess.User
			c.user = &u
		}
	default:
		c.mu.Unlock()
		return
	}
	user, profile := c.user, c.profile
	handlers := make([]Handler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(user, profile)
	}
}

// EnsureProfile returns the user's profile, creating it on first sign-in with
// the sign-up display name as username.
func EnsureProfile(ctx context.Context, profiles *repository.ProfileRepository, user *auth.User) (*model.Profile, error) {
	p, err := profiles.Get(ctx, user.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	username := strings.TrimSpace(user.DisplayName)
	if username == "" {
		username = defaultUsername
	}
	p = &model.Profile{
		ID:       user.ID,
		Email:    model.NormalizeEmail(user.Email),
		Username: username,
	}
	if err := profiles.Create(ctx, p); err != nil {
		// another request created it first
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return profiles.Get(ctx, user.ID)
		}
		return nil, err
	}
	return p, nil
}

func guestProfile(user *auth.User) *model.Profile {
	return &model.Profile{ID: user.ID, Email: user.Email, Username: guestUsername}
}
