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

package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xmreur/Fluxa/internal/infra"
	"github.com/xmreur/Fluxa/management/auth"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/management/session"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"github.com/xmreur/Fluxa/pkg/utils/resp"
)

const (
	// SessionKey holds the request's *session.Context.
	SessionKey = "session"
	UserIDKey  = "user_id"
	EmailKey   = "email"
)

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}

// AuthMiddleware resolves the bearer token into a session scoped to the
// request. The session is torn down once the handlers are done.
func AuthMiddleware(provider auth.Provider, profiles *repository.ProfileRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			resp.Unauthorized(c, fxerrors.KindUnauthenticated.Message())
			c.Abort()
			return
		}

		sess := session.New(provider, profiles, token)
		defer sess.Teardown()
		user, _, err := sess.Initialize(c.Request.Context())
		if err != nil {
			resp.Fail(c, fxerrors.ErrInvalidToken.Wrap(err))
			c.Abort()
			return
		}

		c.Set(SessionKey, sess)
		c.Set(UserIDKey, user.ID)
		c.Set(EmailKey, user.Email)
		ctx := context.WithValue(c.Request.Context(), infra.UserIDKey, user.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Session returns the request's session set by AuthMiddleware.
func Session(c *gin.Context) *session.Context {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Context)
	return sess
}
