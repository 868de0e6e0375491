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

package server

import (
	"github.com/gin-gonic/gin"
	"github.com/xmreur/Fluxa/management/auth"
	"github.com/xmreur/Fluxa/management/dto"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/server/middleware"
	"github.com/xmreur/Fluxa/management/session"
	"github.com/xmreur/Fluxa/management/vo"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"github.com/xmreur/Fluxa/pkg/utils"
	"github.com/xmreur/Fluxa/pkg/utils/resp"
)

func (s *Server) authRouter() {
	authApi := s.Group("/api/v1/auth")
	{
		authApi.POST("/signup", s.handleSignUp())
		authApi.POST("/signin", s.handleSignIn())
	}

	sessionApi := s.Group("/api/v1/auth")
	sessionApi.Use(s.auth())
	{
		sessionApi.POST("/signout", s.handleSignOut())
		sessionApi.GET("/me", s.handleMe())
		sessionApi.PUT("/password", s.handleChangePassword())
	}
}

func (s *Server) handleSignUp() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SignUpDto
		if !bindJSON(c, &req) {
			return
		}
		if err := utils.ValidateStruct(&req); err != nil {
			resp.Fail(c, err)
			return
		}

		ctx := c.Request.Context()
		sess, err := s.provider.SignUp(ctx, model.NormalizeEmail(req.Email), req.Password, req.DisplayName)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		if _, err := session.EnsureProfile(ctx, s.profiles, &sess.User); err != nil {
			s.logger.Warn("profile not created at sign-up", "user", sess.User.ID, "err", err)
		}
		resp.Created(c, sess)
	}
}

func (s *Server) handleSignIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SignInDto
		if !bindJSON(c, &req) {
			return
		}
		if err := utils.ValidateStruct(&req); err != nil {
			resp.Fail(c, err)
			return
		}

		sess, err := s.provider.SignInWithPassword(c.Request.Context(), model.NormalizeEmail(req.Email), req.Password)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, sess)
	}
}

func (s *Server) handleSignOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SignOutDto
		// the body is optional, a bare POST signs out locally
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}
		if err := utils.ValidateStruct(&req); err != nil {
			resp.Fail(c, err)
			return
		}

		token, _ := middleware.BearerToken(c)
		if err := s.provider.SignOut(c.Request.Context(), token, auth.ParseScope(req.Scope)); err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, nil)
	}
}

func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middleware.Session(c)
		if sess == nil || sess.User() == nil {
			resp.Fail(c, fxerrors.ErrUnauthenticated)
			return
		}
		resp.OK(c, &vo.AccountVo{User: sess.User(), Profile: sess.Profile()})
	}
}

func (s *Server) handleChangePassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.PasswordDto
		if !bindJSON(c, &req) {
			return
		}
		if err := utils.ValidateStruct(&req); err != nil {
			resp.Fail(c, err)
			return
		}

		user, err := s.provider.UpdateUser(c.Request.Context(), actor(c).ID, auth.UserPatch{Password: &req.Password})
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, user)
	}
}
