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
	"github.com/xmreur/Fluxa/management/dto"
	"github.com/xmreur/Fluxa/management/service"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"github.com/xmreur/Fluxa/pkg/utils/resp"
)

// avatarField is the multipart field carrying the picture.
const avatarField = "file"

func (s *Server) profileRouter() {
	profileApi := s.Group("/api/v1/profile")
	profileApi.Use(s.auth())
	{
		profileApi.GET("", s.handleGetProfile())
		profileApi.PUT("/username", s.handleUpdateUsername())
		profileApi.POST("/avatar", s.handleUploadAvatar())
		profileApi.DELETE("", s.handleDeleteAccount())
	}
}

func (s *Server) handleGetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := s.services.Profiles.Get(c.Request.Context(), actor(c).ID)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, profile)
	}
}

func (s *Server) handleUpdateUsername() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ProfileDto
		if !bindJSON(c, &req) {
			return
		}
		profile, err := s.services.Profiles.UpdateUsername(c.Request.Context(), actor(c), &req)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, profile)
	}
}

func (s *Server) handleUploadAvatar() gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile(avatarField)
		if err != nil {
			resp.BadRequest(c, "missing avatar file")
			return
		}
		if header.Size > service.MaxAvatarSize {
			resp.Fail(c, fxerrors.Invalid("file too large (max 2MB)"))
			return
		}
		file, err := header.Open()
		if err != nil {
			resp.Fail(c, fxerrors.Remote(err))
			return
		}
		defer file.Close()

		profile, err := s.services.Profiles.UploadAvatar(c.Request.Context(), actor(c), header.Filename, file)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, profile)
	}
}

// handleDeleteAccount removes the caller's account. A partial failure still
// answers 409 so the client knows the profile is gone.
func (s *Server) handleDeleteAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.services.Profiles.DeleteAccount(c.Request.Context(), actor(c)); err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, nil)
	}
}
