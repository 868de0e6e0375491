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
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/pkg/utils/resp"
)

func (s *Server) teamRouter() {
	teamApi := s.Group("/api/v1/teams")
	teamApi.Use(s.auth())
	{
		teamApi.POST("", s.handleCreateTeam())
		teamApi.GET("", s.handleListTeams())
		teamApi.GET("/:id", s.handleGetTeam())
		teamApi.PUT("/:id", s.handleUpdateTeam())
	}
	s.containerRoutes(teamApi, model.TeamContainer)
}

func (s *Server) projectRouter() {
	projectApi := s.Group("/api/v1/projects")
	projectApi.Use(s.auth())
	{
		projectApi.POST("", s.handleCreateProject())
		projectApi.GET("", s.handleListProjects())
		projectApi.GET("/:id", s.handleGetProject())
		projectApi.PUT("/:id", s.handleUpdateProject())
		projectApi.GET("/:id/labels", s.handleListLabels())
		projectApi.POST("/:id/labels", s.handleCreateLabel())
	}
	s.containerRoutes(projectApi, model.ProjectContainer)
}

// containerRoutes registers the member and invite endpoints a team and a
// project share. of turns the :id path parameter into the container.
func (s *Server) containerRoutes(g *gin.RouterGroup, of func(id string) model.Container) {
	g.GET("/:id/members", s.handleListMembers(of))
	g.PUT("/:id/members/:user_id", s.handleChangeRole(of))
	g.DELETE("/:id/members/:user_id", s.handleRemoveMember(of))
	g.POST("/:id/invites", s.handleCreateInvite(of))
	g.GET("/:id/invites", s.handleListInvites(of))
}

func (s *Server) handleCreateTeam() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.TeamDto
		if !bindJSON(c, &req) {
			return
		}
		team, err := s.services.Teams.Create(c.Request.Context(), actor(c), &req)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.Created(c, team)
	}
}

func (s *Server) handleListTeams() gin.HandlerFunc {
	return func(c *gin.Context) {
		teams, err := s.services.Teams.ListMine(c.Request.Context(), actor(c))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, teams)
	}
}

func (s *Server) handleGetTeam() gin.HandlerFunc {
	return func(c *gin.Context) {
		team, err := s.services.Teams.Get(c.Request.Context(), actor(c), c.Param("id"))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, team)
	}
}

func (s *Server) handleUpdateTeam() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.TeamUpdateDto
		if !bindJSON(c, &req) {
			return
		}
		team, err := s.services.Teams.Update(c.Request.Context(), actor(c), c.Param("id"), &req)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, team)
	}
}

func (s *Server) handleCreateProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ProjectDto
		if !bindJSON(c, &req) {
			return
		}
		project, err := s.services.Projects.Create(c.Request.Context(), actor(c), &req)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.Created(c, project)
	}
}

func (s *Server) handleListProjects() gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := s.services.Projects.List(c.Request.Context(), actor(c))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, projects)
	}
}

func (s *Server) handleGetProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		project, err := s.services.Projects.Get(c.Request.Context(), actor(c), c.Param("id"))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, project)
	}
}

func (s *Server) handleUpdateProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ProjectUpdateDto
		if !bindJSON(c, &req) {
			return
		}
		project, err := s.services.Projects.Update(c.Request.Context(), actor(c), c.Param("id"), &req)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, project)
	}
}

func (s *Server) handleListMembers(of func(string) model.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		members, err := s.services.Members.List(c.Request.Context(), actor(c), of(c.Param("id")))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, members)
	}
}

// handleChangeRole answers with the member list refreshed after the change.
func (s *Server) handleChangeRole(of func(string) model.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.RoleDto
		if !bindJSON(c, &req) {
			return
		}
		container := of(c.Param("id"))
		view := s.services.Members.NewView(container)
		if err := s.services.Members.ChangeRole(c.Request.Context(), actor(c), container, c.Param("user_id"), req.Role, view); err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, view.Items())
	}
}

func (s *Server) handleRemoveMember(of func(string) model.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		container := of(c.Param("id"))
		view := s.services.Members.NewView(container)
		err := s.services.Members.Remove(c.Request.Context(), actor(c), container, c.Param("user_id"), view)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, view.Items())
	}
}

func (s *Server) handleCreateInvite(of func(string) model.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.InviteDto
		if !bindJSON(c, &req) {
			return
		}
		container := of(c.Param("id"))
		invite, err := s.services.Invites.Create(c.Request.Context(), actor(c), container, &req, s.services.Invites.ContainerView(container))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.Created(c, invite)
	}
}

func (s *Server) handleListInvites(of func(string) model.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		invites, err := s.services.Invites.ContainerInvites(c.Request.Context(), actor(c), of(c.Param("id")))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, invites)
	}
}
