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
	"github.com/xmreur/Fluxa/pkg/utils/resp"
)

func (s *Server) issueRouter() {
	issueApi := s.Group("/api/v1/issues")
	issueApi.Use(s.auth())
	{
		issueApi.GET("", s.handleListIssues())
		issueApi.POST("", s.handleCreateIssue())
		issueApi.GET("/:id", s.handleGetIssue())
		issueApi.PUT("/:id", s.handleUpdateIssue())
		issueApi.DELETE("/:id", s.handleDeleteIssue())
		issueApi.POST("/:id/vote", s.handleToggleVote())
		issueApi.POST("/:id/comments", s.handleAddComment())
		issueApi.POST("/:id/labels/:label_id", s.handleAttachLabel())
		issueApi.DELETE("/:id/labels/:label_id", s.handleDetachLabel())
	}

	commentApi := s.Group("/api/v1/comments")
	commentApi.Use(s.auth())
	{
		commentApi.PUT("/:id", s.handleEditComment())
	}

	labelApi := s.Group("/api/v1/labels")
	labelApi.Use(s.auth())
	{
		labelApi.PUT("/:id", s.handleUpdateLabel())
		labelApi.DELETE("/:id", s.handleDeleteLabel())
	}
}

func (s *Server) handleListIssues() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter dto.IssueFilter
		if !bindQuery(c, &filter) {
			return
		}
		issues, err := s.services.Issues.List(c.Request.Context(), actor(c), &filter)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, issues)
	}
}

func (s *Server) handleCreateIssue() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.IssueDto
		if !bindJSON(c, &req) {
			return
		}
		issue, err := s.services.Issues.Create(c.Request.Context(), actor(c), &req, s.services.Issues.NewView(req.ProjectID))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.Created(c, issue)
	}
}

func (s *Server) handleGetIssue() gin.HandlerFunc {
	return func(c *gin.Context) {
		issue, err := s.services.Issues.Get(c.Request.Context(), actor(c), c.Param("id"))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, issue)
	}
}

func (s *Server) handleUpdateIssue() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.IssueUpdateDto
		if !bindJSON(c, &req) {
			return
		}
		issue, err := s.services.Issues.Update(c.Request.Context(), actor(c), c.Param("id"), &req, nil)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, issue)
	}
}

func (s *Server) handleDeleteIssue() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.services.Issues.Delete(c.Request.Context(), actor(c), c.Param("id"), nil); err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, nil)
	}
}

func (s *Server) handleToggleVote() gin.HandlerFunc {
	return func(c *gin.Context) {
		vote, err := s.services.Issues.ToggleVote(c.Request.Context(), actor(c), c.Param("id"), s.services.Issues.NewVoteView(c.Param("id")))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, vote)
	}
}

func (s *Server) handleAddComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CommentDto
		if !bindJSON(c, &req) {
			return
		}
		comment, err := s.services.Issues.AddComment(c.Request.Context(), actor(c), c.Param("id"), &req)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.Created(c, comment)
	}
}

func (s *Server) handleEditComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CommentDto
		if !bindJSON(c, &req) {
			return
		}
		comment, err := s.services.Issues.EditComment(c.Request.Context(), actor(c), c.Param("id"), &req)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, comment)
	}
}

func (s *Server) handleAttachLabel() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.services.Labels.Attach(c.Request.Context(), actor(c), c.Param("id"), c.Param("label_id")); err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, nil)
	}
}

func (s *Server) handleDetachLabel() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.services.Labels.Detach(c.Request.Context(), actor(c), c.Param("id"), c.Param("label_id")); err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, nil)
	}
}

func (s *Server) handleListLabels() gin.HandlerFunc {
	return func(c *gin.Context) {
		labels, err := s.services.Labels.List(c.Request.Context(), actor(c), c.Param("id"))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, labels)
	}
}

func (s *Server) handleCreateLabel() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.LabelDto
		if !bindJSON(c, &req) {
			return
		}
		label, err := s.services.Labels.Create(c.Request.Context(), actor(c), c.Param("id"), &req, s.services.Labels.NewView(c.Param("id")))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.Created(c, label)
	}
}

func (s *Server) handleUpdateLabel() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.LabelDto
		if !bindJSON(c, &req) {
			return
		}
		label, err := s.services.Labels.Update(c.Request.Context(), actor(c), c.Param("id"), &req, nil)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, label)
	}
}

func (s *Server) handleDeleteLabel() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.services.Labels.Delete(c.Request.Context(), actor(c), c.Param("id"), nil); err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, nil)
	}
}
