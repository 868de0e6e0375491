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
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xmreur/Fluxa/management/dto"
	"github.com/xmreur/Fluxa/management/service"
	"github.com/xmreur/Fluxa/management/vo"
	"github.com/xmreur/Fluxa/pkg/utils/resp"
)

func (s *Server) inviteRouter() {
	inviteApi := s.Group("/api/v1/invites")
	inviteApi.Use(s.auth())
	{
		inviteApi.GET("", s.handleInviteInbox())
		inviteApi.POST("/:id/accept", s.handleAcceptInvite())
		inviteApi.POST("/:id/decline", s.handleDeclineInvite())
		inviteApi.DELETE("/:id", s.handleRevokeInvite())
	}
}

func (s *Server) inboxRouter() {
	api := s.Group("/api/v1")
	api.Use(s.auth())
	{
		api.GET("/inbox", s.handleInbox())
		api.GET("/notifications", s.handleNotificationHistory())
		api.PUT("/notifications/:id/read", s.handleMarkRead())
		api.PUT("/notifications/read-all", s.handleMarkAllRead())
		api.GET("/search", s.handleSearch())
		api.GET("/dashboard", s.handleDashboard())
	}
}

func (s *Server) handleInviteInbox() gin.HandlerFunc {
	return func(c *gin.Context) {
		invites, err := s.services.Invites.Inbox(c.Request.Context(), actor(c))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, invites)
	}
}

func (s *Server) handleAcceptInvite() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := actor(c)
		accepted, err := s.services.Invites.Accept(c.Request.Context(), caller, c.Param("id"), s.services.Invites.InboxView(caller))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, accepted)
	}
}

func (s *Server) handleDeclineInvite() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := actor(c)
		view := s.services.Invites.InboxView(caller)
		if err := s.services.Invites.Decline(c.Request.Context(), caller, c.Param("id"), view); err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, view.Items())
	}
}

// handleRevokeInvite only knows the invite id, so there is no container view to refresh.
func (s *Server) handleRevokeInvite() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.services.Invites.Revoke(c.Request.Context(), actor(c), c.Param("id"), nil); err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, nil)
	}
}

func (s *Server) handleInbox() gin.HandlerFunc {
	return func(c *gin.Context) {
		inbox, err := s.services.Notifications.Inbox(c.Request.Context(), actor(c))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, inbox)
	}
}

func (s *Server) handleNotificationHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		var page dto.PageRequest
		if !bindQuery(c, &page) {
			return
		}
		history, err := s.services.Notifications.History(c.Request.Context(), actor(c), &page)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, history)
	}
}

func (s *Server) handleMarkRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.services.Notifications.MarkRead(c.Request.Context(), actor(c), c.Param("id")); err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, nil)
	}
}

func (s *Server) handleMarkAllRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := s.services.Notifications.MarkAllRead(c.Request.Context(), actor(c))
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, gin.H{"updated": n})
	}
}

// handleSearch answers a superseded query with the results of the newer one.
func (s *Server) handleSearch() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SearchDto
		if !bindQuery(c, &req) {
			return
		}
		query := strings.TrimSpace(req.Query)
		session := s.services.Search.Session(actor(c))
		results, err := session.Search(c.Request.Context(), query)
		switch {
		case errors.Is(err, service.ErrSuperseded):
			latest, shown := session.Latest()
			resp.OK(c, &vo.SearchVo{Query: latest, Results: shown, Superseded: true})
		case err != nil:
			resp.Fail(c, err)
		default:
			resp.OK(c, &vo.SearchVo{Query: query, Results: results})
		}
	}
}

func (s *Server) handleDashboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter dto.IssueFilter
		if !bindQuery(c, &filter) {
			return
		}
		stats, err := s.services.Dashboard.Stats(c.Request.Context(), actor(c), &filter)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, stats)
	}
}
