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
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/auth"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/management/server/middleware"
	"github.com/xmreur/Fluxa/management/service"
)

// Server is the HTTP API of fluxa.
type Server struct {
	*gin.Engine
	logger *log.Logger
	listen string
	http   *http.Server

	provider auth.Provider
	profiles *repository.ProfileRepository
	services *service.Services
}

// ServerConfig is the server configuration.
type ServerConfig struct {
	Listen      string
	Provider    auth.Provider
	Profiles    *repository.ProfileRepository
	Services    *service.Services
	CORSOrigins []string
	// Files serves uploaded objects under FilesPath when set.
	Files       http.FileSystem
	FilesPath   string
	MetricsPath string
}

// NewServer creates a new server.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.Provider == nil || cfg.Services == nil || cfg.Profiles == nil {
		return nil, errors.New("server: provider, profiles and services are required")
	}

	s := &Server{
		logger:   log.GetLogger("server"),
		listen:   cfg.Listen,
		provider: cfg.Provider,
		profiles: cfg.Profiles,
		services: cfg.Services,
	}

	s.Engine = gin.New()
	s.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), middleware.CORSMiddleware(cfg.CORSOrigins...))

	s.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	if cfg.MetricsPath != "" {
		s.GET(cfg.MetricsPath, gin.WrapH(promhttp.Handler()))
	}
	if cfg.Files != nil && cfg.FilesPath != "" {
		s.StaticFS(cfg.FilesPath, cfg.Files)
	}

	s.apiRouter()
	return s, nil
}

func (s *Server) auth() gin.HandlerFunc {
	return middleware.AuthMiddleware(s.provider, s.profiles)
}

func (s *Server) apiRouter() {
	s.authRouter()
	s.teamRouter()
	s.projectRouter()
	s.inviteRouter()
	s.issueRouter()
	s.inboxRouter()
	s.profileRouter()
}

// Start serves HTTP until ctx is done, then shuts down gracefully within timeout.
func (s *Server) Start(ctx context.Context, timeout time.Duration) error {
	s.http = &http.Server{
		Addr:              s.listen,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Infof("API server listening on %s", s.listen)
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.logger.Info("shutting down API server")
	return s.http.Shutdown(ctx)
}
