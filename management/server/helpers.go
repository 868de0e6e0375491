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
	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/server/middleware"
	"github.com/xmreur/Fluxa/management/service"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"github.com/xmreur/Fluxa/pkg/utils/resp"
)

var (
	errMalformedBody  = fxerrors.Invalid("malformed request body")
	errMalformedQuery = fxerrors.Invalid("malformed query parameters")

	bindLogger = log.GetLogger("http")
)

// actor returns the signed-in caller set by the auth middleware.
func actor(c *gin.Context) service.Actor {
	return service.Actor{
		ID:    c.GetString(middleware.UserIDKey),
		Email: c.GetString(middleware.EmailKey),
	}
}

// bindJSON decodes the body into v and answers 400 when it is malformed. The
// decoder error stays in the log.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		bindLogger.Verbosef("bind body of %s %s: %v", c.Request.Method, c.FullPath(), err)
		resp.Fail(c, errMalformedBody.Wrap(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, v any) bool {
	if err := c.ShouldBindQuery(v); err != nil {
		bindLogger.Verbosef("bind query of %s %s: %v", c.Request.Method, c.FullPath(), err)
		resp.Fail(c, errMalformedQuery.Wrap(err))
		return false
	}
	return true
}
