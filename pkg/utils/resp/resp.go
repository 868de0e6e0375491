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

// Package resp writes the JSON envelope every API response shares.
package resp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

var logger = log.GetLogger("resp")

type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func NewResponse(code int, msg string, data any) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
		Data: data,
	}
}

func write(c *gin.Context, code int, msg string, data any) {
	c.JSON(code, NewResponse(code, msg, data))
}

func OK(c *gin.Context, data any) {
	write(c, http.StatusOK, "success", data)
}

func Created(c *gin.Context, data any) {
	write(c, http.StatusCreated, "success", data)
}

func BadRequest(c *gin.Context, msg string) {
	write(c, http.StatusBadRequest, msg, nil)
}

func Unauthorized(c *gin.Context, msg string) {
	write(c, http.StatusUnauthorized, msg, nil)
}

func Forbidden(c *gin.Context, msg string) {
	write(c, http.StatusForbidden, msg, nil)
}

func NotFound(c *gin.Context, msg string) {
	write(c, http.StatusNotFound, msg, nil)
}

func Error(c *gin.Context, msg string) {
	write(c, http.StatusInternalServerError, msg, nil)
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	switch fxerrors.KindOf(err) {
	case fxerrors.KindPermissionDenied:
		return http.StatusForbidden
	case fxerrors.KindValidation:
		return http.StatusBadRequest
	case fxerrors.KindNotFound:
		return http.StatusNotFound
	case fxerrors.KindConcurrentMutation, fxerrors.KindPartialFailure:
		return http.StatusConflict
	case fxerrors.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

// Fail renders err with the status of its kind. Only the user facing message
// leaves the server; the cause is logged.
func Fail(c *gin.Context, err error) {
	code := StatusOf(err)
	if code >= http.StatusInternalServerError || code == http.StatusConflict {
		logger.Error("request failed", err, "method", c.Request.Method, "path", c.FullPath(), "status", code)
	}
	write(c, code, fxerrors.UserMessage(err), nil)
}
