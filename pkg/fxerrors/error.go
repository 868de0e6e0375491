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

package fxerrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the caller. Every kind has its own user facing message.
type Kind int

const (
	KindUnknown Kind = iota
	KindPermissionDenied
	KindValidation
	KindRemoteFailure
	KindPartialFailure
	KindNotFound
	KindConcurrentMutation
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission_denied"
	case KindValidation:
		return "validation_error"
	case KindRemoteFailure:
		return "remote_failure"
	case KindPartialFailure:
		return "partial_failure"
	case KindNotFound:
		return "not_found"
	case KindConcurrentMutation:
		return "concurrent_mutation"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Message is the generic text shown when an error carries no message of its own.
func (k Kind) Message() string {
	switch k {
	case KindPermissionDenied:
		return "you do not have permission to perform this action"
	case KindValidation:
		return "the request is invalid"
	case KindPartialFailure:
		return "the operation only partially completed"
	case KindNotFound:
		return "the requested item was not found"
	case KindConcurrentMutation:
		return "another change to this item is still in progress"
	case KindUnauthenticated:
		return "please sign in to continue"
	default:
		return "the server could not complete the request, please retry"
	}
}

// Error is a classified failure. Msg is safe to show to users, Err is the technical
// cause and is only logged.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Message()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same kind and message, so a sentinel still matches
// after it was re-created with a cause attached.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg
}

// Wrap attaches cause to a copy of e.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Msg: e.Msg, Err: cause}
}

func Denied(format string, args ...any) *Error {
	return &Error{Kind: KindPermissionDenied, Msg: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Msg: what + " not found"}
}

// Remote wraps a store or provider failure. Already classified errors pass through.
func Remote(err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Kind: KindRemoteFailure, Err: err}
}

func Partial(msg string, cause error) *Error {
	return &Error{Kind: KindPartialFailure, Msg: msg, Err: cause}
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage renders err for end users. Technical causes never leak: remote
// failures and unclassified errors collapse to the generic retry message.
func UserMessage(err error) string {
	var fe *Error
	if !errors.As(err, &fe) {
		return KindRemoteFailure.Message()
	}
	if fe.Kind == KindRemoteFailure || fe.Kind == KindUnknown || fe.Msg == "" {
		return fe.Kind.Message()
	}
	return fe.Msg
}

var (
	ErrUnauthenticated     = New(KindUnauthenticated, "")
	ErrInvalidToken        = New(KindUnauthenticated, "invalid or expired token")
	ErrInvalidCredentials  = New(KindUnauthenticated, "invalid email or password")
	ErrEmailTaken          = New(KindValidation, "email already registered")
	ErrNoAccessPermissions = New(KindPermissionDenied, "no permissions to access this resource, please contact the owner")

	ErrInvalidRole          = New(KindValidation, "role must be one of member, admin")
	ErrOwnerRoleImmutable   = New(KindPermissionDenied, "the owner role cannot be changed")
	ErrCannotRemoveOwner    = New(KindPermissionDenied, "the owner cannot be removed")
	ErrMembershipExists     = New(KindValidation, "user is already a member")
	ErrMemberNotFound       = New(KindNotFound, "member not found")
	ErrNotTeamMember        = New(KindValidation, "user must be a member of the owning team first")
	ErrInvitationExists     = New(KindValidation, "invitation already exists")
	ErrInviteNotFound       = New(KindNotFound, "invite not found")
	ErrInviteNotAddressed   = New(KindPermissionDenied, "this invite is addressed to another user")
	ErrInviteConsumed       = New(KindPartialFailure, "invite consumed without membership granted")
	ErrInvalidEmail         = New(KindValidation, "invalid email address")
	ErrTeamNotFound         = New(KindNotFound, "team not found")
	ErrProjectNotFound      = New(KindNotFound, "project not found")
	ErrIssueNotFound        = New(KindNotFound, "issue not found")
	ErrLabelNotFound        = New(KindNotFound, "label not found")
	ErrCommentNotFound      = New(KindNotFound, "comment not found")
	ErrNotificationNotFound = New(KindNotFound, "notification not found")
	ErrProfileNotFound      = New(KindNotFound, "profile not found")
	ErrConcurrentMutation   = New(KindConcurrentMutation, "")
	ErrCreationIncomplete   = New(KindPartialFailure, "created without owner membership")
	ErrObjectExists         = New(KindValidation, "object already exists")
)
