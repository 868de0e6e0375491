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
	"testing"
)

func TestKindMessagesDistinct(t *testing.T) {
	kinds := []Kind{
		KindPermissionDenied, KindValidation, KindRemoteFailure, KindPartialFailure,
		KindNotFound, KindConcurrentMutation, KindUnauthenticated,
	}
	seen := map[string]Kind{}
	for _, k := range kinds {
		msg := k.Message()
		if prev, ok := seen[msg]; ok {
			t.Fatalf("%s and %s share message %q", prev, k, msg)
		}
		seen[msg] = k
	}
}

func TestSentinelMatchesAfterWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("accept invite: %w", ErrInviteConsumed.Wrap(cause))

	if !errors.Is(err, ErrInviteConsumed) {
		t.Fatal("wrapped sentinel must match")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause must stay reachable")
	}
	if KindOf(err) != KindPartialFailure {
		t.Fatalf("kind = %s", KindOf(err))
	}
	if errors.Is(err, ErrInviteNotFound) {
		t.Fatal("different sentinel must not match")
	}
}

func TestRemote(t *testing.T) {
	if Remote(nil) != nil {
		t.Fatal("nil must stay nil")
	}

	raw := errors.New("dial tcp: timeout")
	err := Remote(raw)
	if !IsKind(err, KindRemoteFailure) {
		t.Fatalf("kind = %s", KindOf(err))
	}

	classified := Denied("nope")
	if got := Remote(classified); got != error(classified) {
		t.Fatal("classified errors pass through unchanged")
	}
}

func TestUserMessageHidesCause(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain error", errors.New("pq: relation missing"), KindRemoteFailure.Message()},
		{"remote", Remote(errors.New("secret dsn")), KindRemoteFailure.Message()},
		{"denied", Denied("only the owner can change roles"), "only the owner can change roles"},
		{"partial", ErrInviteConsumed.Wrap(errors.New("insert failed")), "invite consumed without membership granted"},
		{"empty message", ErrConcurrentMutation, KindConcurrentMutation.Message()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Fatalf("UserMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
