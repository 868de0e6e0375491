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

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xmreur/Fluxa/management/database"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

func newProvider(t *testing.T) *LocalProvider {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	return NewLocalProvider(db, "test-secret", time.Hour)
}

func TestSignUpAndSignIn(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	sess, err := p.SignUp(ctx, "Alice@Example.com", "secret1", "Alice")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if sess.User.Email != "alice@example.com" || sess.User.DisplayName != "Alice" {
		t.Fatalf("user = %+v", sess.User)
	}

	t.Run("duplicate email", func(t *testing.T) {
		_, err := p.SignUp(ctx, "alice@example.com", "secret1", "")
		if !errors.Is(err, fxerrors.ErrEmailTaken) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("bad input", func(t *testing.T) {
		if _, err := p.SignUp(ctx, "not-an-email", "secret1", ""); !fxerrors.IsKind(err, fxerrors.KindValidation) {
			t.Fatalf("bad email err = %v", err)
		}
		if _, err := p.SignUp(ctx, "bob@example.com", "123", ""); !fxerrors.IsKind(err, fxerrors.KindValidation) {
			t.Fatalf("short password err = %v", err)
		}
	})

	t.Run("sign in", func(t *testing.T) {
		in, err := p.SignInWithPassword(ctx, "alice@example.com", "secret1")
		if err != nil {
			t.Fatal(err)
		}
		got, err := p.GetSession(ctx, in.AccessToken)
		if err != nil || got.User.ID != sess.User.ID {
			t.Fatalf("GetSession = %+v, %v", got, err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := p.SignInWithPassword(ctx, "alice@example.com", "nope123")
		if !errors.Is(err, fxerrors.ErrInvalidCredentials) {
			t.Fatalf("err = %v", err)
		}
		_, err = p.SignInWithPassword(ctx, "ghost@example.com", "nope123")
		if !errors.Is(err, fxerrors.ErrInvalidCredentials) {
			t.Fatalf("unknown user err = %v", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := p.GetSession(ctx, "garbage"); !fxerrors.IsKind(err, fxerrors.KindUnauthenticated) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestSignOutScopes(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	first, err := p.SignUp(ctx, "bob@example.com", "secret1", "Bob")
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.SignInWithPassword(ctx, "bob@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	if err := p.SignOut(ctx, first.AccessToken, ScopeLocal); err != nil {
		t.Fatal(err)
	}
	if _, err := p.GetSession(ctx, first.AccessToken); err == nil {
		t.Fatal("locally signed out token still valid")
	}
	if _, err := p.GetSession(ctx, second.AccessToken); err != nil {
		t.Fatalf("local sign out ended another session: %v", err)
	}

	third, err := p.SignInWithPassword(ctx, "bob@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SignOut(ctx, second.AccessToken, ScopeGlobal); err != nil {
		t.Fatal(err)
	}
	if _, err := p.GetSession(ctx, third.AccessToken); err == nil {
		t.Fatal("global sign out left a session alive")
	}

	fresh, err := p.SignInWithPassword(ctx, "bob@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.GetSession(ctx, fresh.AccessToken); err != nil {
		t.Fatalf("new session after global sign out: %v", err)
	}
}

func TestUpdateDeleteAndListeners(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	var mu sync.Mutex
	var events []Event
	unsubscribe := p.OnSessionChange(func(e Event, userID string, s *Session) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	sess, err := p.SignUp(ctx, "carol@example.com", "secret1", "")
	if err != nil {
		t.Fatal(err)
	}

	name := "Carol"
	u, err := p.UpdateUser(ctx, sess.User.ID, UserPatch{DisplayName: &name})
	if err != nil || u.DisplayName != "Carol" {
		t.Fatalf("UpdateUser = %+v, %v", u, err)
	}

	if err := p.DeleteUser(ctx, sess.User.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := p.GetSession(ctx, sess.AccessToken); err == nil {
		t.Fatal("token of deleted user still valid")
	}

	unsubscribe()
	_, _ = p.SignUp(ctx, "dave@example.com", "secret1", "")

	mu.Lock()
	defer mu.Unlock()
	want := []Event{EventSignedIn, EventUserUpdated, EventUserDeleted}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v", events)
		}
	}
}
