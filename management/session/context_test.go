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

package session

import (
	"context"
	"testing"
	"time"

	"github.com/xmreur/Fluxa/management/auth"
	"github.com/xmreur/Fluxa/management/database"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

func setup(t *testing.T) (*auth.LocalProvider, *repository.ProfileRepository) {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	return auth.NewLocalProvider(db, "test-secret", time.Hour), repository.NewProfileRepository(db)
}

func TestInitializeCreatesProfile(t *testing.T) {
	provider, profiles := setup(t)
	ctx := context.Background()

	t.Run("display name becomes username", func(t *testing.T) {
		sess, err := provider.SignUp(ctx, "alice@example.com", "secret1", "Alice")
		if err != nil {
			t.Fatal(err)
		}
		c := New(provider, profiles, sess.AccessToken)
		defer c.Teardown()

		user, profile, err := c.Initialize(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if user.ID != profile.ID || profile.Username != "Alice" || profile.Email != "alice@example.com" {
			t.Fatalf("user %+v profile %+v", user, profile)
		}
		if _, err := profiles.Get(ctx, user.ID); err != nil {
			t.Fatalf("profile not persisted: %v", err)
		}

		// a second session reuses the stored row
		again := New(provider, profiles, sess.AccessToken)
		defer again.Teardown()
		if _, p, err := again.Initialize(ctx); err != nil || p.Username != "Alice" {
			t.Fatalf("second init: %+v %v", p, err)
		}
	})

	t.Run("missing display name", func(t *testing.T) {
		sess, err := provider.SignUp(ctx, "nobody@example.com", "secret1", "")
		if err != nil {
			t.Fatal(err)
		}
		c := New(provider, profiles, sess.AccessToken)
		defer c.Teardown()
		_, profile, err := c.Initialize(ctx)
		if err != nil || profile.Username != "New User" {
			t.Fatalf("profile %+v err %v", profile, err)
		}
	})

	t.Run("bad token", func(t *testing.T) {
		c := New(provider, profiles, "garbage")
		_, _, err := c.Initialize(ctx)
		if !fxerrors.IsKind(err, fxerrors.KindUnauthenticated) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestGuestFallback(t *testing.T) {
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	provider := auth.NewLocalProvider(db, "test-secret", time.Hour)
	sess, err := provider.SignUp(context.Background(), "carol@example.com", "secret1", "Carol")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrator().DropTable(&model.Profile{}); err != nil {
		t.Fatal(err)
	}

	c := New(provider, repository.NewProfileRepository(db), sess.AccessToken)
	defer c.Teardown()
	user, profile, err := c.Initialize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if profile.Username != "Guest" || profile.ID != user.ID {
		t.Fatalf("profile = %+v", profile)
	}
}

func TestOnChangeAndTeardown(t *testing.T) {
	provider, profiles := setup(t)
	ctx := context.Background()
	sess, err := provider.SignUp(ctx, "dave@example.com", "secret1", "Dave")
	if err != nil {
		t.Fatal(err)
	}
	c := New(provider, profiles, sess.AccessToken)
	if _, _, err := c.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	var got []string
	sub := c.OnChange(func(user *auth.User, _ *model.Profile) {
		if user == nil {
			got = append(got, "signed-out")
			return
		}
		got = append(got, user.DisplayName)
	})

	name := "David"
	if _, err := provider.UpdateUser(ctx, sess.User.ID, auth.UserPatch{DisplayName: &name}); err != nil {
		t.Fatal(err)
	}
	if c.User().DisplayName != "David" {
		t.Fatalf("user not refreshed: %+v", c.User())
	}

	sub.Unsubscribe()
	if _, err := provider.UpdateUser(ctx, sess.User.ID, auth.UserPatch{DisplayName: &name}); err != nil {
		t.Fatal(err)
	}

	c2 := New(provider, profiles, sess.AccessToken)
	if _, _, err := c2.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	var signedOut bool
	c2.OnChange(func(user *auth.User, _ *model.Profile) { signedOut = user == nil })
	c.Teardown()
	if err := provider.SignOut(ctx, sess.AccessToken, auth.ScopeLocal); err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 || got[0] != "David" {
		t.Fatalf("handler calls = %v", got)
	}
	if !signedOut || c2.User() != nil {
		t.Fatal("sign-out not delivered")
	}
	if c.User() == nil {
		t.Fatal("torn down context must not observe events")
	}
	c2.Teardown()
}
