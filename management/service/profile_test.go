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

package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/xmreur/Fluxa/management/dto"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

func TestUploadAvatar(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")

	p, err := f.svc.Profiles.UploadAvatar(f.ctx, alice, "me.PNG", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if p.AvatarURL == nil || *p.AvatarURL != "http://localhost/storage/avatars/alice.png" {
		t.Fatalf("avatar url = %v", p.AvatarURL)
	}
	if ok, _ := afero.Exists(f.fs, "/avatars/alice.png"); !ok {
		t.Fatal("object not stored")
	}

	t.Run("new format replaces the old object", func(t *testing.T) {
		p, err := f.svc.Profiles.UploadAvatar(f.ctx, alice, "me.webp", strings.NewReader("webp-bytes"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(*p.AvatarURL, "/avatars/alice.webp") {
			t.Fatalf("avatar url = %s", *p.AvatarURL)
		}
		if ok, _ := afero.Exists(f.fs, "/avatars/alice.png"); ok {
			t.Fatal("old object kept")
		}
	})

	t.Run("rejects non images", func(t *testing.T) {
		_, err := f.svc.Profiles.UploadAvatar(f.ctx, alice, "notes.txt", strings.NewReader("x"))
		if !fxerrors.IsKind(err, fxerrors.KindValidation) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("rejects large files", func(t *testing.T) {
		big := bytes.NewReader(make([]byte, MaxAvatarSize+1))
		_, err := f.svc.Profiles.UploadAvatar(f.ctx, alice, "big.jpg", big)
		if !fxerrors.IsKind(err, fxerrors.KindValidation) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestUpdateUsername(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")

	p, err := f.svc.Profiles.UpdateUsername(f.ctx, alice, &dto.ProfileDto{Username: "  Alice L.  "})
	if err != nil {
		t.Fatal(err)
	}
	if p.Username != "Alice L." {
		t.Fatalf("username = %q", p.Username)
	}
	if _, err := f.svc.Profiles.UpdateUsername(f.ctx, alice, &dto.ProfileDto{Username: "   "}); !fxerrors.IsKind(err, fxerrors.KindValidation) {
		t.Fatalf("blank username err = %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	sess, err := f.provider.SignUp(f.ctx, "dan@example.com", "secret-pass", "Dan")
	if err != nil {
		t.Fatal(err)
	}
	dan := Actor{ID: sess.User.ID, Email: sess.User.Email}
	if err := f.repos.Profiles.Create(f.ctx, &model.Profile{ID: dan.ID, Email: dan.Email, Username: "Dan"}); err != nil {
		t.Fatal(err)
	}
	team := f.team(dan, "Solo")
	if _, err := f.svc.Profiles.UploadAvatar(f.ctx, dan, "dan.jpg", strings.NewReader("jpg")); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Profiles.DeleteAccount(f.ctx, dan); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Profiles.Get(f.ctx, dan.ID); !errors.Is(err, fxerrors.ErrProfileNotFound) {
		t.Fatalf("profile after delete err = %v", err)
	}
	if got := f.role(model.TeamContainer(team.ID), dan.ID); got != model.RoleNone {
		t.Fatalf("membership kept: %s", got)
	}
	if ok, _ := afero.Exists(f.fs, "/avatars/"+dan.ID+".jpg"); ok {
		t.Fatal("avatar kept")
	}
	if _, err := f.provider.GetSession(f.ctx, sess.AccessToken); err == nil {
		t.Fatal("session still valid")
	}
}
