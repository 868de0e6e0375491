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
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/coordinator"
	"github.com/xmreur/Fluxa/management/dto"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/management/storage"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"github.com/xmreur/Fluxa/pkg/utils"
)

// MaxAvatarSize is the largest accepted avatar in bytes.
const MaxAvatarSize = 2 << 20

var avatarExtensions = map[string]string{
	".jpg":  "jpg",
	".jpeg": "jpg",
	".png":  "png",
	".gif":  "gif",
	".webp": "webp",
}

type ProfileService interface {
	Get(ctx context.Context, id string) (*model.Profile, error)
	UpdateUsername(ctx context.Context, actor Actor, req *dto.ProfileDto) (*model.Profile, error)
	// UploadAvatar replaces the actor's picture and stores its public URL.
	UploadAvatar(ctx context.Context, actor Actor, filename string, r io.Reader) (*model.Profile, error)
	// DeleteAccount removes the profile with its memberships, then the auth user.
	DeleteAccount(ctx context.Context, actor Actor) error
}

var (
	_ ProfileService = (*profileService)(nil)
)

type profileService struct {
	log *log.Logger
	*base
}

func NewProfileService(b *base) ProfileService {
	return &profileService{
		log:  log.GetLogger("profile-service"),
		base: b,
	}
}

func (p *profileService) Get(ctx context.Context, id string) (*model.Profile, error) {
	profile, err := p.repos.Profiles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fxerrors.ErrProfileNotFound
		}
		return nil, fxerrors.Remote(err)
	}
	return profile, nil
}

func (p *profileService) UpdateUsername(ctx context.Context, actor Actor, req *dto.ProfileDto) (*model.Profile, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	err := p.coord.Run(ctx, &coordinator.Mutation{
		Kind: "profile.update",
		Key:  "profile:" + actor.ID,
		Precondition: func(ctx context.Context) error {
			_, err := p.Get(ctx, actor.ID)
			return err
		},
		Remote: func(ctx context.Context) error {
			_, err := p.repos.Profiles.Updates(ctx, map[string]any{"username": req.Username}, repository.WithID(actor.ID))
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return p.Get(ctx, actor.ID)
}

func (p *profileService) UploadAvatar(ctx context.Context, actor Actor, filename string, r io.Reader) (*model.Profile, error) {
	ext, ok := avatarExtensions[strings.ToLower(path.Ext(filename))]
	if !ok {
		return nil, fxerrors.Invalid("file must be an image")
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarSize+1))
	if err != nil {
		return nil, fxerrors.Invalid("could not read the upload")
	}
	if len(data) > MaxAvatarSize {
		return nil, fxerrors.Invalid("file too large (max 2MB)")
	}
	key := actor.ID + "." + ext

	err = p.coord.Run(ctx, &coordinator.Mutation{
		Kind: "profile.avatar",
		Key:  "profile:" + actor.ID,
		Precondition: func(ctx context.Context) error {
			_, err := p.Get(ctx, actor.ID)
			return err
		},
		Remote: func(ctx context.Context) error {
			current, err := p.repos.Profiles.Get(ctx, actor.ID)
			if err != nil {
				return err
			}
			if current.AvatarURL != nil {
				if old, ok := storage.KeyFromURL(p.bucket, storage.AvatarBucket, *current.AvatarURL); ok && old != key {
					if err := p.bucket.Remove(ctx, storage.AvatarBucket, old); err != nil {
						p.log.Warningf("remove old avatar %s: %v", old, err)
					}
				}
			}
			err = p.bucket.Upload(ctx, storage.AvatarBucket, key, bytes.NewReader(data), storage.UploadOptions{Upsert: true})
			if err != nil {
				return err
			}
			url := p.bucket.GetPublicURL(storage.AvatarBucket, key)
			_, err = p.repos.Profiles.Updates(ctx, map[string]any{"avatar_url": url}, repository.WithID(actor.ID))
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return p.Get(ctx, actor.ID)
}

func (p *profileService) DeleteAccount(ctx context.Context, actor Actor) error {
	var avatar string
	return p.coord.Run(ctx, &coordinator.Mutation{
		Kind: "account.delete",
		Key:  "profile:" + actor.ID,
		Precondition: func(ctx context.Context) error {
			if actor.ID == "" {
				return fxerrors.ErrUnauthenticated
			}
			return nil
		},
		Remote: func(ctx context.Context) error {
			if current, err := p.repos.Profiles.Get(ctx, actor.ID); err == nil && current.AvatarURL != nil {
				avatar, _ = storage.KeyFromURL(p.bucket, storage.AvatarBucket, *current.AvatarURL)
			}
			err := p.atomically(ctx, func(tx *repository.Set) error {
				if err := tx.Members.DeleteUser(ctx, actor.ID); err != nil {
					return err
				}
				if _, err := tx.Notifications.Delete(ctx, repository.WithUserID(actor.ID)); err != nil {
					return err
				}
				_, err := tx.Profiles.Delete(ctx, repository.WithID(actor.ID))
				return err
			})
			if err != nil {
				return err
			}
			if avatar != "" {
				if err := p.bucket.Remove(ctx, storage.AvatarBucket, avatar); err != nil {
					p.log.Warningf("remove avatar of deleted account %s: %v", actor.ID, err)
				}
			}
			if err := p.provider.DeleteUser(ctx, actor.ID); err != nil {
				return fxerrors.Partial("profile deleted but the account could not be removed", err)
			}
			p.log.Infof("account %s deleted", actor.ID)
			return nil
		},
	})
}
