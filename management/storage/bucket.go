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

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

// AvatarBucket holds profile pictures.
const AvatarBucket = "avatars"

type UploadOptions struct {
	// Upsert overwrites an existing object instead of failing.
	Upsert bool
}

// Bucket is the object storage the server needs.
type Bucket interface {
	Upload(ctx context.Context, bucket, key string, r io.Reader, opts UploadOptions) error
	GetPublicURL(bucket, key string) string
	Remove(ctx context.Context, bucket string, keys ...string) error
}

// FSBucket stores objects as files below a root and serves them over HTTP.
type FSBucket struct {
	fs      afero.Fs
	baseURL string
}

var _ Bucket = (*FSBucket)(nil)

func NewFSBucket(fs afero.Fs, baseURL string) *FSBucket {
	return &FSBucket{fs: fs, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewDiskBucket keeps objects under root on the local disk.
func NewDiskBucket(root, baseURL string) (*FSBucket, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return NewFSBucket(afero.NewBasePathFs(afero.NewOsFs(), root), baseURL), nil
}

// objectPath rejects keys escaping their bucket.
func objectPath(bucket, key string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) {
		return "", fxerrors.Invalid("invalid bucket %q", bucket)
	}
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") {
		return "", fxerrors.Invalid("invalid object key %q", key)
	}
	return path.Join("/", bucket, clean), nil
}

func (b *FSBucket) Upload(ctx context.Context, bucket, key string, r io.Reader, opts UploadOptions) error {
	p, err := objectPath(bucket, key)
	if err != nil {
		return err
	}
	if !opts.Upsert {
		exists, err := afero.Exists(b.fs, p)
		if err != nil {
			return err
		}
		if exists {
			return fxerrors.ErrObjectExists
		}
	}
	if err := b.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return afero.WriteReader(b.fs, p, r)
}

func (b *FSBucket) GetPublicURL(bucket, key string) string {
	return b.baseURL + "/" + bucket + "/" + strings.TrimLeft(key, "/")
}

// Remove deletes the given objects; missing ones are ignored.
func (b *FSBucket) Remove(ctx context.Context, bucket string, keys ...string) error {
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := objectPath(bucket, k)
		if err != nil {
			return err
		}
		if err := b.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// KeyFromURL extracts the object key from a public URL of bucket. Query
// strings are dropped.
func KeyFromURL(b Bucket, bucket, url string) (string, bool) {
	prefix := b.GetPublicURL(bucket, "")
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key, _, _ := strings.Cut(strings.TrimPrefix(url, prefix), "?")
	return key, key != ""
}

// FileSystem exposes the objects for read-only HTTP serving.
func (b *FSBucket) FileSystem() http.FileSystem {
	return afero.NewHttpFs(afero.NewReadOnlyFs(b.fs))
}
