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

package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by First when no row matches.
var ErrNotFound = errors.New("record not found")

// Scope narrows a query; scopes compose in the order given.
type Scope = func(*gorm.DB) *gorm.DB

type BaseRepository[T any] struct {
	db *gorm.DB
}

func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{db: db}
}

func (r *BaseRepository[T]) DB() *gorm.DB {
	return r.db
}

// Find returns every matching row.
func (r *BaseRepository[T]) Find(ctx context.Context, scopes ...Scope) ([]*T, error) {
	var results []*T
	err := r.db.WithContext(ctx).Scopes(scopes...).Find(&results).Error
	return results, err
}

// First returns one matching row or ErrNotFound.
func (r *BaseRepository[T]) First(ctx context.Context, scopes ...Scope) (*T, error) {
	var result T
	err := r.db.WithContext(ctx).Scopes(scopes...).Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *BaseRepository[T]) Count(ctx context.Context, scopes ...Scope) (int64, error) {
	var total int64
	var model T
	err := r.db.WithContext(ctx).Model(&model).Scopes(scopes...).Count(&total).Error
	return total, err
}

func (r *BaseRepository[T]) Exists(ctx context.Context, scopes ...Scope) (bool, error) {
	n, err := r.Count(ctx, scopes...)
	return n > 0, err
}

func (r *BaseRepository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// Updates writes the given columns on every matching row and returns how many changed.
// Scopes are mandatory: gorm refuses an unconditioned update.
func (r *BaseRepository[T]) Updates(ctx context.Context, values map[string]any, scopes ...Scope) (int64, error) {
	var model T
	res := r.db.WithContext(ctx).Model(&model).Scopes(scopes...).Updates(values)
	return res.RowsAffected, res.Error
}

// Delete removes every matching row and returns how many went away, which lets
// callers consume a row exactly once.
func (r *BaseRepository[T]) Delete(ctx context.Context, scopes ...Scope) (int64, error) {
	var model T
	res := r.db.WithContext(ctx).Scopes(scopes...).Delete(&model)
	return res.RowsAffected, res.Error
}

// WithTransaction runs fn against a repository bound to one transaction.
func (r *BaseRepository[T]) WithTransaction(ctx context.Context, fn func(txRepo *BaseRepository[T]) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BaseRepository[T]{db: tx})
	})
}
