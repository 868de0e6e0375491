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
	"strings"
	"sync"
	"time"

	"github.com/badoux/checkmail"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

var _ Provider = (*LocalProvider)(nil)

// Claims are carried by access tokens. Generation ties a token to the user's
// current session generation; a global sign-out bumps it.
type Claims struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Generation int    `json:"gen"`
	jwt.RegisteredClaims
}

// LocalProvider keeps credentials in the database and issues HS256 tokens.
// Revocations live in memory and are lost on restart; tokens then simply run
// to their expiry.
// TODO: keep revocations in redis when it is enabled so they hold across instances.
type LocalProvider struct {
	log    *log.Logger
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	issuer string

	mu          sync.Mutex
	revoked     map[string]time.Time
	generations map[string]int
	listeners   map[int]Listener
	nextID      int
}

func NewLocalProvider(db *gorm.DB, secret string, ttl time.Duration) *LocalProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LocalProvider{
		log:         log.GetLogger("auth"),
		db:          db,
		secret:      []byte(secret),
		ttl:         ttl,
		issuer:      "fluxa",
		revoked:     make(map[string]time.Time),
		generations: make(map[string]int),
		listeners:   make(map[int]Listener),
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	email = model.NormalizeEmail(email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, fxerrors.ErrInvalidEmail.Wrap(err)
	}
	if len(password) < minPasswordLength {
		return nil, fxerrors.Invalid("password must be at least %d characters", minPasswordLength)
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&model.Credential{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fxerrors.Remote(err)
	}
	if count > 0 {
		return nil, fxerrors.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	cred := &model.Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
	}
	if err := p.db.WithContext(ctx).Create(cred).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fxerrors.ErrEmailTaken
		}
		return nil, fxerrors.Remote(err)
	}

	sess, err := p.issue(cred)
	if err != nil {
		return nil, err
	}
	p.log.Infof("user %s signed up", cred.UserID)
	p.emit(EventSignedIn, cred.UserID, sess)
	return sess, nil
}

func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	cred, err := p.credentialBy(ctx, "email = ?", model.NormalizeEmail(email))
	if err != nil {
		if fxerrors.IsKind(err, fxerrors.KindNotFound) {
			return nil, fxerrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, fxerrors.ErrInvalidCredentials
	}

	sess, err := p.issue(cred)
	if err != nil {
		return nil, err
	}
	p.emit(EventSignedIn, cred.UserID, sess)
	return sess, nil
}

func (p *LocalProvider) SignOut(ctx context.Context, accessToken string, scope SignOutScope) error {
	claims, err := p.parse(accessToken)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if scope == ScopeGlobal {
		p.generations[claims.Subject]++
	} else {
		p.revoked[claims.ID] = claims.ExpiresAt.Time
	}
	p.pruneLocked(time.Now())
	p.mu.Unlock()

	p.emit(EventSignedOut, claims.Subject, nil)
	return nil
}

func (p *LocalProvider) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	claims, err := p.parse(accessToken)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	_, revoked := p.revoked[claims.ID]
	stale := claims.Generation != p.generations[claims.Subject]
	p.mu.Unlock()
	if revoked || stale {
		return nil, fxerrors.ErrInvalidToken
	}

	// a deleted account invalidates its tokens
	cred, err := p.credentialBy(ctx, "user_id = ?", claims.Subject)
	if err != nil {
		if fxerrors.IsKind(err, fxerrors.KindNotFound) {
			return nil, fxerrors.ErrInvalidToken
		}
		return nil, err
	}

	return &Session{
		AccessToken: accessToken,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        User{ID: cred.UserID, Email: cred.Email, DisplayName: cred.DisplayName},
	}, nil
}

func (p *LocalProvider) UpdateUser(ctx context.Context, userID string, patch UserPatch) (*User, error) {
	cred, err := p.credentialBy(ctx, "user_id = ?", userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.Password != nil {
		if len(*patch.Password) < minPasswordLength {
			return nil, fxerrors.Invalid("password must be at least %d characters", minPasswordLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = string(hash)
	}
	if len(updates) > 0 {
		if err := p.db.WithContext(ctx).Model(&model.Credential{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			return nil, fxerrors.Remote(err)
		}
	}
	if v, ok := updates["display_name"].(string); ok {
		cred.DisplayName = v
	}

	user := &User{ID: cred.UserID, Email: cred.Email, DisplayName: cred.DisplayName}
	p.emit(EventUserUpdated, userID, &Session{User: *user})
	return user, nil
}

func (p *LocalProvider) DeleteUser(ctx context.Context, userID string) error {
	res := p.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Credential{})
	if res.Error != nil {
		return fxerrors.Remote(res.Error)
	}
	if res.RowsAffected == 0 {
		return fxerrors.NotFound("user")
	}

	p.mu.Lock()
	p.generations[userID]++
	p.mu.Unlock()

	p.emit(EventUserDeleted, userID, nil)
	return nil
}

func (p *LocalProvider) OnSessionChange(l Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = l
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *LocalProvider) emit(event Event, userID string, sess *Session) {
	p.mu.Lock()
	ls := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		ls = append(ls, l)
	}
	p.mu.Unlock()

	for _, l := range ls {
		l(event, userID, sess)
	}
}

func (p *LocalProvider) credentialBy(ctx context.Context, query string, arg any) (*model.Credential, error) {
	var cred model.Credential
	if err := p.db.WithContext(ctx).Where(query, arg).Take(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fxerrors.NotFound("user")
		}
		return nil, fxerrors.Remote(err)
	}
	return &cred, nil
}

func (p *LocalProvider) issue(cred *model.Credential) (*Session, error) {
	now := time.Now()
	expires := now.Add(p.ttl)

	p.mu.Lock()
	gen := p.generations[cred.UserID]
	p.mu.Unlock()

	claims := Claims{
		Email:      cred.Email,
		Name:       cred.DisplayName,
		Generation: gen,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    p.issuer,
			Subject:   cred.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: token,
		ExpiresAt:   expires,
		User:        User{ID: cred.UserID, Email: cred.Email, DisplayName: cred.DisplayName},
	}, nil
}

func (p *LocalProvider) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	}, jwt.WithIssuer(p.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fxerrors.ErrInvalidToken.Wrap(err)
	}
	return claims, nil
}

func (p *LocalProvider) pruneLocked(now time.Time) {
	for id, exp := range p.revoked {
		if exp.Before(now) {
			delete(p.revoked, id)
		}
	}
}
