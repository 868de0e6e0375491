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

package management

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/xmreur/Fluxa/internal/config"
	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/auth"
	"github.com/xmreur/Fluxa/management/coordinator"
	"github.com/xmreur/Fluxa/management/database"
	"github.com/xmreur/Fluxa/management/notify"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/management/server"
	"github.com/xmreur/Fluxa/management/service"
	"github.com/xmreur/Fluxa/management/storage"
	"github.com/xmreur/Fluxa/pkg/loop"
	"github.com/xmreur/Fluxa/pkg/redis"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Start runs the API server until ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config) error {
	logger := log.GetLogger("management")
	defer log.Sync()

	if cfg.JWT.Secret == config.DefaultJWTSecret {
		logger.Warningf("jwt.secret is the built-in development secret, set FLUXA_JWT_SECRET before exposing the server")
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}

	locker, closeLocker, err := newLocker(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeLocker()

	tasks := loop.NewTaskLoop(cfg.App.QueueSize)
	repos := repository.NewSet(db)

	var sender notify.Sender
	if cfg.MailEnabled() {
		sender = notify.NewSMTPSender(cfg.SMTP)
	} else {
		logger.Infof("smtp.host is empty, invite mails are only logged")
		sender = notify.NewLogSender()
	}

	bucket, err := storage.NewDiskBucket(cfg.Storage.Root, cfg.Storage.PublicURL)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	provider := auth.NewLocalProvider(db, cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	services := service.New(service.Deps{
		Repos:       repos,
		Coordinator: coordinator.New(locker),
		Notifier:    notify.NewNotifier(tasks, repos.Notifications),
		Mailer:      notify.NewMailer(tasks, sender, cfg.App.PublicURL),
		Bucket:      bucket,
		Provider:    provider,
	})

	serverCfg := &server.ServerConfig{
		Listen:      cfg.App.Listen,
		Provider:    provider,
		Profiles:    repos.Profiles,
		Services:    services,
		CORSOrigins: cfg.App.CORSOrigins,
		Files:       bucket.FileSystem(),
		FilesPath:   storagePath(cfg.Storage.PublicURL),
	}
	if cfg.Metrics.Enabled {
		serverCfg.MetricsPath = cfg.Metrics.Path
	}
	hs, err := server.NewServer(serverCfg)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	tasks.Start(ctx)
	defer tasks.Stop()
	g.Go(func() error {
		return hs.Start(ctx, cfg.App.ShutdownTimeout)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Infof("shutting down, %d background tasks queued", tasks.QueuedTasksCount())
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", err)
		return err
	}
	logger.Infof("server stopped")
	return nil
}

// Migrate creates or updates the schema and returns.
func Migrate(cfg *config.Config) error {
	_, err := openDatabase(cfg.Database)
	return err
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// newLocker guards mutations across processes through redis when it is
// enabled, and within this process otherwise.
func newLocker(ctx context.Context, cfg config.RedisConfig) (coordinator.Locker, func(), error) {
	if !cfg.Enabled {
		return coordinator.NewMemoryLocker(), func() {}, nil
	}
	client, err := redis.NewClient(ctx, &redis.ClientConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return coordinator.NewRedisLocker(client, cfg.LockTTL), func() { _ = client.Close() }, nil
}

// storagePath is the route uploaded files are served under, taken from the
// path of the public storage URL.
func storagePath(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return ""
	}
	return u.Path
}
