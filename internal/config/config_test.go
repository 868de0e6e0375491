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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FLUXA_CONFIG", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Listen != ":8080" {
		t.Errorf("listen = %q", cfg.App.Listen)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Redis.LockTTL != 30*time.Second {
		t.Errorf("lock ttl = %v", cfg.Redis.LockTTL)
	}
	if cfg.MailEnabled() {
		t.Error("mail must be disabled without smtp host")
	}
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "fluxa.yaml")
	content := []byte(`
app:
  listen: ":7000"
  name: fluxa-test
database:
  driver: postgres
  dsn: postgres://fluxa@localhost/fluxa
smtp:
  host: smtp.example.com
`)
	if err := os.WriteFile(file, content, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FLUXA_JWT_EXPIRE_HOURS", "48")
	t.Setenv("FLUXA_APP_NAME", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen", ":8080", "")
	flags.String("log-level", "info", "")
	if err := flags.Set("listen", ":9999"); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(file, flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	t.Run("flag beats file", func(t *testing.T) {
		if cfg.App.Listen != ":9999" {
			t.Fatalf("listen = %q", cfg.App.Listen)
		}
	})
	t.Run("unset flag keeps default", func(t *testing.T) {
		if cfg.App.LogLevel != "info" {
			t.Fatalf("log level = %q", cfg.App.LogLevel)
		}
	})
	t.Run("env beats file", func(t *testing.T) {
		if cfg.App.Name != "from-env" {
			t.Fatalf("name = %q", cfg.App.Name)
		}
		if cfg.JWT.ExpireHours != 48 {
			t.Fatalf("expire hours = %d", cfg.JWT.ExpireHours)
		}
	})
	t.Run("file values", func(t *testing.T) {
		if cfg.Database.Driver != DriverPostgres {
			t.Fatalf("driver = %q", cfg.Database.Driver)
		}
		if !cfg.MailEnabled() {
			t.Fatal("mail must be enabled")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Setenv("FLUXA_CONFIG", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err != nil {
		t.Fatal(err)
	}

	bad := *cfg
	bad.Database.Driver = "oracle"
	if err := bad.Validate(); err == nil {
		t.Error("unsupported driver accepted")
	}

	bad = *cfg
	bad.JWT.Secret = ""
	if err := bad.Validate(); err == nil {
		t.Error("empty jwt secret accepted")
	}

	bad = *cfg
	bad.Redis.Enabled = true
	bad.Redis.Addr = ""
	if err := bad.Validate(); err == nil {
		t.Error("redis without address accepted")
	}
}
