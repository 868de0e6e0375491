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

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xmreur/Fluxa/internal/config"
	"github.com/xmreur/Fluxa/internal/log"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "fluxa",
	Short: "Fluxa: team and project issue tracking",
	Long: `Fluxa serves the API for teams, projects, invitations and issues.
Configuration is read from fluxa.yaml, FLUXA_* environment variables and flags.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./fluxa.yaml or ./deploy/fluxa.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (silent, verbose, info, warning, error)")
	rootCmd.PersistentFlags().String("db-driver", config.DriverSQLite, "database driver (sqlite, postgres, mysql)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
}

// loadConfig reads the configuration with the flags that were set on the
// command line taking precedence, then applies the log level.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	log.SetLogLevel(cfg.App.LogLevel)
	return cfg, nil
}
