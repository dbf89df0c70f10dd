/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/leaftran/internal/config"
	"github.com/valpere/leaftran/internal/logging"
)

var version = "0.1.0"

var (
	v          = config.New()
	configFile string
	cfg        *config.Config
	logger     = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "leaftran",
	Short: "Leaflet translation editor",
	Long: `Write multi-section leaflets in Hebrew, translate them paragraph by
paragraph into English, and export the result as a Word document.

Run "leaftran serve" to start the API, then use the leaflet commands against it.
Settings come from leaftran.yaml, .env and LEAFTRAN_* environment variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		loaded, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(logging.ParseLevel(cfg.Log.Level))
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default ./leaftran.yaml)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("server", "http://localhost:5000", "URL of the leaftran API for client commands")
	pf.String("db", "leaftran.db", "SQLite database path")

	v.BindPFlag("log.level", pf.Lookup("log-level"))
	v.BindPFlag("server.url", pf.Lookup("server"))
	v.BindPFlag("storage.sqlite_path", pf.Lookup("db"))
}
