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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valpere/leaftran/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the leaflet API",
	Long: `Serve the leaflet, translate and document endpoints over HTTP.

Leaflets are stored in SQLite or Redis (storage.driver). Translation memory
and the glossary always live in the SQLite database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		repo := openLeafletRepo(cfg.Storage, db)
		defer repo.Close()

		svc, err := buildTranslation(cfg.Translate, db)
		if err != nil {
			return err
		}

		srv := server.New(repo, svc,
			server.WithMode(cfg.Server.Mode),
			server.WithLogger(logger),
		)
		return srv.Run(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":5000", "Listen address")
	serveCmd.Flags().String("mode", server.ModeProduction, "Server mode: development or production")
	serveCmd.Flags().String("storage", "sqlite", "Leaflet storage: sqlite or redis")
	v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	v.BindPFlag("server.mode", serveCmd.Flags().Lookup("mode"))
	v.BindPFlag("storage.driver", serveCmd.Flags().Lookup("storage"))

	rootCmd.AddCommand(serveCmd)
}
