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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/leaftran/internal/render"
	"github.com/valpere/leaftran/internal/store"
)

var (
	inputFile   string
	outputFile  string
	displayMode string
	noCache     bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate a paragraph without a server",
	Long: `Run the translation pipeline locally: translation memory, glossary,
providers, cleanup and sanitizing.

Text comes from the arguments, --input, or standard input.

Available services:
  - google      Google Cloud Translation (credentials or API key)
  - mymemory    MyMemory (free, limited daily volume)
  - ollama      Ollama LLM (self-hosted)
  - openrouter  OpenRouter LLM (requires API key)

Use several services: --services google,openrouter`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		mode, err := render.ParseMode(displayMode)
		if err != nil {
			return err
		}

		var db *store.Store
		if !noCache {
			db, err = openStore()
			if err != nil {
				return err
			}
			defer db.Close()
		}

		svc, err := buildTranslation(cfg.Translate, db)
		if err != nil {
			return err
		}

		res, err := svc.Translate(cmd.Context(), cfg.Translate.Source, cfg.Translate.Target, text)
		if err != nil {
			return err
		}
		logger.Info("translated", "service", res.Service, "cached", res.Cached)

		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(res.Text), 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Translation written to %s\n", outputFile)
			return nil
		}
		return render.OutputArea{Translation: res.Text, Mode: mode}.Terminal(cmd.OutOrStdout())
	},
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	var (
		data []byte
		err  error
	)
	if inputFile != "" {
		data, err = os.ReadFile(inputFile)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func init() {
	f := translateCmd.Flags()
	f.StringVarP(&inputFile, "input", "i", "", "Input file (default stdin)")
	f.StringVarP(&outputFile, "output", "o", "", "Write the sanitized markup to a file")
	f.StringVarP(&displayMode, "mode", "m", "markup", "Display mode: plain or markup")
	f.BoolVar(&noCache, "no-cache", false, "Skip translation memory and glossary")

	f.StringP("source", "s", "heb", "Source language")
	f.StringP("target", "t", "eng", "Target language")
	f.StringSlice("services", []string{"google"}, "Translation services to use")
	f.Int("max-attempts", 3, "Attempts per service")
	v.BindPFlag("translate.source", f.Lookup("source"))
	v.BindPFlag("translate.target", f.Lookup("target"))
	v.BindPFlag("translate.services", f.Lookup("services"))
	v.BindPFlag("translate.max_attempts", f.Lookup("max-attempts"))

	rootCmd.AddCommand(translateCmd)
}
