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
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/leaftran/internal"
	"github.com/valpere/leaftran/internal/client"
	"github.com/valpere/leaftran/internal/render"
	"github.com/valpere/leaftran/internal/session"
)

var leafletCmd = &cobra.Command{
	Use:     "leaflet",
	Aliases: []string{"leaflets"},
	Short:   "Edit leaflets through a running server",
	Long: `List, create, translate, export and delete leaflets.

These commands talk to the API given by --server (server.url).`,
}

// newSession returns a session store backed by the configured server with the
// known leaflets loaded.
func newSession(cmd *cobra.Command) (*session.Store, error) {
	c := client.New(cfg.Server.URL, nil)
	sess := session.New(c,
		session.WithLogger(logger),
		session.WithLanguages(cfg.Translate.Source, cfg.Translate.Target),
	)
	if err := sess.Init(cmd.Context()); err != nil {
		return nil, err
	}
	return sess, nil
}

// selectLeaflet makes the leaflet with the given id current.
func selectLeaflet(sess *session.Store, id string) (internal.Leaflet, error) {
	l, ok := sess.State().Leaflet(id)
	if !ok {
		return internal.Leaflet{}, fmt.Errorf("leaflet %s not found", id)
	}
	sess.SelectLeaflet(l)
	return l, nil
}

var leafletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leaflets, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		leaflets := sess.State().Leaflets
		if len(leaflets) == 0 {
			fmt.Fprintln(out, "No leaflets.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDATE\tSECTIONS")
		for _, l := range leaflets {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
				l.ID, l.Name, l.Date.Local().Format("2006-01-02 15:04"), len(l.Sections))
		}
		return w.Flush()
	},
}

var leafletShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a leaflet's sections and translations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := render.ParseMode(displayMode)
		if err != nil {
			return err
		}
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		l, err := selectLeaflet(sess, args[0])
		if err != nil {
			return err
		}
		if htmlFile != "" {
			return writePage(cmd, htmlFile, l, mode)
		}
		return printLeaflet(cmd.OutOrStdout(), l, mode)
	},
}

var htmlFile string

// writePage saves the leaflet as a standalone HTML page.
func writePage(cmd *cobra.Command, path string, l internal.Leaflet, mode render.Mode) error {
	sections := make([]render.PageSection, 0, len(l.Sections))
	for _, s := range l.Sections {
		sections = append(sections, render.PageSection{
			Input:  s.InputText,
			Output: render.OutputArea{Translation: s.Translation, Mode: mode},
		})
	}
	page, err := render.Page(l.Name, sections)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(page), 0644); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Page saved: %s\n", path)
	return nil
}

func printLeaflet(w io.Writer, l internal.Leaflet, mode render.Mode) error {
	fmt.Fprintf(w, "%s (%s)\n", l.Name, l.ID)
	for i, s := range l.Sections {
		fmt.Fprintf(w, "\n[%d] %s\n", i+1, s.InputText)
		if err := (render.OutputArea{Translation: s.Translation, Mode: mode}).Terminal(w); err != nil {
			return err
		}
	}
	return nil
}

var leafletTranslate bool

var leafletNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a leaflet from a text file",
	Long: `Create a leaflet with one section per paragraph of the input.
Paragraphs are separated by blank lines. Text comes from --input or stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), nil)
		if err != nil {
			return err
		}
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}

		sess.NewLeaflet()
		sess.RenameLeaflet(args[0])
		for i, p := range splitParagraphs(text) {
			if i > 0 {
				sess.AddSection()
			}
			sections := sess.State().Current.Sections
			sess.ChangeInputText(sections[len(sections)-1].ID, p)
		}
		if leafletTranslate {
			translateAll(cmd, sess)
		}

		saved, err := sess.SaveLeaflet(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved leaflet %s (%d sections)\n", saved.ID, len(saved.Sections))
		return nil
	},
}

var paragraphSep = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphSep.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// translateAll translates every section of the current leaflet. A failed
// section shows the failure text with the envelope details and is left
// untouched.
func translateAll(cmd *cobra.Command, sess *session.Store) {
	errw := cmd.ErrOrStderr()
	unsubscribe := sess.Subscribe(func(st session.State) {
		if st.Error != nil {
			fmt.Fprintf(errw, "    %s (%s): %s\n", st.Error.Message, st.Error.Code, st.Error.Details)
		}
	})
	defer unsubscribe()

	for i, s := range sess.State().Current.Sections {
		if strings.TrimSpace(s.InputText) == "" {
			continue
		}
		fmt.Fprintf(errw, "[%d] %s\n", i+1, render.LoadingText)
		text, err := sess.Translate(cmd.Context(), s.InputText)
		if err != nil {
			// text is the failure sentinel here.
			fmt.Fprintf(errw, "[%d] %s\n", i+1, text)
			sess.ClearError()
			continue
		}
		sess.UpdateTranslation(s.ID, text)
	}
}

var leafletTranslateCmd = &cobra.Command{
	Use:   "translate <id>",
	Short: "Translate every section of a leaflet and save it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := render.ParseMode(displayMode)
		if err != nil {
			return err
		}
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		if _, err := selectLeaflet(sess, args[0]); err != nil {
			return err
		}

		translateAll(cmd, sess)
		saved, err := sess.SaveLeaflet(cmd.Context())
		if err != nil {
			return err
		}
		return printLeaflet(cmd.OutOrStdout(), saved, mode)
	},
}

var exportDir string

var leafletExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Download a leaflet's translations as a Word document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		if _, err := selectLeaflet(sess, args[0]); err != nil {
			return err
		}

		name, err := sess.DownloadDocument(cmd.Context(), session.DirSaver{Dir: exportDir})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Document saved: %s\n", name)
		return nil
	},
}

var leafletDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a leaflet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := sess.DeleteLeaflet(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted leaflet: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(leafletCmd)

	for _, c := range []*cobra.Command{leafletShowCmd, leafletTranslateCmd} {
		c.Flags().StringVarP(&displayMode, "mode", "m", "markup", "Display mode: plain or markup")
	}
	leafletShowCmd.Flags().StringVar(&htmlFile, "html", "", "Write the leaflet as an HTML page to this file")
	leafletNewCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file (default stdin)")
	leafletNewCmd.Flags().BoolVar(&leafletTranslate, "translate", false, "Translate the sections before saving")
	leafletExportCmd.Flags().StringVarP(&exportDir, "dir", "d", ".", "Output directory")

	leafletCmd.AddCommand(leafletListCmd)
	leafletCmd.AddCommand(leafletShowCmd)
	leafletCmd.AddCommand(leafletNewCmd)
	leafletCmd.AddCommand(leafletTranslateCmd)
	leafletCmd.AddCommand(leafletExportCmd)
	leafletCmd.AddCommand(leafletDeleteCmd)
}
