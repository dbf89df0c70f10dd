package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valpere/leaftran/internal"
)

// ParagraphBreak separates section translations in compiled content.
const ParagraphBreak = "<br><br>"

// FileSaver stores downloaded document bytes under a name.
type FileSaver interface {
	SaveFile(ctx context.Context, name string, data []byte) error
}

// CompileContent joins every section translation in display order, each
// followed by a paragraph break.
func CompileContent(l internal.Leaflet) string {
	var sb strings.Builder
	for _, s := range l.Sections {
		sb.WriteString(s.Translation)
		sb.WriteString(ParagraphBreak)
	}
	return sb.String()
}

// DocumentFilename returns generated_document_{name}_{yyyy-MM-ddTHH-mm-ss}.docx
// for the UTC time t.
func DocumentFilename(name string, t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15-04-05")
	return fmt.Sprintf("generated_document_%s_%s.docx", name, stamp)
}

// DirSaver writes files into a directory.
type DirSaver struct {
	Dir string
}

// SaveFile writes data to Dir/name. Path separators in name are replaced so
// that a leaflet name cannot escape Dir.
func (d DirSaver) SaveFile(_ context.Context, name string, data []byte) error {
	safe := strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(d.Dir, safe), data, 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}
