package markdown

import (
	"strings"
	"testing"
)

func TestIsMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"heading", "# Title\nbody", true},
		{"bold", "some **bold** words", true},
		{"bullets", "- one\n- two", true},
		{"numbered", "1. one\n2. two", true},
		{"plain prose", "Hello, world. This is a sentence.", false},
		{"markup", "<h1>Title</h1>\n- not a list", false},
		{"hash without space", "#hashtag", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMarkdown(tt.input); got != tt.expected {
				t.Errorf("IsMarkdown(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestToHTML(t *testing.T) {
	got := ToHTML("# Title\n\nSome **bold** text\n\n## Sub")

	for _, want := range []string{"<h1", "Title</h1>", "<strong>bold</strong>", "<h2", "Sub</h2>"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestToHTML_SkipsRawHTML(t *testing.T) {
	got := ToHTML("text <script>alert(1)</script>")

	if strings.Contains(got, "<script>") {
		t.Errorf("expected raw HTML skipped, got %q", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("plain text"); got != "plain text" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
	if got := Normalize("<p>x</p>"); got != "<p>x</p>" {
		t.Errorf("expected markup unchanged, got %q", got)
	}
	if got := Normalize("# T"); !strings.Contains(got, "<h1") {
		t.Errorf("expected heading, got %q", got)
	}
}
