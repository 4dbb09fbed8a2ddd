package viewer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/agentnote/internal/markdown"
	"github.com/starford/agentnote/internal/models"
)

func TestFormatDate(t *testing.T) {
	cases := map[string]string{
		"2025-03-04T10:00:00Z":      "Mar 4, 2025",
		"2025-03-04T10:00:00+08:00": "Mar 4, 2025",
		"2025-12-31 23:59:59":       "Dec 31, 2025",
		"2025-01-02":                "Jan 2, 2025",
		"":                          "",
		"yesterday":                 "",
	}
	for in, want := range cases {
		if got := FormatDate(in); got != want {
			t.Errorf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
	if got := FormatTime(time.Time{}); got != "" {
		t.Errorf("FormatTime(zero) = %q", got)
	}
}

func TestParseTheme(t *testing.T) {
	if th, ok := ParseTheme("dark"); !ok || th != ThemeDark {
		t.Errorf("dark = %q, %v", th, ok)
	}
	if _, ok := ParseTheme("solarized"); ok {
		t.Errorf("unknown theme accepted")
	}
	if ThemeDark.Toggle() != ThemeLight || ThemeLight.Toggle() != ThemeDark {
		t.Errorf("toggle broken")
	}
}

func TestFilePreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	p := NewFilePreferences(path)

	v, err := p.Get("theme")
	if err != nil || v != "" {
		t.Fatalf("missing file: %q, %v", v, err)
	}
	if err := p.Set("theme", "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "theme: dark" {
		t.Errorf("file = %q", data)
	}
	if v, _ := NewFilePreferences(path).Get("theme"); v != "dark" {
		t.Errorf("reloaded = %q", v)
	}
}

func TestFilePreferences_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("theme: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFilePreferences(path).Get("theme"); err == nil {
		t.Error("expected parse error")
	}
}

func TestTerminalDisplay_ShowDoc(t *testing.T) {
	var buf bytes.Buffer
	d := NewTerminalDisplay(&buf)
	d.SetTheme(ThemeDark)

	res := markdown.Render("# Notes\n## Setup\n- one\n- two\n## Usage\n1. first\n\n| A | B |\n|---|---|\n| x | y |\n\n> quoted &", markdown.Options{Title: "Notes"})
	d.ShowDoc(DocView{
		Doc:      &models.Doc{Title: "Notes", Tags: []string{"go"}},
		Category: "Uncategorized",
		Date:     "Mar 4, 2025",
		HTML:     res.HTML,
		TOC:      res.TOC,
	})

	out := buf.String()
	for _, want := range []string{
		"Notes",
		"Uncategorized  Mar 4, 2025",
		"#go",
		"Contents",
		"- Setup",
		"## Setup",
		"- one",
		"1. first",
		"A | B",
		"x | y",
		"| quoted &",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<h2") {
		t.Errorf("html leaked into text output:\n%s", out)
	}
}

func TestTerminalDisplay_RawHTML(t *testing.T) {
	var buf bytes.Buffer
	d := NewTerminalDisplay(&buf)
	d.RawHTML = true
	d.ShowDoc(DocView{Doc: &models.Doc{Title: "T"}, HTML: "<p>x</p>"})
	if !strings.Contains(buf.String(), "<p>x</p>") {
		t.Errorf("raw html missing:\n%s", buf.String())
	}
}

func TestTerminalDisplay_Lists(t *testing.T) {
	var buf bytes.Buffer
	d := NewTerminalDisplay(&buf)

	d.ShowCategories([]models.Category{{Category: "go", Count: 2}}, "go", 2)
	d.ShowTags(nil, "")
	d.ShowDocs(nil)
	d.Toast("Document deleted")

	out := buf.String()
	for _, want := range []string{"  All Documents (2)", "> go (2)", "No tags yet", "No documents yet", "Document deleted"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
