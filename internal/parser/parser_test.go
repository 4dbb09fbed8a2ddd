package parser

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ncategory: notes\nslug: hello-doc\ntags:\n  - go\n  - ' sqlite '\n---\n# Hello\nBody text.\n")
	r := Parse(input)
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if r.Meta == nil || r.Meta.Category != "notes" || r.Meta.Slug != "hello-doc" {
		t.Fatalf("meta = %+v", r.Meta)
	}
	if !reflect.DeepEqual([]string(r.Meta.Tags), []string{"go", "sqlite"}) {
		t.Errorf("tags = %v, want [go sqlite]", r.Meta.Tags)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_CommaTags(t *testing.T) {
	r := Parse([]byte("---\ntags: ai, 学习 ,\n---\nbody"))
	if r.Meta == nil || !reflect.DeepEqual([]string(r.Meta.Tags), []string{"ai", "学习"}) {
		t.Errorf("meta = %+v", r.Meta)
	}
}

func TestParse_CRLF(t *testing.T) {
	r := Parse([]byte("---\r\ntitle: Win\r\n---\r\nbody\r\n"))
	if r.Title != "Win" || r.Body != "body\n" {
		t.Errorf("title = %q, body = %q", r.Title, r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r := Parse([]byte("# Just a heading\nSome text.\n"))
	if r.Meta != nil {
		t.Errorf("expected nil frontmatter, got %+v", r.Meta)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	r := Parse([]byte(input))
	if r.Meta != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if r.Body != input {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_UnclosedFrontmatter(t *testing.T) {
	r := Parse([]byte("---\ntitle: x\nno end"))
	if r.Meta != nil || r.Title != "" {
		t.Errorf("result = %+v", r)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	r := Parse([]byte("---\ntitle: From FM\n---\n# From H1\n"))
	if r.Title != "From FM" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestDeriveTitle_SkipsFences(t *testing.T) {
	r := Parse([]byte("```sh\n# comment\n```\n# Real\n"))
	if r.Title != "Real" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	meta := Frontmatter{Title: "Notes: part 1", Slug: "notes", Category: "go", Tags: TagList{"a", "b"}}
	data, err := Format(meta, "# Notes\nbody")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\n") || !strings.HasSuffix(string(data), "body\n") {
		t.Errorf("data = %q", data)
	}
	if !strings.Contains(string(data), "tags: [a, b]") {
		t.Errorf("tags not in flow style: %q", data)
	}
	r := Parse(data)
	if r.Meta == nil || !reflect.DeepEqual(*r.Meta, meta) {
		t.Errorf("round trip meta = %+v", r.Meta)
	}
	if r.Body != "# Notes\nbody\n" {
		t.Errorf("body = %q", r.Body)
	}
}
