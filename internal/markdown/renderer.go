// Package markdown converts document content to an HTML fragment and a table of contents.
//
// The converter is deliberately small: it understands headings (levels 1-4), fenced and
// inline code, emphasis, images, links, blockquotes, horizontal rules, flat lists,
// pipe tables and paragraphs. Anything else is rendered as escaped paragraph text.
// Rendering never fails; malformed constructs degrade to best-effort output.
package markdown

import (
	"strconv"
	"strings"
)

// DefaultTOCTitle is the caption of the generated table of contents.
const DefaultTOCTitle = "Contents"

// Heading is a heading extracted during one Parse call.
type Heading struct {
	Level int
	// Title is the raw heading text, before escaping and inline formatting.
	Title string
	ID    string
}

// Options tune a single Parse call.
type Options struct {
	// Title is the document title displayed separately by the caller. A leading
	// level-1 heading equal to it is dropped from the output.
	Title string
}

// Result bundles everything produced for one document.
type Result struct {
	HTML     string
	TOC      string
	Headings []Heading
}

// Renderer holds the headings of its most recent Parse call so that GenerateTOC can
// be called right after it. A Renderer is not safe for concurrent use; use Render
// when several goroutines convert documents at the same time.
type Renderer struct {
	tocTitle string
	headings []Heading
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithTOCTitle sets the caption of the table of contents.
func WithTOCTitle(title string) RendererOption {
	return func(r *Renderer) {
		if title != "" {
			r.tocTitle = title
		}
	}
}

// New creates a Renderer.
func New(opts ...RendererOption) *Renderer {
	r := &Renderer{tocTitle: DefaultTOCTitle}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render converts text with a fresh Renderer and returns the HTML, the TOC and the headings.
func Render(text string, opts Options, ropts ...RendererOption) Result {
	r := New(ropts...)
	out := r.Parse(text, opts)
	return Result{
		HTML:     out,
		TOC:      r.GenerateTOC(),
		Headings: r.Headings(),
	}
}

// Parse converts markdown text to an HTML fragment and records its headings.
func (r *Renderer) Parse(text string, opts Options) string {
	r.headings = nil
	if text == "" {
		return ""
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if opts.Title != "" {
		lines = stripTitle(lines, opts.Title)
	}

	blocks := scan(lines)
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, r.emit(b))
	}
	return strings.Join(out, "\n")
}

// Headings returns a copy of the headings recorded by the last Parse call.
func (r *Renderer) Headings() []Heading {
	out := make([]Heading, len(r.headings))
	copy(out, r.headings)
	return out
}

func (r *Renderer) addHeading(level int, title string) string {
	id := "heading-" + strconv.Itoa(len(r.headings))
	r.headings = append(r.headings, Heading{Level: level, Title: title, ID: id})
	return id
}

// stripTitle removes the first level-1 heading when it repeats the document title,
// together with the blank lines that follow it.
func stripTitle(lines []string, title string) []string {
	want := strings.TrimSpace(title)
	inFence := false
	for i, line := range lines {
		if isFence(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		level, text := parseHeading(line)
		if level != 1 {
			continue
		}
		got := strings.TrimSpace(text)
		if got != want && stripParens(got) != stripParens(want) {
			return lines
		}
		end := i + 1
		for end < len(lines) && strings.TrimSpace(lines[end]) == "" {
			end++
		}
		out := make([]string, 0, len(lines)-(end-i))
		out = append(out, lines[:i]...)
		return append(out, lines[end:]...)
	}
	return lines
}

var parenStripper = strings.NewReplacer("（", "", "）", "", "(", "", ")", "")

func stripParens(s string) string {
	return parenStripper.Replace(s)
}
