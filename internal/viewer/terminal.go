package viewer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/starford/agentnote/internal/models"
	"golang.org/x/net/html"
)

// Styles is the palette of a TerminalDisplay.
type Styles struct {
	Title    lipgloss.Style
	Meta     lipgloss.Style
	Heading  lipgloss.Style
	Code     lipgloss.Style
	Quote    lipgloss.Style
	Tag      lipgloss.Style
	Active   lipgloss.Style
	Dim      lipgloss.Style
	Toast    lipgloss.Style
	TOCTitle lipgloss.Style
}

// NewStyles returns the palette for theme t, rendered through r.
func NewStyles(r *lipgloss.Renderer, t Theme) *Styles {
	accent, muted, code, toast := lipgloss.Color("57"), lipgloss.Color("245"), lipgloss.Color("124"), lipgloss.Color("22")
	if t == ThemeDark {
		accent, muted, code, toast = lipgloss.Color("212"), lipgloss.Color("241"), lipgloss.Color("180"), lipgloss.Color("42")
	}
	return &Styles{
		Title:    r.NewStyle().Bold(true).Foreground(accent),
		Meta:     r.NewStyle().Foreground(muted),
		Heading:  r.NewStyle().Bold(true).Foreground(accent),
		Code:     r.NewStyle().Foreground(code),
		Quote:    r.NewStyle().Italic(true).Foreground(muted),
		Tag:      r.NewStyle().Foreground(accent),
		Active:   r.NewStyle().Bold(true).Underline(true),
		Dim:      r.NewStyle().Foreground(muted),
		Toast:    r.NewStyle().Bold(true).Foreground(toast),
		TOCTitle: r.NewStyle().Bold(true),
	}
}

// TerminalDisplay writes the viewer's output as styled text.
type TerminalDisplay struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	styles   *Styles
	// RawHTML prints the rendered HTML instead of converting it to text.
	RawHTML bool
}

// NewTerminalDisplay returns a display writing to w in the light theme.
func NewTerminalDisplay(w io.Writer) *TerminalDisplay {
	r := lipgloss.NewRenderer(w)
	return &TerminalDisplay{w: w, renderer: r, styles: NewStyles(r, ThemeLight)}
}

func (d *TerminalDisplay) SetTheme(t Theme) {
	d.styles = NewStyles(d.renderer, t)
}

func (d *TerminalDisplay) ShowCategories(cats []models.Category, active string, total int) {
	d.item(active == "", fmt.Sprintf("All Documents (%d)", total))
	for _, c := range cats {
		d.item(active == c.Category, fmt.Sprintf("%s (%d)", c.Category, c.Count))
	}
}

func (d *TerminalDisplay) ShowTags(tags []models.Tag, active string) {
	if len(tags) == 0 {
		fmt.Fprintln(d.w, d.styles.Dim.Render("No tags yet"))
		return
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		s := d.styles.Tag
		if t.Name == active {
			s = d.styles.Active
		}
		parts[i] = s.Render("#" + t.Name)
	}
	fmt.Fprintln(d.w, strings.Join(parts, " "))
}

func (d *TerminalDisplay) ShowDocs(docs []models.Doc) {
	if len(docs) == 0 {
		fmt.Fprintln(d.w, d.styles.Dim.Render("No documents yet"))
		return
	}
	for _, doc := range docs {
		line := d.styles.Meta.Render(fmt.Sprintf("%4d", doc.ID)) + "  " + d.styles.Title.Render(doc.Title)
		if doc.Category != "" {
			line += "  " + d.styles.Meta.Render("["+doc.Category+"]")
		}
		fmt.Fprintln(d.w, line)

		meta := FormatTime(doc.CreatedAt)
		tags := doc.Tags
		if len(tags) > 3 {
			tags = tags[:3]
		}
		for _, t := range tags {
			meta += " #" + t
		}
		if doc.Summary != "" {
			fmt.Fprintln(d.w, "      "+doc.Summary)
		}
		if meta = strings.TrimSpace(meta); meta != "" {
			fmt.Fprintln(d.w, "      "+d.styles.Dim.Render(meta))
		}
	}
}

func (d *TerminalDisplay) ShowDoc(v DocView) {
	fmt.Fprintln(d.w, d.styles.Title.Render(v.Doc.Title))
	fmt.Fprintln(d.w, d.styles.Meta.Render(strings.TrimSpace(v.Category+"  "+v.Date)))
	if len(v.Doc.Tags) > 0 {
		tags := make([]string, len(v.Doc.Tags))
		for i, t := range v.Doc.Tags {
			tags[i] = "#" + t
		}
		fmt.Fprintln(d.w, d.styles.Tag.Render(strings.Join(tags, " ")))
	}
	fmt.Fprintln(d.w)

	if d.RawHTML {
		if v.TOC != "" {
			fmt.Fprintln(d.w, v.TOC)
		}
		fmt.Fprintln(d.w, v.HTML)
		return
	}
	if v.TOC != "" {
		fmt.Fprintln(d.w, htmlText(v.TOC, d.styles))
		fmt.Fprintln(d.w)
	}
	fmt.Fprintln(d.w, htmlText(v.HTML, d.styles))
}

func (d *TerminalDisplay) ShowList() {}

func (d *TerminalDisplay) Toast(msg string) {
	fmt.Fprintln(d.w, d.styles.Toast.Render(msg))
}

func (d *TerminalDisplay) item(active bool, label string) {
	if active {
		fmt.Fprintln(d.w, "> "+d.styles.Active.Render(label))
		return
	}
	fmt.Fprintln(d.w, "  "+label)
}

// htmlText converts a rendered fragment to styled plain text, one block per line.
func htmlText(fragment string, st *Styles) string {
	var (
		out   strings.Builder
		line  strings.Builder
		style *lipgloss.Style
		lists []int // item counters; -1 marks an unordered list
	)
	flush := func() {
		s := strings.TrimRight(line.String(), " \n")
		line.Reset()
		if strings.TrimSpace(s) == "" {
			return
		}
		if style != nil {
			s = style.Render(s)
		}
		out.WriteString(s)
		out.WriteByte('\n')
	}

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			flush()
			return strings.TrimRight(out.String(), "\n")

		case html.TextToken:
			line.Write(z.Text())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch tag := string(name); tag {
			case "h1", "h2", "h3", "h4":
				flush()
				style = &st.Heading
				line.WriteString(strings.Repeat("#", int(tag[1]-'0')) + " ")
			case "div":
				flush()
				if attr(z, hasAttr, "class") == "toc-title" {
					style = &st.TOCTitle
				}
			case "pre":
				flush()
				style = &st.Code
			case "blockquote":
				flush()
				style = &st.Quote
				line.WriteString("| ")
			case "p", "tr", "table":
				flush()
			case "ul":
				lists = append(lists, -1)
			case "ol":
				lists = append(lists, 0)
			case "li":
				flush()
				prefix := "- "
				if n := len(lists); n > 0 && lists[n-1] >= 0 {
					lists[n-1]++
					prefix = strconv.Itoa(lists[n-1]) + ". "
				}
				if strings.Contains(attr(z, hasAttr, "class"), "toc-indent") {
					prefix = "  " + prefix
				}
				line.WriteString(prefix)
			case "th", "td":
				if line.Len() > 0 {
					line.WriteString(" | ")
				}
			case "hr":
				flush()
				line.WriteString("----")
				flush()
			case "img":
				line.WriteString("[image: " + attr(z, hasAttr, "alt") + "]")
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "h1", "h2", "h3", "h4", "pre", "blockquote", "div":
				flush()
				style = nil
			case "p", "li", "tr", "table":
				flush()
			case "ul", "ol":
				flush()
				if n := len(lists); n > 0 {
					lists = lists[:n-1]
				}
			}
		}
	}
}

// attr returns the value of attribute key of the current tag. It consumes the
// tag's attributes, so call it at most once per tag.
func attr(z *html.Tokenizer, more bool, key string) string {
	for more {
		var k, v []byte
		k, v, more = z.TagAttr()
		if string(k) == key {
			return string(v)
		}
	}
	return ""
}
