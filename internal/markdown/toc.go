package markdown

import "strings"

// minTOCEntries is the number of level-2/3 headings below which no TOC is produced.
const minTOCEntries = 2

// GenerateTOC returns a navigation list for the level-2 and level-3 headings of the
// last Parse call, or "" when there are fewer than two of them. Level-1 headings
// (the document title) and level-4 headings are left out.
func (r *Renderer) GenerateTOC() string {
	var entries []Heading
	for _, h := range r.headings {
		if h.Level == 2 || h.Level == 3 {
			entries = append(entries, h)
		}
	}
	if len(entries) < minTOCEntries {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<nav class="toc"><div class="toc-title">`)
	b.WriteString(escapeText(r.tocTitle))
	b.WriteString(`</div><ul class="toc-list">`)
	for _, h := range entries {
		class := "toc-item"
		if h.Level == 3 {
			class += " toc-indent"
		}
		b.WriteString(`<li class="` + class + `"><a href="#` + h.ID + `">`)
		b.WriteString(escapeText(tocLabel(h.Title)))
		b.WriteString("</a></li>")
	}
	b.WriteString("</ul></nav>")
	return b.String()
}

// tocLabel reduces a raw heading title to plain text. Tags and entities typed
// into the title are stripped or decoded outside code spans, then the markup the
// renderer adds is removed as well.
func tocLabel(title string) string {
	var b strings.Builder
	last := 0
	for _, loc := range codeSpanRe.FindAllStringIndex(title, -1) {
		b.WriteString(plainText(title[last:loc[0]]))
		b.WriteString(title[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(plainText(title[last:]))
	return strings.TrimSpace(plainText(renderInline(b.String())))
}
