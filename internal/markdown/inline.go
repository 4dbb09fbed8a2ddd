package markdown

import (
	"regexp"
	"strings"
)

var (
	codeSpanRe = regexp.MustCompile("`([^`]+)`")
	strongEmRe = regexp.MustCompile(`\*\*\*(.+?)\*\*\*`)
	strongRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	emRe       = regexp.MustCompile(`\*(.+?)\*`)
	imageRe    = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	linkRe     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(`"`, "&quot;")
	unescaper   = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&amp;", "&")
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// renderInline escapes one line of text and applies code spans, emphasis, images
// and links. Code span contents are escaped but otherwise left alone.
func renderInline(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range codeSpanRe.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(renderSpan(s[last:loc[0]]))
		b.WriteString("<code>")
		b.WriteString(escapeText(s[loc[2]:loc[3]]))
		b.WriteString("</code>")
		last = loc[1]
	}
	b.WriteString(renderSpan(s[last:]))
	return b.String()
}

func renderSpan(s string) string {
	if s == "" {
		return ""
	}
	s = escapeText(s)
	s = strongEmRe.ReplaceAllString(s, "<strong><em>$1</em></strong>")
	s = strongRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = emRe.ReplaceAllString(s, "<em>$1</em>")
	s = imageRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := imageRe.FindStringSubmatch(m)
		return `<img src="` + attrEscaper.Replace(sub[2]) + `" alt="` + attrEscaper.Replace(sub[1]) + `">`
	})
	s = linkRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := linkRe.FindStringSubmatch(m)
		return `<a href="` + attrEscaper.Replace(sub[2]) + `" target="_blank" rel="noopener">` + sub[1] + `</a>`
	})
	return s
}

// plainText strips tags from rendered inline HTML and decodes the entities the
// escaper produced.
func plainText(rendered string) string {
	return unescaper.Replace(tagRe.ReplaceAllString(rendered, ""))
}
