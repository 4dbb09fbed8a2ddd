package markdown

import (
	"strconv"
	"strings"
)

func (r *Renderer) emit(b block) string {
	switch b.kind {
	case blockHeading:
		id := r.addHeading(b.level, b.text)
		tag := "h" + strconv.Itoa(b.level)
		return "<" + tag + ` id="` + id + `">` + renderInline(b.text) + "</" + tag + ">"

	case blockCode:
		return `<pre><code class="language-` + attrEscaper.Replace(b.lang) + `">` + escapeText(b.text) + "</code></pre>"

	case blockTable:
		return b.table.html()

	case blockQuote:
		return "<blockquote>" + renderLines(b.lines) + "</blockquote>"

	case blockRule:
		return "<hr>"

	case blockList:
		tag := "ul"
		if len(b.items) > 0 && b.items[0].ordered {
			tag = "ol"
		}
		items := make([]string, len(b.items))
		for i, item := range b.items {
			items[i] = "<li>" + renderInline(item.text) + "</li>"
		}
		return "<" + tag + ">" + strings.Join(items, "\n") + "</" + tag + ">"

	default:
		return "<p>" + renderLines(b.lines) + "</p>"
	}
}

// renderLines formats each line on its own so emphasis never spans lines.
func renderLines(lines []string) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = renderInline(line)
	}
	return strings.Join(out, "\n")
}
