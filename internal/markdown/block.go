package markdown

import (
	"regexp"
	"strings"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockCode
	blockTable
	blockQuote
	blockRule
	blockList
)

// block is one top-level construct produced by the line scanner.
type block struct {
	kind  blockKind
	level int
	lang  string
	text  string
	lines []string
	items []listItem
	table *table
}

// listItem keeps the marker kind of every item so that a change from "-" to "1."
// starts a new list instead of being guessed from the rendered output.
type listItem struct {
	ordered bool
	text    string
}

var (
	headingRe     = regexp.MustCompile(`^(#{1,4}) (.+)$`)
	unorderedRe   = regexp.MustCompile(`^- (.+)$`)
	orderedRe     = regexp.MustCompile(`^\d+\. (.+)$`)
	quoteRe       = regexp.MustCompile(`^> (.+)$`)
	tableSepRe    = regexp.MustCompile(`^[\s|:-]*-[\s|:-]*$`)
	fenceLangChar = regexp.MustCompile(`[^\w+#.-]`)
)

// scan groups lines into blocks. Blank lines only separate blocks.
func scan(lines []string) []block {
	var blocks []block
	i := 0
	for i < len(lines) {
		line := lines[i]
		switch {
		case strings.TrimSpace(line) == "":
			i++

		case isFence(line):
			var b block
			b, i = scanFence(lines, i)
			blocks = append(blocks, b)

		case isTableStart(lines, i):
			var t *table
			t, i = scanTable(lines, i)
			blocks = append(blocks, block{kind: blockTable, table: t})

		case isHeading(line):
			level, text := parseHeading(line)
			blocks = append(blocks, block{kind: blockHeading, level: level, text: text})
			i++

		case isRule(line):
			blocks = append(blocks, block{kind: blockRule})
			i++

		case quoteRe.MatchString(line):
			var quoted []string
			for i < len(lines) {
				m := quoteRe.FindStringSubmatch(lines[i])
				if m == nil {
					break
				}
				quoted = append(quoted, m[1])
				i++
			}
			blocks = append(blocks, block{kind: blockQuote, lines: quoted})

		case isListItem(line):
			first, _ := parseListItem(line)
			var items []listItem
			for i < len(lines) {
				item, ok := parseListItem(lines[i])
				if !ok || item.ordered != first.ordered {
					break
				}
				items = append(items, item)
				i++
			}
			blocks = append(blocks, block{kind: blockList, items: items})

		default:
			var para []string
			for i < len(lines) && !startsBlock(lines, i) {
				para = append(para, lines[i])
				i++
			}
			blocks = append(blocks, block{kind: blockParagraph, lines: para})
		}
	}
	return blocks
}

// startsBlock reports whether line i ends a running paragraph.
func startsBlock(lines []string, i int) bool {
	line := lines[i]
	return strings.TrimSpace(line) == "" ||
		isFence(line) ||
		isTableStart(lines, i) ||
		isHeading(line) ||
		isRule(line) ||
		quoteRe.MatchString(line) ||
		isListItem(line)
}

func isFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}

// scanFence consumes a fenced code block starting at lines[start]. A fence that is
// never closed extends to the end of the document.
func scanFence(lines []string, start int) (block, int) {
	lang := strings.TrimSpace(strings.TrimSpace(lines[start])[3:])
	lang = fenceLangChar.ReplaceAllString(lang, "")

	var body []string
	i := start + 1
	for i < len(lines) {
		if isFence(lines[i]) {
			i++
			break
		}
		body = append(body, lines[i])
		i++
	}
	return block{kind: blockCode, lang: lang, text: strings.TrimSpace(strings.Join(body, "\n"))}, i
}

func isHeading(line string) bool {
	return headingRe.MatchString(line)
}

// parseHeading returns the level and raw text of a heading line, or 0 when the
// line is not a heading.
func parseHeading(line string) (int, string) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, ""
	}
	return len(m[1]), m[2]
}

func isRule(line string) bool {
	return line == "---"
}

func isListItem(line string) bool {
	_, ok := parseListItem(line)
	return ok
}

func parseListItem(line string) (listItem, bool) {
	if m := unorderedRe.FindStringSubmatch(line); m != nil {
		return listItem{text: m[1]}, true
	}
	if m := orderedRe.FindStringSubmatch(line); m != nil {
		return listItem{ordered: true, text: m[1]}, true
	}
	return listItem{}, false
}
