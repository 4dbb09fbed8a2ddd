package docservice

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Thought limits.
const (
	thoughtTitleRunes = 20
	thoughtKeywords   = 5
	// Uncategorized is the category given to a thought nobody filed.
	Uncategorized = "uncategorized"
)

var thoughtWord = regexp.MustCompile(`[\p{Han}a-zA-Z]+`)

var stopwords = map[string]struct{}{
	"的": {}, "是": {}, "了": {}, "在": {}, "有": {}, "和": {}, "与": {}, "这": {}, "那": {}, "我": {}, "你": {},
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {},
}

// Thought is a loose piece of text shaped into the fields of an idea.
type Thought struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
	Content  string   `json:"content"`
}

// FormatThought derives a title and keywords from free text without any
// language model: the title is the start of the first line and keywords
// are the first distinct words longer than one character.
func FormatThought(text string) Thought {
	text = strings.TrimSpace(text)
	first, _, _ := strings.Cut(text, "\n")
	first = strings.TrimSpace(first)
	if utf8.RuneCountInString(first) > thoughtTitleRunes {
		first = string([]rune(first)[:thoughtTitleRunes]) + "..."
	}

	keywords := []string{}
	seen := map[string]struct{}{}
	for _, w := range thoughtWord.FindAllString(text, -1) {
		lw := strings.ToLower(w)
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		if _, stop := stopwords[lw]; stop {
			continue
		}
		if _, dup := seen[lw]; dup {
			continue
		}
		seen[lw] = struct{}{}
		keywords = append(keywords, w)
		if len(keywords) == thoughtKeywords {
			break
		}
	}
	return Thought{Title: first, Category: Uncategorized, Keywords: keywords, Content: text}
}
