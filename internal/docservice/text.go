package docservice

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const summaryLen = 100

var (
	summaryStrip = regexp.MustCompile("[#*`\\[\\]()>-]")
	slugDrop     = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugSpace    = regexp.MustCompile(`[\s_]+`)
)

// Summary derives a plain-text summary from markdown content: markdown
// punctuation removed, the first 100 characters kept, "..." appended when cut.
func Summary(content string) string {
	plain := summaryStrip.ReplaceAllString(content, "")
	if utf8.RuneCountInString(plain) <= summaryLen {
		return strings.TrimSpace(plain)
	}
	return strings.TrimSpace(string([]rune(plain)[:summaryLen])) + "..."
}

// Slug builds a URL-friendly slug from title, suffixed with the timestamp t.
// A title with nothing usable yields the bare timestamp.
func Slug(title string, t time.Time) string {
	s := slugDrop.ReplaceAllString(strings.ToLower(title), "")
	s = slugSpace.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	stamp := t.Format("20060102150405")
	if s == "" {
		return stamp
	}
	return s + "-" + stamp
}

// uniqueSuffix disambiguates a generated slug that collided with a stored one.
func uniqueSuffix(slug string) string {
	return slug + "-" + uuid.NewString()[:8]
}

// NormalizeTags trims and lowercases tags, dropping blanks and duplicates.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ShortTitle returns the first n characters of text with "..." when cut.
func ShortTitle(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}
