// Package viewer holds the browsing logic of the AgentNote viewer: which documents
// are listed, which filter is active, which document is open and which theme is in
// use. Output goes through a Display so the logic runs without a terminal or a
// browser.
package viewer

import "github.com/starford/agentnote/internal/models"

// Theme is a display palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme named s and whether s named one.
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), true
	}
	return "", false
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Filter is the active list filter. Category and Tag are mutually exclusive.
type Filter struct {
	Category string
	Tag      string
	Keyword  string
}

// State is everything the controller knows about the current view.
type State struct {
	Docs       []models.Doc
	Categories []models.Category
	Tags       []models.Tag
	// Current is the open document, nil while the list is shown.
	Current *models.Doc
	Filter  Filter
	Theme   Theme
}

// DocView is an opened document ready for display.
type DocView struct {
	Doc      *models.Doc
	Category string
	Date     string
	HTML     string
	TOC      string
}
