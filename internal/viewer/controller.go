package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/agentnote/internal/client"
	"github.com/starford/agentnote/internal/doccache"
	"github.com/starford/agentnote/internal/markdown"
	"github.com/starford/agentnote/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultListLimit is the page size of the document list.
	DefaultListLimit = 50
	// DefaultPreloadVisible is how many listed documents are preloaded after a
	// list load, approximating the initial viewport.
	DefaultPreloadVisible = 6

	themeKey      = "theme"
	uncategorized = "Uncategorized"
)

// API is the part of the REST backend the controller calls directly.
type API interface {
	ListDocs(ctx context.Context, f models.DocFilter) ([]models.Doc, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Tags(ctx context.Context) ([]models.Tag, error)
	DeleteDoc(ctx context.Context, id int64) error
}

// DocSource serves documents from a cache. *doccache.Cache implements it.
type DocSource interface {
	Get(ctx context.Context, id int64, useCache bool) (*doccache.Result, error)
	Preload(id int64)
	Invalidate(id int64)
}

// Renderer converts document content. *markdown.Renderer implements it.
type Renderer interface {
	Parse(text string, opts markdown.Options) string
	GenerateTOC() string
}

// Display shows the controller's output.
type Display interface {
	ShowCategories(cats []models.Category, active string, total int)
	ShowTags(tags []models.Tag, active string)
	ShowDocs(docs []models.Doc)
	ShowDoc(v DocView)
	ShowList()
	SetTheme(t Theme)
	Toast(msg string)
}

// Controller owns the view State. It is not safe for concurrent use.
type Controller struct {
	api      API
	docs     DocSource
	display  Display
	prefs    Preferences
	renderer Renderer
	log      *slog.Logger

	listLimit      int
	preloadVisible int
	defaultTheme   Theme

	state State
}

// Option configures a Controller.
type Option func(*Controller)

// WithRenderer replaces the markdown renderer.
func WithRenderer(r Renderer) Option {
	return func(c *Controller) { c.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithListLimit sets the page size of the document list.
func WithListLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.listLimit = n
		}
	}
}

// WithPreloadVisible sets how many documents are preloaded after a list load.
// Zero disables it.
func WithPreloadVisible(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.preloadVisible = n
		}
	}
}

// WithDefaultTheme sets the theme used when none is saved.
func WithDefaultTheme(t Theme) Option {
	return func(c *Controller) { c.defaultTheme = t }
}

// WithFilter sets the filter of the first list load. A category wins over a tag.
func WithFilter(f Filter) Option {
	return func(c *Controller) {
		if f.Category != "" {
			f.Tag = ""
		}
		c.state.Filter = f
	}
}

// NewController wires a controller. prefs may be nil, in which case the theme is
// not persisted.
func NewController(api API, docs DocSource, display Display, prefs Preferences, opts ...Option) *Controller {
	c := &Controller{
		api:            api,
		docs:           docs,
		display:        display,
		prefs:          prefs,
		renderer:       markdown.New(),
		log:            slog.Default(),
		listLimit:      DefaultListLimit,
		preloadVisible: DefaultPreloadVisible,
		defaultTheme:   ThemeLight,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Theme = c.defaultTheme
	return c
}

// State returns a snapshot of the view state.
func (c *Controller) State() State {
	return c.state
}

// LoadData loads categories and tags concurrently, shows them, then loads the
// document list. A failed side is logged and left empty.
func (c *Controller) LoadData(ctx context.Context) error {
	var (
		cats []models.Category
		tags []models.Tag
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		cats, err = c.api.Categories(ctx)
		if err != nil {
			return fmt.Errorf("viewer: load categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tags, err = c.api.Tags(ctx)
		if err != nil {
			return fmt.Errorf("viewer: load tags: %w", err)
		}
		return nil
	})
	loadErr := g.Wait()
	if loadErr != nil {
		c.log.Error("load data failed", slog.String("error", loadErr.Error()))
	}
	if cats != nil {
		c.state.Categories = cats
		c.renderCategories()
	}
	if tags != nil {
		c.state.Tags = tags
		c.renderTags()
	}

	if err := c.LoadDocs(ctx); err != nil {
		return err
	}
	return loadErr
}

// LoadDocs fetches the document list for the current filter, shows it and
// preloads the first documents.
func (c *Controller) LoadDocs(ctx context.Context) error {
	f := models.DocFilter{
		Category: c.state.Filter.Category,
		Tag:      c.state.Filter.Tag,
		Keyword:  c.state.Filter.Keyword,
		Limit:    c.listLimit,
	}
	docs, err := c.api.ListDocs(ctx, f)
	if err != nil {
		c.log.Error("load docs failed", slog.String("error", err.Error()))
		return fmt.Errorf("viewer: load docs: %w", err)
	}
	c.state.Docs = docs
	c.display.ShowDocs(docs)

	for i := 0; i < len(docs) && i < c.preloadVisible; i++ {
		c.docs.Preload(docs[i].ID)
	}
	return nil
}

// ViewDoc opens document id. On failure nothing is rendered and a toast is shown.
func (c *Controller) ViewDoc(ctx context.Context, id int64) error {
	res, err := c.docs.Get(ctx, id, true)
	if err != nil {
		c.log.Error("load doc failed", slog.Int64("id", id), slog.String("error", err.Error()))
		c.display.Toast("Failed to load document")
		return fmt.Errorf("viewer: view %d: %w", id, err)
	}
	if !res.Success || res.Data == nil {
		msg := res.Error
		if msg == "" {
			msg = "Document not found"
		}
		c.log.Warn("load doc rejected", slog.Int64("id", id), slog.String("error", msg))
		c.display.Toast("Failed to load document: " + msg)
		return fmt.Errorf("viewer: view %d: %s", id, msg)
	}

	doc := res.Data
	body := c.renderer.Parse(doc.Content, markdown.Options{Title: doc.Title})
	toc := c.renderer.GenerateTOC()

	category := doc.Category
	if category == "" {
		category = uncategorized
	}
	c.state.Current = doc
	c.display.ShowDoc(DocView{
		Doc:      doc,
		Category: category,
		Date:     FormatTime(doc.CreatedAt),
		HTML:     body,
		TOC:      toc,
	})
	return nil
}

// Hover warms the cache for a document the user is pointing at.
func (c *Controller) Hover(id int64) {
	c.docs.Preload(id)
}

// ShowList closes the open document.
func (c *Controller) ShowList() {
	c.state.Current = nil
	c.display.ShowList()
}

// FilterCategory lists one category; "" lists everything. The tag filter is cleared.
func (c *Controller) FilterCategory(ctx context.Context, category string) error {
	c.state.Filter.Category = category
	c.state.Filter.Tag = ""
	c.refreshFilters()
	return c.LoadDocs(ctx)
}

// FilterTag lists one tag. Selecting the active tag again clears it. The category
// filter is cleared.
func (c *Controller) FilterTag(ctx context.Context, tag string) error {
	if c.state.Filter.Tag == tag {
		c.state.Filter.Tag = ""
	} else {
		c.state.Filter.Tag = tag
	}
	c.state.Filter.Category = ""
	c.refreshFilters()
	return c.LoadDocs(ctx)
}

// Search sets the keyword filter and reloads the list.
func (c *Controller) Search(ctx context.Context, keyword string) error {
	c.state.Filter.Keyword = keyword
	return c.LoadDocs(ctx)
}

// DeleteDoc deletes document id. On success the cached copy is dropped, an open
// view of it is closed and the list reloaded.
func (c *Controller) DeleteDoc(ctx context.Context, id int64) error {
	if err := c.api.DeleteDoc(ctx, id); err != nil {
		c.log.Error("delete doc failed", slog.Int64("id", id), slog.String("error", err.Error()))
		msg := "Failed to delete document"
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg += ": " + apiErr.Message
		}
		c.display.Toast(msg)
		return fmt.Errorf("viewer: delete %d: %w", id, err)
	}

	c.docs.Invalidate(id)
	if c.state.Current != nil && c.state.Current.ID == id {
		c.ShowList()
	}
	c.display.Toast("Document deleted")
	return c.LoadDocs(ctx)
}

// LoadTheme applies the saved theme, or the default one.
func (c *Controller) LoadTheme() Theme {
	theme := c.defaultTheme
	if c.prefs != nil {
		saved, err := c.prefs.Get(themeKey)
		if err != nil {
			c.log.Warn("read theme failed", slog.String("error", err.Error()))
		} else if t, ok := ParseTheme(saved); ok {
			theme = t
		}
	}
	c.state.Theme = theme
	c.display.SetTheme(theme)
	return theme
}

// ToggleTheme switches between dark and light and saves the choice.
func (c *Controller) ToggleTheme() (Theme, error) {
	return c.SetTheme(c.state.Theme.Toggle())
}

// SetTheme applies and saves theme t.
func (c *Controller) SetTheme(t Theme) (Theme, error) {
	c.state.Theme = t
	c.display.SetTheme(t)
	if c.prefs == nil {
		return t, nil
	}
	if err := c.prefs.Set(themeKey, string(t)); err != nil {
		return t, fmt.Errorf("viewer: save theme: %w", err)
	}
	return t, nil
}

func (c *Controller) refreshFilters() {
	c.ShowList()
	c.renderCategories()
	c.renderTags()
}

func (c *Controller) renderCategories() {
	total := len(c.state.Docs)
	if total == 0 {
		for _, cat := range c.state.Categories {
			total += cat.Count
		}
	}
	c.display.ShowCategories(c.state.Categories, c.state.Filter.Category, total)
}

func (c *Controller) renderTags() {
	c.display.ShowTags(c.state.Tags, c.state.Filter.Tag)
}
