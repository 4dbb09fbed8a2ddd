package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/agentnote/internal/apperr"
	"github.com/starford/agentnote/internal/models"
)

// DefaultSource is recorded when a document or idea does not name its origin.
const DefaultSource = "chat"

// SaveDocInput is the payload of a create-or-update by slug.
type SaveDocInput struct {
	Slug     string
	Title    string
	Content  string
	Category string
	Summary  string
	Source   string
	Tags     []string
}

// ListDocs returns documents matching f, newest first.
func (s *Service) ListDocs(ctx context.Context, f models.DocFilter) ([]models.Doc, error) {
	return s.db.ListDocs(ctx, f)
}

// GetDoc returns one document.
func (s *Service) GetDoc(ctx context.Context, id int64) (*models.Doc, error) {
	return s.db.GetDoc(ctx, id)
}

// SaveDoc creates a document, or updates the one already stored under in.Slug.
// The second return value reports whether a new document was created.
func (s *Service) SaveDoc(ctx context.Context, in SaveDocInput) (*models.Doc, bool, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Content) == "" {
		return nil, false, fmt.Errorf("docservice: title and content are required: %w", apperr.ErrInvalidInput)
	}
	if in.Summary == "" {
		in.Summary = Summary(in.Content)
	}
	if in.Source == "" {
		in.Source = DefaultSource
	}
	in.Category = strings.TrimSpace(in.Category)
	tags := NormalizeTags(in.Tags)

	if in.Slug != "" {
		existing, err := s.db.GetDocBySlug(ctx, in.Slug)
		switch {
		case err == nil:
			upd := models.DocInput{
				Title:    &in.Title,
				Content:  &in.Content,
				Category: &in.Category,
				Summary:  &in.Summary,
				Source:   &in.Source,
				Tags:     tags,
				SetTags:  len(tags) > 0,
			}
			if err := s.db.UpdateDoc(ctx, existing.ID, upd); err != nil {
				return nil, false, fmt.Errorf("docservice: save doc %q: %w", in.Slug, err)
			}
			d, err := s.db.GetDoc(ctx, existing.ID)
			if err != nil {
				return nil, false, err
			}
			s.notify.Notify(EventDocUpdated, d.ID)
			return d, false, nil
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, false, err
		}
	}

	d := &models.Doc{
		Slug:     in.Slug,
		Title:    in.Title,
		Content:  in.Content,
		Category: in.Category,
		Summary:  in.Summary,
		Source:   in.Source,
		Tags:     tags,
	}
	generated := d.Slug == ""
	if generated {
		d.Slug = Slug(in.Title, s.now())
	}
	_, err := s.db.CreateDoc(ctx, d)
	if generated && errors.Is(err, apperr.ErrAlreadyExists) {
		s.log.Debug("slug collision", slog.String("slug", d.Slug))
		d.Slug = uniqueSuffix(d.Slug)
		_, err = s.db.CreateDoc(ctx, d)
	}
	if err != nil {
		return nil, false, fmt.Errorf("docservice: create doc: %w", err)
	}
	s.notify.Notify(EventDocCreated, d.ID)
	return d, true, nil
}

// UpdateDoc applies a partial update. A content change without an explicit
// summary refreshes the derived summary.
func (s *Service) UpdateDoc(ctx context.Context, id int64, in models.DocInput) (*models.Doc, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("docservice: title must not be empty: %w", apperr.ErrInvalidInput)
	}
	if in.Content != nil && in.Summary == nil {
		sum := Summary(*in.Content)
		in.Summary = &sum
	}
	if in.SetTags {
		in.Tags = NormalizeTags(in.Tags)
	}
	if err := s.db.UpdateDoc(ctx, id, in); err != nil {
		return nil, err
	}
	d, err := s.db.GetDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notify.Notify(EventDocUpdated, id)
	return d, nil
}

// DeleteDoc removes a document.
func (s *Service) DeleteDoc(ctx context.Context, id int64) error {
	if err := s.db.DeleteDoc(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(EventDocDeleted, id)
	return nil
}

// DocCategories lists document categories with counts.
func (s *Service) DocCategories(ctx context.Context) ([]models.Category, error) {
	return s.db.DocCategories(ctx)
}

// Tags lists tags with usage counts.
func (s *Service) Tags(ctx context.Context) ([]models.Tag, error) {
	return s.db.Tags(ctx)
}
