package docservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/agentnote/internal/apperr"
	"github.com/starford/agentnote/internal/models"
)

// Defaults for idea queries.
const (
	DefaultRecentLimit   = 10
	DefaultSimilarLimit  = 5
	CategorySummaryLimit = 100
)

// IdeaDetail is an idea together with its relations.
type IdeaDetail struct {
	Idea      *models.Idea      `json:"idea"`
	Relations []models.Relation `json:"relations"`
}

// SimilarResult is the outcome of FindSimilar.
type SimilarResult struct {
	Keywords []string      `json:"search_keywords"`
	Count    int           `json:"count"`
	Ideas    []models.Idea `json:"similar_ideas"`
}

// CategorySummary lists the ideas filed under one category, or every
// category when none was asked for.
type CategorySummary struct {
	Category   string            `json:"category,omitempty"`
	Count      int               `json:"count"`
	Ideas      []models.Idea     `json:"ideas,omitempty"`
	Categories []models.Category `json:"categories,omitempty"`
}

// AddIdea stores a new idea. Title and content are required.
func (s *Service) AddIdea(ctx context.Context, i *models.Idea) (*models.Idea, error) {
	i.Title = strings.TrimSpace(i.Title)
	if i.Title == "" || strings.TrimSpace(i.Content) == "" {
		return nil, fmt.Errorf("docservice: title and content are required: %w", apperr.ErrInvalidInput)
	}
	if i.Source == "" {
		i.Source = DefaultSource
	}
	i.Category = strings.TrimSpace(i.Category)
	i.Keywords = cleanKeywords(i.Keywords)
	if _, err := s.db.CreateIdea(ctx, i); err != nil {
		return nil, err
	}
	s.notify.Notify(EventIdeaCreated, i.ID)
	return i, nil
}

// GetIdea returns one idea.
func (s *Service) GetIdea(ctx context.Context, id int64) (*models.Idea, error) {
	return s.db.GetIdea(ctx, id)
}

// GetIdeaDetail returns an idea with its relations.
func (s *Service) GetIdeaDetail(ctx context.Context, id int64) (*IdeaDetail, error) {
	i, err := s.db.GetIdea(ctx, id)
	if err != nil {
		return nil, err
	}
	rels, err := s.db.Relations(ctx, id)
	if err != nil {
		return nil, err
	}
	return &IdeaDetail{Idea: i, Relations: nonNilSlice(rels)}, nil
}

// UpdateIdea applies a partial update and returns the stored idea.
func (s *Service) UpdateIdea(ctx context.Context, id int64, in models.IdeaInput) (*models.Idea, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("docservice: title must not be empty: %w", apperr.ErrInvalidInput)
	}
	if in.SetKeywords {
		in.Keywords = cleanKeywords(in.Keywords)
	}
	if err := s.db.UpdateIdea(ctx, id, in); err != nil {
		return nil, err
	}
	i, err := s.db.GetIdea(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notify.Notify(EventIdeaUpdated, id)
	return i, nil
}

// DeleteIdea removes an idea and its relations.
func (s *Service) DeleteIdea(ctx context.Context, id int64) error {
	if err := s.db.DeleteIdea(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(EventIdeaDeleted, id)
	return nil
}

// SearchIdeas returns ideas matching f, newest first.
func (s *Service) SearchIdeas(ctx context.Context, f models.IdeaFilter) ([]models.Idea, error) {
	return s.db.ListIdeas(ctx, f)
}

// RecentIdeas returns the newest ideas. A non-positive limit means DefaultRecentLimit.
func (s *Service) RecentIdeas(ctx context.Context, limit int) ([]models.Idea, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.db.ListIdeas(ctx, models.IdeaFilter{Limit: limit})
}

// IdeaCategories lists idea categories with counts.
func (s *Service) IdeaCategories(ctx context.Context) ([]models.Category, error) {
	return s.db.IdeaCategories(ctx)
}

// Relate links two ideas.
func (s *Service) Relate(ctx context.Context, r *models.Relation) (*models.Relation, error) {
	if r.IdeaID1 <= 0 || r.IdeaID2 <= 0 {
		return nil, fmt.Errorf("docservice: idea_id_1 and idea_id_2 are required: %w", apperr.ErrInvalidInput)
	}
	if _, err := s.db.AddRelation(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Relations lists the relations touching an idea.
func (s *Service) Relations(ctx context.Context, ideaID int64) ([]models.Relation, error) {
	return s.db.Relations(ctx, ideaID)
}

// FindSimilar searches ideas sharing any of the keywords. When ideaID is set,
// that idea's keywords and category join the search and the idea itself is
// excluded from the result.
func (s *Service) FindSimilar(ctx context.Context, ideaID int64, keywords []string, limit int) (*SimilarResult, error) {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	keywords = cleanKeywords(keywords)
	if ideaID > 0 {
		src, err := s.db.GetIdea(ctx, ideaID)
		if err != nil {
			return nil, err
		}
		keywords = mergeKeywords(keywords, src.Keywords)
		if src.Category != "" {
			keywords = append(keywords, src.Category)
		}
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("docservice: no keywords to search: %w", apperr.ErrInvalidInput)
	}

	seen := map[int64]struct{}{}
	if ideaID > 0 {
		seen[ideaID] = struct{}{}
	}
	found := []models.Idea{}
	for _, kw := range keywords {
		hits, err := s.db.ListIdeas(ctx, models.IdeaFilter{Keyword: kw, Limit: limit * 2})
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if _, ok := seen[h.ID]; ok {
				continue
			}
			seen[h.ID] = struct{}{}
			found = append(found, h)
		}
	}
	if len(found) > limit {
		found = found[:limit]
	}
	return &SimilarResult{Keywords: keywords, Count: len(found), Ideas: found}, nil
}

// SummarizeCategory returns up to CategorySummaryLimit ideas of category,
// or the idea category list when category is empty.
func (s *Service) SummarizeCategory(ctx context.Context, category string) (*CategorySummary, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		cats, err := s.db.IdeaCategories(ctx)
		if err != nil {
			return nil, err
		}
		return &CategorySummary{Count: len(cats), Categories: cats}, nil
	}
	ideas, err := s.db.ListIdeas(ctx, models.IdeaFilter{Category: category, Limit: CategorySummaryLimit})
	if err != nil {
		return nil, err
	}
	return &CategorySummary{Category: category, Count: len(ideas), Ideas: ideas}, nil
}

func cleanKeywords(kw []string) []string {
	return mergeKeywords(nil, kw)
}

// mergeKeywords appends the trimmed, non-empty entries of extra to base,
// skipping ones already present.
func mergeKeywords(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, cap(out))
	for _, list := range [][]string{base, extra} {
		for _, k := range list {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
