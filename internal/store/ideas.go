package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/agentnote/internal/apperr"
	"github.com/starford/agentnote/internal/models"
)

const ideaColumns = `id, title, content, category, keywords, source, created_at, updated_at`

// CreateIdea inserts an idea and returns its id.
func (db *DB) CreateIdea(ctx context.Context, i *models.Idea) (int64, error) {
	now := time.Now().UTC()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = i.CreatedAt
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO ideas (title, content, category, keywords, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, i.Title, i.Content, i.Category, keywordsJSON(i.Keywords), i.Source, i.CreatedAt.UTC(), i.UpdatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("store: create idea: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: create idea id: %w", err)
	}
	i.ID = id
	if i.Keywords == nil {
		i.Keywords = []string{}
	}
	return id, nil
}

// GetIdea returns the idea with the given id.
func (db *DB) GetIdea(ctx context.Context, id int64) (*models.Idea, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE id = ?`, id)
	i, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: idea id %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get idea %d: %w", id, err)
	}
	return i, nil
}

// UpdateIdea applies the non-nil fields of in to the idea.
func (db *DB) UpdateIdea(ctx context.Context, id int64, in models.IdeaInput) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("title", in.Title)
	add("content", in.Content)
	add("category", in.Category)
	add("source", in.Source)
	if in.SetKeywords {
		sets = append(sets, "keywords = ?")
		args = append(args, keywordsJSON(in.Keywords))
	}
	if len(sets) == 0 {
		return apperr.ErrNoChanges
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := db.conn.ExecContext(ctx, `UPDATE ideas SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("store: update idea %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: idea id %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// DeleteIdea removes an idea and its relations.
func (db *DB) DeleteIdea(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM ideas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete idea %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: idea id %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// ListIdeas returns ideas newest first. Keyword matches title, content and
// the stored keyword list.
func (db *DB) ListIdeas(ctx context.Context, f models.IdeaFilter) ([]models.Idea, error) {
	var (
		where []string
		args  []any
	)
	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		where = append(where, "(title LIKE ? OR content LIKE ? OR keywords LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}

	q := `SELECT ` + ideaColumns + ` FROM ideas`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`
	q, args = paginate(q, args, f.Limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list ideas: %w", err)
	}
	defer rows.Close()

	out := []models.Idea{}
	for rows.Next() {
		i, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan idea: %w", err)
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

// IdeaCategories returns the non-empty idea categories, most used first.
func (db *DB) IdeaCategories(ctx context.Context) ([]models.Category, error) {
	return db.categories(ctx, "ideas")
}

func scanIdea(s scanner) (*models.Idea, error) {
	var (
		i  models.Idea
		kw string
	)
	if err := s.Scan(&i.ID, &i.Title, &i.Content, &i.Category, &kw, &i.Source, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(kw), &i.Keywords); err != nil || i.Keywords == nil {
		i.Keywords = []string{}
	}
	return &i, nil
}

func keywordsJSON(kw []string) string {
	if kw == nil {
		kw = []string{}
	}
	b, _ := json.Marshal(kw)
	return string(b)
}
