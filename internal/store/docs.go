package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/agentnote/internal/apperr"
	"github.com/starford/agentnote/internal/models"
)

const docColumns = `id, slug, title, content, category, summary, source, created_at, updated_at`

// CreateDoc inserts a document with its tags and returns the new id.
// A duplicate slug yields apperr.ErrAlreadyExists.
func (db *DB) CreateDoc(ctx context.Context, d *models.Doc) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (slug, title, content, category, summary, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.Slug, d.Title, d.Content, d.Category, d.Summary, d.Source, d.CreatedAt.UTC(), d.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("store: create doc %q: %w", d.Slug, apperr.ErrAlreadyExists)
		}
		return 0, fmt.Errorf("store: create doc: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: create doc id: %w", err)
	}
	if err := replaceTags(ctx, tx, id, d.Tags); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	d.ID = id
	return id, nil
}

// GetDoc returns the document with the given id, tags included.
func (db *DB) GetDoc(ctx context.Context, id int64) (*models.Doc, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+docColumns+` FROM documents WHERE id = ?`, id)
	return db.scanOneDoc(ctx, row, fmt.Sprintf("id %d", id))
}

// GetDocBySlug returns the document with the given slug, tags included.
func (db *DB) GetDocBySlug(ctx context.Context, slug string) (*models.Doc, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+docColumns+` FROM documents WHERE slug = ?`, slug)
	return db.scanOneDoc(ctx, row, fmt.Sprintf("slug %q", slug))
}

func (db *DB) scanOneDoc(ctx context.Context, row *sql.Row, key string) (*models.Doc, error) {
	d, err := scanDoc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: doc %s: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get doc %s: %w", key, err)
	}
	tags, err := db.tagsFor(ctx, []int64{d.ID})
	if err != nil {
		return nil, err
	}
	d.Tags = tagsOrEmpty(tags[d.ID])
	return d, nil
}

// UpdateDoc applies the non-nil fields of in to the document.
// Returns apperr.ErrNoChanges when in carries nothing to write.
func (db *DB) UpdateDoc(ctx context.Context, id int64, in models.DocInput) error {
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
	if in.Slug != "" {
		sets = append(sets, "slug = ?")
		args = append(args, in.Slug)
	}
	add("title", in.Title)
	add("content", in.Content)
	add("category", in.Category)
	add("summary", in.Summary)
	add("source", in.Source)
	if len(sets) == 0 && !in.SetTags {
		return apperr.ErrNoChanges
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)
	res, err := tx.ExecContext(ctx, `UPDATE documents SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store: update doc %d: slug %q: %w", id, in.Slug, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("store: update doc %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: doc id %d: %w", id, apperr.ErrNotFound)
	}
	if in.SetTags {
		if err := replaceTags(ctx, tx, id, in.Tags); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// DeleteDoc removes a document. Its tag links and import record go with it.
func (db *DB) DeleteDoc(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete doc %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: doc id %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// ListDocs returns documents newest first. Keyword is a substring match
// over title, content and summary.
func (db *DB) ListDocs(ctx context.Context, f models.DocFilter) ([]models.Doc, error) {
	var (
		where []string
		args  []any
	)
	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		where = append(where, "(title LIKE ? OR content LIKE ? OR summary LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Tag != "" {
		where = append(where, `id IN (
			SELECT dt.document_id FROM document_tags dt
			JOIN tags t ON t.id = dt.tag_id WHERE t.name = ?)`)
		args = append(args, f.Tag)
	}

	q := `SELECT ` + docColumns + ` FROM documents`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`
	q, args = paginate(q, args, f.Limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list docs: %w", err)
	}
	defer rows.Close()

	out := []models.Doc{}
	var ids []int64
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan doc: %w", err)
		}
		out = append(out, *d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list docs: %w", err)
	}

	tags, err := db.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Tags = tagsOrEmpty(tags[out[i].ID])
	}
	return out, nil
}

// DocCategories returns the non-empty document categories, most used first.
func (db *DB) DocCategories(ctx context.Context) ([]models.Category, error) {
	return db.categories(ctx, "documents")
}

// Tags returns every tag with the number of documents carrying it, most used first.
func (db *DB) Tags(ctx context.Context) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.name, COUNT(dt.document_id) AS n
		FROM tags t LEFT JOIN document_tags dt ON dt.tag_id = t.id
		GROUP BY t.id
		ORDER BY n DESC, t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("store: tags: %w", err)
	}
	defer rows.Close()

	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.Name, &t.Count); err != nil {
			return nil, fmt.Errorf("store: scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (db *DB) categories(ctx context.Context, table string) ([]models.Category, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT category, COUNT(*) AS n FROM `+table+`
		WHERE category != ''
		GROUP BY category
		ORDER BY n DESC, category
	`)
	if err != nil {
		return nil, fmt.Errorf("store: %s categories: %w", table, err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("store: scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// tagsFor loads the tag names of every id in one query.
func (db *DB) tagsFor(ctx context.Context, ids []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT dt.document_id, t.name
		FROM document_tags dt JOIN tags t ON t.id = dt.tag_id
		WHERE dt.document_id IN (`+placeholders(len(ids))+`)
		ORDER BY t.name
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: doc tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("store: scan doc tag: %w", err)
		}
		out[id] = append(out[id], name)
	}
	return out, rows.Err()
}

// replaceTags sets the document's tag list, creating tags on first use.
func replaceTags(ctx context.Context, tx *sql.Tx, docID int64, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_tags WHERE document_id = ?`, docID); err != nil {
		return fmt.Errorf("store: clear tags: %w", err)
	}
	if len(tags) == 0 {
		return nil
	}
	insTag, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO tags (name) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("store: prepare tag insert: %w", err)
	}
	defer insTag.Close()
	link, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO document_tags (document_id, tag_id)
		SELECT ?, id FROM tags WHERE name = ?`)
	if err != nil {
		return fmt.Errorf("store: prepare tag link: %w", err)
	}
	defer link.Close()

	for _, name := range tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := insTag.ExecContext(ctx, name); err != nil {
			return fmt.Errorf("store: insert tag %q: %w", name, err)
		}
		if _, err := link.ExecContext(ctx, docID, name); err != nil {
			return fmt.Errorf("store: link tag %q: %w", name, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDoc(s scanner) (*models.Doc, error) {
	var d models.Doc
	err := s.Scan(&d.ID, &d.Slug, &d.Title, &d.Content, &d.Category, &d.Summary, &d.Source, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// paginate appends LIMIT/OFFSET. A non-positive limit means no limit.
func paginate(q string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 && offset <= 0 {
		return q, args
	}
	if limit <= 0 {
		limit = -1
	}
	q += ` LIMIT ? OFFSET ?`
	return q, append(args, limit, max(offset, 0))
}
