package store

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/agentnote/internal/apperr"
	"github.com/starford/agentnote/internal/models"
)

// AddRelation links two existing ideas. Both must exist.
func (db *DB) AddRelation(ctx context.Context, r *models.Relation) (int64, error) {
	for _, id := range []int64{r.IdeaID1, r.IdeaID2} {
		var one int
		if err := db.conn.QueryRowContext(ctx, `SELECT 1 FROM ideas WHERE id = ?`, id).Scan(&one); err != nil {
			return 0, fmt.Errorf("store: relation idea %d: %w", id, apperr.ErrNotFound)
		}
	}
	if r.RelationType == "" {
		r.RelationType = "related"
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO relations (idea_id_1, idea_id_2, relation_type, note, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.IdeaID1, r.IdeaID2, r.RelationType, r.Note, r.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("store: add relation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: add relation id: %w", err)
	}
	r.ID = id
	return id, nil
}

// Relations returns every relation touching the idea, in either direction.
func (db *DB) Relations(ctx context.Context, ideaID int64) ([]models.Relation, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, idea_id_1, idea_id_2, relation_type, note, created_at
		FROM relations WHERE idea_id_1 = ? OR idea_id_2 = ?
		ORDER BY created_at, id
	`, ideaID, ideaID)
	if err != nil {
		return nil, fmt.Errorf("store: relations: %w", err)
	}
	defer rows.Close()

	out := []models.Relation{}
	for rows.Next() {
		var r models.Relation
		if err := rows.Scan(&r.ID, &r.IdeaID1, &r.IdeaID2, &r.RelationType, &r.Note, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan relation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
