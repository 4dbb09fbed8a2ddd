package store

import (
	"context"
	"fmt"
)

// Imports returns the import records keyed by relative path.
func (db *DB) Imports(ctx context.Context) (map[string]Import, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, document_id, checksum FROM imports`)
	if err != nil {
		return nil, fmt.Errorf("store: imports: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Import)
	for rows.Next() {
		var im Import
		if err := rows.Scan(&im.Path, &im.DocID, &im.Checksum); err != nil {
			return nil, fmt.Errorf("store: scan import: %w", err)
		}
		out[im.Path] = im
	}
	return out, rows.Err()
}

// SetImport records (or replaces) the document a file was imported as.
func (db *DB) SetImport(ctx context.Context, im Import) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO imports (path, document_id, checksum) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			document_id = excluded.document_id,
			checksum    = excluded.checksum
	`, im.Path, im.DocID, im.Checksum)
	if err != nil {
		return fmt.Errorf("store: set import %s: %w", im.Path, err)
	}
	return nil
}

// DeleteImport forgets the import record for path. Missing records are ignored.
func (db *DB) DeleteImport(ctx context.Context, path string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM imports WHERE path = ?`, path); err != nil {
		return fmt.Errorf("store: delete import %s: %w", path, err)
	}
	return nil
}
