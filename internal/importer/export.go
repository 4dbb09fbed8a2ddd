package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/agentnote/internal/models"
	"github.com/starford/agentnote/internal/parser"
	"github.com/starford/agentnote/internal/storage"
	"github.com/starford/agentnote/internal/store"
)

// Export writes every document matching f to <slug>.md under the root,
// with its metadata as frontmatter. Written files are recorded as imported
// so a later Sync over the same directory leaves them alone.
func (im *Importer) Export(ctx context.Context, f models.DocFilter) (int, error) {
	docs, err := im.svc.ListDocs(ctx, f)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range docs {
		data, err := parser.Format(parser.Frontmatter{
			Title:    d.Title,
			Slug:     d.Slug,
			Category: d.Category,
			Tags:     d.Tags,
			Summary:  d.Summary,
			Source:   d.Source,
		}, d.Content)
		if err != nil {
			return n, err
		}
		rel := d.Slug + ".md"
		if err := im.fs.Write(rel, data); err != nil {
			return n, fmt.Errorf("importer: export %s: %w", rel, err)
		}
		if err := im.records.SetImport(ctx, store.Import{Path: rel, DocID: d.ID, Checksum: storage.Checksum(data)}); err != nil {
			return n, err
		}
		n++
		im.log.Debug("export: wrote", slog.String("path", rel), slog.Int64("id", d.ID))
	}
	return n, nil
}
