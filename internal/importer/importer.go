// Package importer keeps documents in sync with a directory of markdown files.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/starford/agentnote/internal/apperr"
	"github.com/starford/agentnote/internal/docservice"
	"github.com/starford/agentnote/internal/models"
	"github.com/starford/agentnote/internal/parser"
	"github.com/starford/agentnote/internal/storage"
	"github.com/starford/agentnote/internal/store"
)

// DefaultSource is recorded on imported documents whose frontmatter names none.
const DefaultSource = "import"

var stemJunk = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// Records is the import bookkeeping the importer needs from the store.
type Records interface {
	Imports(ctx context.Context) (map[string]store.Import, error)
	SetImport(ctx context.Context, im store.Import) error
	DeleteImport(ctx context.Context, path string) error
}

// Importer turns markdown files under a root directory into documents.
type Importer struct {
	svc     *docservice.Service
	records Records
	fs      *storage.FS
	log     *slog.Logger
}

// New creates an importer over the files of fs.
func New(svc *docservice.Service, records Records, fs *storage.FS, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{svc: svc, records: records, fs: fs, log: logger}
}

// Stats counts what a Sync did.
type Stats struct {
	Imported  int
	Unchanged int
	Removed   int
	Failed    int
}

// Sync walks the directory and brings the documents up to date:
//   - new/changed files are parsed and saved
//   - documents whose file was removed are deleted
func (im *Importer) Sync(ctx context.Context) (Stats, error) {
	var st Stats
	files, err := im.fs.List("")
	if err != nil {
		return st, err
	}
	records, err := im.records.Imports(ctx)
	if err != nil {
		return st, err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}
		if rec, ok := records[f.Path]; ok && rec.Checksum == f.Checksum {
			st.Unchanged++
			continue
		}
		data, err := im.fs.Read(f.Path)
		if err != nil {
			st.Failed++
			im.log.Warn("sync: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		if _, err := im.importData(ctx, f.Path, data, records); err != nil {
			st.Failed++
			im.log.Warn("sync: import failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		st.Imported++
		im.log.Debug("sync: imported", slog.String("path", f.Path))
	}

	for p, rec := range records {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := im.forget(ctx, rec); err != nil {
			st.Failed++
			im.log.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		st.Removed++
		im.log.Debug("sync: removed stale", slog.String("path", p))
	}
	return st, nil
}

// ImportFile reads one file (relative to the root) and saves it as a document.
func (im *Importer) ImportFile(ctx context.Context, rel string) (*models.Doc, error) {
	data, err := im.fs.Read(rel)
	if err != nil {
		return nil, err
	}
	records, err := im.records.Imports(ctx)
	if err != nil {
		return nil, err
	}
	return im.importData(ctx, rel, data, records)
}

// Forget deletes the document imported from rel, if any.
func (im *Importer) Forget(ctx context.Context, rel string) error {
	records, err := im.records.Imports(ctx)
	if err != nil {
		return err
	}
	rec, ok := records[rel]
	if !ok {
		return nil
	}
	return im.forget(ctx, rec)
}

func (im *Importer) forget(ctx context.Context, rec store.Import) error {
	if err := im.svc.DeleteDoc(ctx, rec.DocID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	return im.records.DeleteImport(ctx, rec.Path)
}

func (im *Importer) importData(ctx context.Context, rel string, data []byte, records map[string]store.Import) (*models.Doc, error) {
	res := parser.Parse(data)
	in := docservice.SaveDocInput{
		Title:   res.Title,
		Content: res.Body,
		Slug:    StemSlug(rel),
		Source:  DefaultSource,
	}
	if m := res.Meta; m != nil {
		if m.Slug != "" {
			in.Slug = m.Slug
		}
		if m.Source != "" {
			in.Source = m.Source
		}
		in.Category = m.Category
		in.Summary = m.Summary
		in.Tags = m.Tags
	}
	if in.Title == "" {
		in.Title = strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	}

	doc, _, err := im.svc.SaveDoc(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("importer: %s: %w", rel, err)
	}
	// The file now maps to a different slug; drop the document it used to produce.
	if prev, ok := records[rel]; ok && prev.DocID != doc.ID {
		if err := im.svc.DeleteDoc(ctx, prev.DocID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			im.log.Warn("import: drop previous doc failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
	}
	if err := im.records.SetImport(ctx, store.Import{Path: rel, DocID: doc.ID, Checksum: storage.Checksum(data)}); err != nil {
		return nil, err
	}
	return doc, nil
}

// StemSlug derives a slug from a relative file path: extension dropped,
// directories joined with "-", lowercased, other punctuation collapsed.
func StemSlug(rel string) string {
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	stem = strings.ToLower(strings.ReplaceAll(stem, "/", "-"))
	return strings.Trim(stemJunk.ReplaceAllString(stem, "-"), "-")
}
