package store

import (
	"context"

	"github.com/starford/agentnote/internal/models"
)

// Store defines the persistence operations used by the service layer.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Store interface {
	CreateDoc(ctx context.Context, d *models.Doc) (int64, error)
	GetDoc(ctx context.Context, id int64) (*models.Doc, error)
	GetDocBySlug(ctx context.Context, slug string) (*models.Doc, error)
	UpdateDoc(ctx context.Context, id int64, in models.DocInput) error
	DeleteDoc(ctx context.Context, id int64) error
	ListDocs(ctx context.Context, f models.DocFilter) ([]models.Doc, error)
	DocCategories(ctx context.Context) ([]models.Category, error)
	Tags(ctx context.Context) ([]models.Tag, error)

	CreateIdea(ctx context.Context, i *models.Idea) (int64, error)
	GetIdea(ctx context.Context, id int64) (*models.Idea, error)
	UpdateIdea(ctx context.Context, id int64, in models.IdeaInput) error
	DeleteIdea(ctx context.Context, id int64) error
	ListIdeas(ctx context.Context, f models.IdeaFilter) ([]models.Idea, error)
	IdeaCategories(ctx context.Context) ([]models.Category, error)

	AddRelation(ctx context.Context, r *models.Relation) (int64, error)
	Relations(ctx context.Context, ideaID int64) ([]models.Relation, error)

	Imports(ctx context.Context) (map[string]Import, error)
	SetImport(ctx context.Context, im Import) error
	DeleteImport(ctx context.Context, path string) error

	Ping() error
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// Import records which document a file in the import directory produced.
type Import struct {
	Path     string
	DocID    int64
	Checksum string
}
