package store

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/starford/agentnote/internal/apperr"
	"github.com/starford/agentnote/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "agentnote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strp(s string) *string { return &s }

func mustDoc(t *testing.T, db *DB, d models.Doc) int64 {
	t.Helper()
	id, err := db.CreateDoc(context.Background(), &d)
	if err != nil {
		t.Fatalf("CreateDoc %q: %v", d.Slug, err)
	}
	return id
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"documents", "tags", "document_tags", "ideas", "relations", "imports"} {
		var n int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&n); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestCreateAndGetDoc(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	id := mustDoc(t, db, models.Doc{
		Slug: "hello", Title: "Hello", Content: "# Hello\nbody",
		Category: "notes", Summary: "Hello body", Tags: []string{"go", "", " sqlite "},
	})

	d, err := db.GetDoc(ctx, id)
	if err != nil {
		t.Fatalf("GetDoc: %v", err)
	}
	if d.Title != "Hello" || d.Category != "notes" || d.Slug != "hello" {
		t.Errorf("doc = %+v", d)
	}
	if !reflect.DeepEqual(d.Tags, []string{"go", "sqlite"}) {
		t.Errorf("tags = %v", d.Tags)
	}
	if d.CreatedAt.IsZero() || !d.CreatedAt.Equal(d.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", d.CreatedAt, d.UpdatedAt)
	}

	bySlug, err := db.GetDocBySlug(ctx, "hello")
	if err != nil || bySlug.ID != id {
		t.Fatalf("GetDocBySlug = %v, %v", bySlug, err)
	}
}

func TestGetDoc_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetDoc(context.Background(), 42); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := db.GetDocBySlug(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateDoc_DuplicateSlug(t *testing.T) {
	db := testDB(t)
	mustDoc(t, db, models.Doc{Slug: "same", Title: "A"})
	_, err := db.CreateDoc(context.Background(), &models.Doc{Slug: "same", Title: "B"})
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestUpdateDoc(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	id := mustDoc(t, db, models.Doc{Slug: "u", Title: "Old", Content: "c", Tags: []string{"a", "b"}})

	err := db.UpdateDoc(ctx, id, models.DocInput{Title: strp("New"), Tags: []string{"c"}, SetTags: true})
	if err != nil {
		t.Fatalf("UpdateDoc: %v", err)
	}
	d, _ := db.GetDoc(ctx, id)
	if d.Title != "New" || d.Content != "c" {
		t.Errorf("doc = %+v", d)
	}
	if !reflect.DeepEqual(d.Tags, []string{"c"}) {
		t.Errorf("tags = %v", d.Tags)
	}

	// Tags untouched without SetTags.
	if err := db.UpdateDoc(ctx, id, models.DocInput{Category: strp("x")}); err != nil {
		t.Fatal(err)
	}
	d, _ = db.GetDoc(ctx, id)
	if d.Category != "x" || len(d.Tags) != 1 {
		t.Errorf("doc = %+v", d)
	}

	if err := db.UpdateDoc(ctx, id, models.DocInput{}); !errors.Is(err, apperr.ErrNoChanges) {
		t.Errorf("empty update err = %v", err)
	}
	if err := db.UpdateDoc(ctx, 999, models.DocInput{Title: strp("t")}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing update err = %v", err)
	}
}

func TestDeleteDoc(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	id := mustDoc(t, db, models.Doc{Slug: "d", Title: "D", Tags: []string{"gone"}})
	if err := db.SetImport(ctx, Import{Path: "d.md", DocID: id, Checksum: "x"}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteDoc(ctx, id); err != nil {
		t.Fatalf("DeleteDoc: %v", err)
	}
	if _, err := db.GetDoc(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("doc still present: %v", err)
	}
	ims, _ := db.Imports(ctx)
	if len(ims) != 0 {
		t.Errorf("import record survived: %v", ims)
	}
	if err := db.DeleteDoc(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestListDocs(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mustDoc(t, db, models.Doc{Slug: "a", Title: "Channels", Content: "send and receive", Category: "go", Tags: []string{"concurrency"}, CreatedAt: base})
	mustDoc(t, db, models.Doc{Slug: "b", Title: "Indexes", Content: "btree", Category: "db", Summary: "about channels", CreatedAt: base.Add(time.Hour)})
	mustDoc(t, db, models.Doc{Slug: "c", Title: "Mutexes", Content: "locks", Category: "go", Tags: []string{"concurrency", "sync"}, CreatedAt: base.Add(2 * time.Hour)})

	titles := func(docs []models.Doc) []string {
		out := []string{}
		for _, d := range docs {
			out = append(out, d.Title)
		}
		return out
	}

	cases := []struct {
		name string
		f    models.DocFilter
		want []string
	}{
		{"all newest first", models.DocFilter{}, []string{"Mutexes", "Indexes", "Channels"}},
		{"keyword matches summary", models.DocFilter{Keyword: "channels"}, []string{"Indexes", "Channels"}},
		{"category", models.DocFilter{Category: "go"}, []string{"Mutexes", "Channels"}},
		{"tag", models.DocFilter{Tag: "sync"}, []string{"Mutexes"}},
		{"combined", models.DocFilter{Category: "go", Tag: "concurrency", Keyword: "send"}, []string{"Channels"}},
		{"limit", models.DocFilter{Limit: 1}, []string{"Mutexes"}},
		{"offset", models.DocFilter{Limit: 2, Offset: 1}, []string{"Indexes", "Channels"}},
		{"no match", models.DocFilter{Keyword: "zzz"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			docs, err := db.ListDocs(ctx, tc.f)
			if err != nil {
				t.Fatalf("ListDocs: %v", err)
			}
			if got := titles(docs); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}

	docs, _ := db.ListDocs(ctx, models.DocFilter{Tag: "sync"})
	if !reflect.DeepEqual(docs[0].Tags, []string{"concurrency", "sync"}) {
		t.Errorf("tags = %v", docs[0].Tags)
	}
	docs, _ = db.ListDocs(ctx, models.DocFilter{Category: "db"})
	if docs[0].Tags == nil {
		t.Error("tags should be an empty slice, not nil")
	}
}

func TestCategoriesAndTags(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	mustDoc(t, db, models.Doc{Slug: "1", Title: "1", Category: "go", Tags: []string{"x"}})
	mustDoc(t, db, models.Doc{Slug: "2", Title: "2", Category: "go", Tags: []string{"x", "y"}})
	mustDoc(t, db, models.Doc{Slug: "3", Title: "3", Category: "db"})
	mustDoc(t, db, models.Doc{Slug: "4", Title: "4"})

	cats, err := db.DocCategories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.Category{{Category: "go", Count: 2}, {Category: "db", Count: 1}}
	if !reflect.DeepEqual(cats, want) {
		t.Errorf("categories = %v, want %v", cats, want)
	}

	tags, err := db.Tags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantTags := []models.Tag{{Name: "x", Count: 2}, {Name: "y", Count: 1}}
	if !reflect.DeepEqual(tags, wantTags) {
		t.Errorf("tags = %v, want %v", tags, wantTags)
	}
}

func TestIdeas(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	first := &models.Idea{Title: "Cache warmup", Content: "preload on hover", Category: "perf", Keywords: []string{"cache", "latency"}, CreatedAt: base}
	if _, err := db.CreateIdea(ctx, first); err != nil {
		t.Fatalf("CreateIdea: %v", err)
	}
	second := &models.Idea{Title: "Dark mode", Content: "theme toggle", CreatedAt: base.Add(time.Minute)}
	if _, err := db.CreateIdea(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetIdea(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Keywords, []string{"cache", "latency"}) {
		t.Errorf("keywords = %v", got.Keywords)
	}
	if g2, _ := db.GetIdea(ctx, second.ID); g2.Keywords == nil || len(g2.Keywords) != 0 {
		t.Errorf("empty keywords = %#v", g2.Keywords)
	}

	list, _ := db.ListIdeas(ctx, models.IdeaFilter{Keyword: "latency"})
	if len(list) != 1 || list[0].ID != first.ID {
		t.Errorf("keyword search = %v", list)
	}
	list, _ = db.ListIdeas(ctx, models.IdeaFilter{})
	if len(list) != 2 || list[0].ID != second.ID {
		t.Errorf("recent order = %v", list)
	}

	if err := db.UpdateIdea(ctx, second.ID, models.IdeaInput{Category: strp("ui"), Keywords: []string{"theme"}, SetKeywords: true}); err != nil {
		t.Fatalf("UpdateIdea: %v", err)
	}
	cats, _ := db.IdeaCategories(ctx)
	if len(cats) != 2 {
		t.Errorf("idea categories = %v", cats)
	}

	if err := db.DeleteIdea(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetIdea(ctx, first.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestRelations(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := &models.Idea{Title: "a", Content: "a"}
	b := &models.Idea{Title: "b", Content: "b"}
	db.CreateIdea(ctx, a)
	db.CreateIdea(ctx, b)

	r := &models.Relation{IdeaID1: a.ID, IdeaID2: b.ID}
	if _, err := db.AddRelation(ctx, r); err != nil {
		t.Fatalf("AddRelation: %v", err)
	}
	if r.RelationType != "related" {
		t.Errorf("default type = %q", r.RelationType)
	}
	if _, err := db.AddRelation(ctx, &models.Relation{IdeaID1: a.ID, IdeaID2: 99}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("dangling relation err = %v", err)
	}

	rels, err := db.Relations(ctx, b.ID)
	if err != nil || len(rels) != 1 {
		t.Fatalf("Relations = %v, %v", rels, err)
	}

	db.DeleteIdea(ctx, a.ID)
	rels, _ = db.Relations(ctx, b.ID)
	if len(rels) != 0 {
		t.Errorf("relation survived idea deletion: %v", rels)
	}
}

func TestImports(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	id := mustDoc(t, db, models.Doc{Slug: "i", Title: "I"})

	if err := db.SetImport(ctx, Import{Path: "notes/i.md", DocID: id, Checksum: "1"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetImport(ctx, Import{Path: "notes/i.md", DocID: id, Checksum: "2"}); err != nil {
		t.Fatal(err)
	}
	ims, err := db.Imports(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ims["notes/i.md"].Checksum != "2" {
		t.Errorf("imports = %v", ims)
	}
	if err := db.DeleteImport(ctx, "notes/i.md"); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteImport(ctx, "never.md"); err != nil {
		t.Errorf("missing import delete: %v", err)
	}
}
