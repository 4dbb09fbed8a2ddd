package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/agentnote/internal/apperr"
	"github.com/starford/agentnote/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithRetry(3, time.Millisecond)}, opts...)
	return New(srv.URL, opts...)
}

func TestFetchDoc(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/docs/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, models.Envelope[models.Doc]{
			Success: true,
			Data:    models.Doc{ID: 42, Title: "Hello", Content: "# Hello"},
		})
	})

	env, err := c.FetchDoc(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchDoc: %v", err)
	}
	if !env.Success || env.Data.ID != 42 || env.Data.Title != "Hello" {
		t.Errorf("env = %+v", env)
	}
}

func TestFetchDoc_NotFoundIsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Document not found"})
	})

	env, err := c.FetchDoc(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchDoc: %v", err)
	}
	if env.Success || env.Error != "Document not found" {
		t.Errorf("env = %+v", env)
	}

	_, err = c.GetDoc(context.Background(), 1)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetDoc err = %v, want ErrNotFound", err)
	}
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "error": "busy"})
			return
		}
		writeJSON(w, http.StatusOK, models.Envelope[[]models.Tag]{
			Success: true,
			Data:    []models.Tag{{Name: "go", Count: 2}},
		})
	})

	tags, err := c.Tags(context.Background())
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "go" {
		t.Errorf("tags = %+v", tags)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGet_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "db down"})
	})

	_, err := c.Categories(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Message != "db down" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestListDocs_QueryParameters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "50" || q.Get("category") != "go" || q.Get("tag") != "" || q.Get("keyword") != "chan" {
			t.Errorf("query = %v", q)
		}
		writeJSON(w, http.StatusOK, models.Envelope[[]models.Doc]{
			Success: true,
			Data:    []models.Doc{{ID: 1}, {ID: 2}},
		})
	})

	docs, err := c.ListDocs(context.Background(), models.DocFilter{Limit: 50, Category: "go", Keyword: "chan"})
	if err != nil {
		t.Fatalf("ListDocs: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("docs = %d, want 2", len(docs))
	}
}

func TestDeleteDoc_IsNotRetriedAndReportsServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "locked"})
	})

	err := c.DeleteDoc(context.Background(), 3)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "locked" {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestDeleteDoc_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Document not found"})
	})
	if err := c.DeleteDoc(context.Background(), 3); !IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestToken_SentAsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer s3cret" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, WithToken("s3cret"))

	if err := c.DeleteDoc(context.Background(), 1); err != nil {
		t.Errorf("DeleteDoc: %v", err)
	}
}

func TestChat_UsageErrorIsReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["message"] != "/nope" {
			t.Errorf("message = %q", body["message"])
		}
		writeJSON(w, http.StatusOK, models.ChatReply{Success: false, Error: "Unknown command: /nope"})
	})

	reply, err := c.Chat(context.Background(), "/nope")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Success || reply.Error != "Unknown command: /nope" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestSaveDoc(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req SaveDocRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		writeJSON(w, http.StatusCreated, models.Envelope[models.Doc]{
			Success: true,
			Data:    models.Doc{ID: 9, Slug: req.Slug, Title: req.Title, Tags: req.Tags},
		})
	})

	doc, err := c.SaveDoc(context.Background(), SaveDocRequest{Slug: "s", Title: "T", Content: "c", Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("SaveDoc: %v", err)
	}
	if doc.ID != 9 || doc.Slug != "s" || len(doc.Tags) != 1 {
		t.Errorf("doc = %+v", doc)
	}
}
