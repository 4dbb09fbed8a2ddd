package api

import (
	"net/http"

	"github.com/starford/agentnote/internal/chat"
	"github.com/starford/agentnote/internal/docservice"
	"github.com/starford/agentnote/internal/models"
)

// Paging defaults for list endpoints.
const (
	DefaultListLimit = 20
	MaxListLimit     = 500
)

const docNotFound = "Document not found"

// Handler holds API route handlers.
type Handler struct {
	svc  *docservice.Service
	chat *chat.Interpreter
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc, chat: chat.New(svc)}
}

func listLimit(r *http.Request) (int, int) {
	limit := queryInt(r, "limit", DefaultListLimit)
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset := max(queryInt(r, "offset", 0), 0)
	return limit, offset
}

// ListDocs handles GET /api/docs.
//
//	@Summary	List documents, newest first
//	@Tags		docs
//	@Produce	json
//	@Param		limit		query	int		false	"Page size"
//	@Param		offset		query	int		false	"Page offset"
//	@Param		category	query	string	false	"Filter by category"
//	@Param		tag			query	string	false	"Filter by tag"
//	@Param		keyword		query	string	false	"Match title, content or summary"
//	@Router		/docs [get]
func (h *Handler) ListDocs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := listLimit(r)
	docs, err := h.svc.ListDocs(r.Context(), models.DocFilter{
		Keyword:  q.Get("keyword"),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeServiceError(w, err, "list docs", docNotFound)
		return
	}
	writeData(w, http.StatusOK, docs)
}

// GetDoc handles GET /api/docs/{id}.
func (h *Handler) GetDoc(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.GetDoc(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "get doc", docNotFound)
		return
	}
	writeData(w, http.StatusOK, doc)
}

// SaveDoc handles POST /api/docs. A body whose slug matches a stored document
// updates it and answers 200; otherwise the document is created with 201.
//
//	@Summary	Create or update a document by slug
//	@Tags		docs
//	@Accept		json
//	@Produce	json
//	@Param		body	body	SaveDocRequest	true	"Document"
//	@Router		/docs [post]
func (h *Handler) SaveDoc(w http.ResponseWriter, r *http.Request) {
	var req SaveDocRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	doc, created, err := h.svc.SaveDoc(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, err, "save doc", docNotFound)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, dataResponse[*models.Doc]{Success: true, Data: doc, ID: doc.ID})
}

// UpdateDoc handles PUT /api/docs/{id}.
func (h *Handler) UpdateDoc(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateDocRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := h.svc.UpdateDoc(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, err, "update doc", docNotFound)
		return
	}
	writeData(w, http.StatusOK, doc)
}

// DeleteDoc handles DELETE /api/docs/{id}.
func (h *Handler) DeleteDoc(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteDoc(r.Context(), id); err != nil {
		writeServiceError(w, err, "delete doc", docNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Document deleted"})
}

// DocCategories handles GET /api/categories.
func (h *Handler) DocCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.DocCategories(r.Context())
	if err != nil {
		writeServiceError(w, err, "doc categories", docNotFound)
		return
	}
	writeData(w, http.StatusOK, cats)
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		writeServiceError(w, err, "tags", docNotFound)
		return
	}
	writeData(w, http.StatusOK, tags)
}
