package api

import (
	"fmt"
	"net/http"

	"github.com/starford/agentnote/internal/models"
)

const ideaNotFound = "Idea not found"

// ListIdeas handles GET /api/ideas?keyword&category&limit&offset.
func (h *Handler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := listLimit(r)
	ideas, err := h.svc.SearchIdeas(r.Context(), models.IdeaFilter{
		Keyword:  q.Get("keyword"),
		Category: q.Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeServiceError(w, err, "list ideas", ideaNotFound)
		return
	}
	writeData(w, http.StatusOK, ideas)
}

// AddIdea handles POST /api/ideas.
//
//	@Summary	Save an idea
//	@Tags		ideas
//	@Accept		json
//	@Produce	json
//	@Param		body	body	IdeaRequest	true	"Idea"
//	@Router		/ideas [post]
func (h *Handler) AddIdea(w http.ResponseWriter, r *http.Request) {
	var req IdeaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	idea, err := h.svc.AddIdea(r.Context(), req.idea())
	if err != nil {
		writeServiceError(w, err, "add idea", ideaNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse[*models.Idea]{
		Success: true,
		Data:    idea,
		ID:      idea.ID,
		Message: fmt.Sprintf("Idea saved with ID: %d", idea.ID),
	})
}

// GetIdea handles GET /api/ideas/{id}.
func (h *Handler) GetIdea(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	idea, err := h.svc.GetIdea(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "get idea", ideaNotFound)
		return
	}
	writeData(w, http.StatusOK, idea)
}

// UpdateIdea handles PUT /api/ideas/{id}.
func (h *Handler) UpdateIdea(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateIdeaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	idea, err := h.svc.UpdateIdea(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, err, "update idea", ideaNotFound)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse[*models.Idea]{Success: true, Data: idea, Message: "Idea updated"})
}

// DeleteIdea handles DELETE /api/ideas/{id}.
func (h *Handler) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteIdea(r.Context(), id); err != nil {
		writeServiceError(w, err, "delete idea", ideaNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Idea deleted"})
}

// IdeaCategories handles GET /api/ideas/categories.
func (h *Handler) IdeaCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.IdeaCategories(r.Context())
	if err != nil {
		writeServiceError(w, err, "idea categories", ideaNotFound)
		return
	}
	writeData(w, http.StatusOK, cats)
}

// Recent handles GET /api/recent?limit.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := min(queryInt(r, "limit", 0), MaxListLimit)
	ideas, err := h.svc.RecentIdeas(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err, "recent ideas", ideaNotFound)
		return
	}
	writeData(w, http.StatusOK, ideas)
}

// Relations handles GET /api/ideas/{id}/relations.
func (h *Handler) Relations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rels, err := h.svc.Relations(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "relations", ideaNotFound)
		return
	}
	writeData(w, http.StatusOK, rels)
}

// AddRelation handles POST /api/relations.
func (h *Handler) AddRelation(w http.ResponseWriter, r *http.Request) {
	var req RelationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "idea_id_1 and idea_id_2 are required")
		return
	}
	rel, err := h.svc.Relate(r.Context(), &models.Relation{
		IdeaID1:      req.IdeaID1,
		IdeaID2:      req.IdeaID2,
		RelationType: req.RelationType,
		Note:         req.Note,
	})
	if err != nil {
		writeServiceError(w, err, "add relation", ideaNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Success: true, ID: rel.ID})
}

// Chat handles POST /api/chat. Command usage errors are answered with 200 and
// success=false; only a missing message is a 400.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	reply, err := h.chat.Handle(r.Context(), req.Message)
	if err != nil {
		writeServiceError(w, err, "chat", ideaNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
