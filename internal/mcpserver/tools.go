package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/agentnote/internal/apperr"
	"github.com/starford/agentnote/internal/docservice"
	"github.com/starford/agentnote/internal/models"
)

const defaultSearchLimit = 20

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func serviceError(err error, what string) (*mcp.CallToolResult, error) {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found: " + what), nil
	}
	return mcp.NewToolResultError(err.Error()), nil
}

// optString returns a pointer to the string argument, or nil when it was not sent.
func optString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func hasArg(req mcp.CallToolRequest, key string) bool {
	_, ok := req.GetArguments()[key]
	return ok
}

func (s *Server) addIdea(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idea, err := s.svc.AddIdea(ctx, &models.Idea{
		Title:    title,
		Content:  content,
		Category: req.GetString("category", ""),
		Keywords: req.GetStringSlice("keywords", nil),
		Source:   req.GetString("source", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"id":      idea.ID,
		"message": fmt.Sprintf("Idea saved with ID: %d", idea.ID),
		"idea":    idea,
	})
}

func (s *Server) getIdea(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetIdeaDetail(ctx, int64(id))
	if err != nil {
		return serviceError(err, fmt.Sprintf("idea %d", id))
	}
	return jsonResult(detail)
}

func (s *Server) updateIdea(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := models.IdeaInput{
		Title:    optString(req, "title"),
		Content:  optString(req, "content"),
		Category: optString(req, "category"),
	}
	if hasArg(req, "keywords") {
		in.Keywords, in.SetKeywords = req.GetStringSlice("keywords", nil), true
	}
	idea, err := s.svc.UpdateIdea(ctx, int64(id), in)
	switch {
	case errors.Is(err, apperr.ErrNoChanges):
		return mcp.NewToolResultError("no fields to update"), nil
	case err != nil:
		return serviceError(err, fmt.Sprintf("idea %d", id))
	}
	return jsonResult(map[string]any{
		"message": fmt.Sprintf("Idea %d updated", id),
		"idea":    idea,
	})
}

func (s *Server) deleteIdea(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idea, err := s.svc.GetIdea(ctx, int64(id))
	if err != nil {
		return serviceError(err, fmt.Sprintf("idea %d", id))
	}
	if err := s.svc.DeleteIdea(ctx, idea.ID); err != nil {
		return serviceError(err, fmt.Sprintf("idea %d", id))
	}
	return mcp.NewToolResultText("deleted idea: " + idea.Title), nil
}

func (s *Server) searchIdeas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ideas, err := s.svc.SearchIdeas(ctx, models.IdeaFilter{
		Keyword:  req.GetString("keyword", ""),
		Category: req.GetString("category", ""),
		Limit:    req.GetInt("limit", defaultSearchLimit),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"count": len(ideas), "results": ideas})
}

func (s *Server) getRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ideas, err := s.svc.RecentIdeas(ctx, req.GetInt("limit", docservice.DefaultRecentLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"count": len(ideas), "results": ideas})
}

func (s *Server) relateIdeas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id1, err := req.RequireInt("idea_id_1")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id2, err := req.RequireInt("idea_id_2")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.svc.GetIdea(ctx, int64(id1))
	if err != nil {
		return serviceError(err, fmt.Sprintf("idea %d", id1))
	}
	b, err := s.svc.GetIdea(ctx, int64(id2))
	if err != nil {
		return serviceError(err, fmt.Sprintf("idea %d", id2))
	}
	rel, err := s.svc.Relate(ctx, &models.Relation{
		IdeaID1:      a.ID,
		IdeaID2:      b.ID,
		RelationType: req.GetString("relation_type", ""),
		Note:         req.GetString("note", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"relation_id": rel.ID,
		"message":     fmt.Sprintf("Related [%s] <-> [%s]", a.Title, b.Title),
	})
}

func (s *Server) findSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.FindSimilar(ctx,
		int64(req.GetInt("idea_id", 0)),
		req.GetStringSlice("keywords", nil),
		req.GetInt("limit", docservice.DefaultSimilarLimit),
	)
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return mcp.NewToolResultError("no keywords to search with"), nil
	case err != nil:
		return serviceError(err, fmt.Sprintf("idea %d", req.GetInt("idea_id", 0)))
	}
	return jsonResult(res)
}

type categoryReport struct {
	*docservice.CategorySummary
	Prompt string `json:"summary_prompt,omitempty"`
}

func (s *Server) summarizeCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := s.svc.SummarizeCategory(ctx, req.GetString("category", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep := categoryReport{CategorySummary: sum}
	if sum.Category != "" {
		rep.Prompt = fmt.Sprintf("Write a summary report of the following %d ideas about %q.", sum.Count, sum.Category)
	}
	return jsonResult(rep)
}

func (s *Server) formatThought(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	th := docservice.FormatThought(text)
	if th.Content == "" {
		return mcp.NewToolResultError("text is empty"), nil
	}
	return jsonResult(th)
}

func (s *Server) saveDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, created, err := s.svc.SaveDoc(ctx, docservice.SaveDocInput{
		Slug:     req.GetString("slug", ""),
		Title:    title,
		Content:  content,
		Category: req.GetString("category", ""),
		Summary:  req.GetString("summary", ""),
		Source:   req.GetString("source", ""),
		Tags:     req.GetStringSlice("tags", nil),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"id":      doc.ID,
		"slug":    doc.Slug,
		"created": created,
		"message": "Document saved: " + doc.Title,
	})
}

func (s *Server) getDocContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocFormatContract), nil
}

func (s *Server) readDocFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DocFormatURI,
			MIMEType: "text/markdown",
			Text:     DocFormatContract,
		},
	}, nil
}
