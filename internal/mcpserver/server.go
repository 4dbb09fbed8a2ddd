// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes AgentNote tools for LLM integration via stdio transport.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/agentnote/internal/docservice"
)

// DocFormatURI is the resource holding DocFormatContract.
const DocFormatURI = "agentnote://doc-format"

// Server wraps the MCP server with AgentNote tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *docservice.Service
	tools map[string]server.ToolHandlerFunc
}

// New creates a new MCP server with all AgentNote tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc, tools: map[string]server.ToolHandlerFunc{}}

	s.mcp = server.NewMCPServer(
		"AgentNote",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.add(mcp.NewTool("add_idea",
		mcp.WithDescription("Save a new idea. Format loose text with format_thought first when it has no title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("The idea itself")),
		mcp.WithString("category", mcp.Description("Optional category")),
		mcp.WithArray("keywords", mcp.WithStringItems(), mcp.Description("Optional keywords used by find_similar")),
		mcp.WithString("source", mcp.Description("Where the idea came from (default chat)")),
	), s.addIdea)

	s.add(mcp.NewTool("get_idea",
		mcp.WithDescription("Read one idea with its relations."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Idea id")),
	), s.getIdea)

	s.add(mcp.NewTool("update_idea",
		mcp.WithDescription("Change fields of an idea. Omitted fields are left unchanged."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Idea id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New content")),
		mcp.WithString("category", mcp.Description("New category")),
		mcp.WithArray("keywords", mcp.WithStringItems(), mcp.Description("Replacement keyword list")),
	), s.updateIdea)

	s.add(mcp.NewTool("delete_idea",
		mcp.WithDescription("Delete an idea and its relations."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Idea id")),
	), s.deleteIdea)

	s.add(mcp.NewTool("search_ideas",
		mcp.WithDescription("Search ideas by keyword (title, content, keywords) and/or category, newest first."),
		mcp.WithString("keyword", mcp.Description("Text to look for")),
		mcp.WithString("category", mcp.Description("Exact category")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchIdeas)

	s.add(mcp.NewTool("get_recent",
		mcp.WithDescription("List the most recent ideas."),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
	), s.getRecent)

	s.add(mcp.NewTool("relate_ideas",
		mcp.WithDescription("Link two ideas."),
		mcp.WithNumber("idea_id_1", mcp.Required(), mcp.Description("First idea id")),
		mcp.WithNumber("idea_id_2", mcp.Required(), mcp.Description("Second idea id")),
		mcp.WithString("relation_type", mcp.Description("Kind of link (default related)")),
		mcp.WithString("note", mcp.Description("Why the ideas are linked")),
	), s.relateIdeas)

	s.add(mcp.NewTool("find_similar",
		mcp.WithDescription("Find ideas sharing keywords with an idea or with the given keywords."),
		mcp.WithNumber("idea_id", mcp.Description("Idea whose keywords and category are searched; it is excluded from the results")),
		mcp.WithArray("keywords", mcp.WithStringItems(), mcp.Description("Extra keywords")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 5)")),
	), s.findSimilar)

	s.add(mcp.NewTool("summarize_category",
		mcp.WithDescription("List the ideas of a category for summarising, or every category with counts when none is given."),
		mcp.WithString("category", mcp.Description("Category to summarise")),
	), s.summarizeCategory)

	s.add(mcp.NewTool("format_thought",
		mcp.WithDescription("Shape loose text into idea fields (title, category, keywords, content) ready for add_idea."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The raw thought")),
	), s.formatThought)

	s.add(mcp.NewTool("save_doc",
		mcp.WithDescription("Save a markdown document. A document with the same slug is updated. "+
			"Read the format first via get_doc_contract or the "+DocFormatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Document title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body")),
		mcp.WithString("slug", mcp.Description("Stable identifier; generated from the title when empty")),
		mcp.WithString("category", mcp.Description("Optional category")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Optional tags")),
		mcp.WithString("summary", mcp.Description("Optional summary; derived from the content when empty")),
		mcp.WithString("source", mcp.Description("Where the document came from (default chat)")),
	), s.saveDoc)

	s.add(mcp.NewTool("get_doc_contract",
		mcp.WithDescription("Returns the AgentNote document format. "+
			"Call this before saving documents to ensure correct structure."),
	), s.getDocContract)

	s.mcp.AddResource(
		mcp.NewResource(DocFormatURI, "Document Format Contract",
			mcp.WithResourceDescription("Markdown document format understood by the viewer and the import directory."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocFormatResource,
	)

	return s
}

func (s *Server) add(tool mcp.Tool, h server.ToolHandlerFunc) {
	s.tools[tool.Name] = h
	s.mcp.AddTool(tool, h)
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}
