// Package chat interprets the slash commands accepted by the chat endpoint.
package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/starford/agentnote/internal/apperr"
	"github.com/starford/agentnote/internal/docservice"
	"github.com/starford/agentnote/internal/models"
)

// Reply types.
const (
	TypeText       = "text"
	TypeAction     = "action"
	TypeSearch     = "search"
	TypeList       = "list"
	TypeCategories = "categories"
	TypeHelp       = "help"
)

// Limits applied by the commands.
const (
	SearchLimit   = 10
	RecentLimit   = 5
	CategoryLimit = 20
	titleRunes    = 50
	chatSource    = "chat"
)

// HelpText lists the available commands.
const HelpText = `Available commands:
/add <content> - Quick add idea
/search <keyword> - Search ideas
/recent [n] - Show recent ideas
/category [name] - List categories or filter by category
/help - Show this help`

// Ideas is the part of the service the commands use.
type Ideas interface {
	AddIdea(ctx context.Context, i *models.Idea) (*models.Idea, error)
	SearchIdeas(ctx context.Context, f models.IdeaFilter) ([]models.Idea, error)
	RecentIdeas(ctx context.Context, limit int) ([]models.Idea, error)
	IdeaCategories(ctx context.Context) ([]models.Category, error)
}

var _ Ideas = (*docservice.Service)(nil)

// Interpreter turns chat messages into replies.
type Interpreter struct {
	ideas Ideas
}

// New returns an interpreter backed by ideas.
func New(ideas Ideas) *Interpreter {
	return &Interpreter{ideas: ideas}
}

// Handle answers one message. Usage mistakes come back as a reply with
// Success false; the error is reserved for an empty message and store failures.
func (in *Interpreter) Handle(ctx context.Context, message string) (*models.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("chat: empty message: %w", apperr.ErrInvalidInput)
	}
	if !strings.HasPrefix(message, "/") {
		return &models.ChatReply{Success: true, Response: "Received: " + message, Type: TypeText}, nil
	}

	command, args := splitCommand(message)
	switch strings.ToLower(command) {
	case "/add":
		return in.add(ctx, args)
	case "/search":
		return in.search(ctx, args)
	case "/recent":
		return in.recent(ctx, args)
	case "/category":
		return in.category(ctx, args)
	case "/help":
		return &models.ChatReply{Success: true, Response: HelpText, Type: TypeHelp}, nil
	}
	return failure(fmt.Sprintf("Unknown command: %s. Try /help", strings.ToLower(command))), nil
}

func (in *Interpreter) add(ctx context.Context, args string) (*models.ChatReply, error) {
	const usage = "Usage: /add <title> | <content>"
	if args == "" {
		return failure(usage), nil
	}
	var title, content string
	if t, c, ok := strings.Cut(args, "|"); ok {
		title, content = strings.TrimSpace(t), strings.TrimSpace(c)
	} else {
		title, content = docservice.ShortTitle(args, titleRunes), args
	}
	if title == "" || content == "" {
		return failure(usage), nil
	}

	idea, err := in.ideas.AddIdea(ctx, &models.Idea{Title: title, Content: content, Source: chatSource})
	if err != nil {
		return nil, err
	}
	return &models.ChatReply{
		Success:  true,
		Response: fmt.Sprintf("Added idea #%d: %s", idea.ID, idea.Title),
		Type:     TypeAction,
		Action:   "add",
		IdeaID:   idea.ID,
	}, nil
}

func (in *Interpreter) search(ctx context.Context, args string) (*models.ChatReply, error) {
	if args == "" {
		return failure("Usage: /search <keyword>"), nil
	}
	ideas, err := in.ideas.SearchIdeas(ctx, models.IdeaFilter{Keyword: args, Limit: SearchLimit})
	if err != nil {
		return nil, err
	}
	return &models.ChatReply{
		Success:  true,
		Response: fmt.Sprintf("Found %d ideas", len(ideas)),
		Type:     TypeSearch,
		Data:     ideas,
	}, nil
}

func (in *Interpreter) recent(ctx context.Context, args string) (*models.ChatReply, error) {
	limit := RecentLimit
	if n, err := strconv.Atoi(args); err == nil && n > 0 {
		limit = n
	}
	ideas, err := in.ideas.RecentIdeas(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &models.ChatReply{
		Success:  true,
		Response: fmt.Sprintf("Recent %d ideas", len(ideas)),
		Type:     TypeList,
		Data:     ideas,
	}, nil
}

func (in *Interpreter) category(ctx context.Context, args string) (*models.ChatReply, error) {
	if args == "" {
		cats, err := in.ideas.IdeaCategories(ctx)
		if err != nil {
			return nil, err
		}
		return &models.ChatReply{Success: true, Response: "Categories", Type: TypeCategories, Data: cats}, nil
	}
	ideas, err := in.ideas.SearchIdeas(ctx, models.IdeaFilter{Category: args, Limit: CategoryLimit})
	if err != nil {
		return nil, err
	}
	return &models.ChatReply{
		Success:  true,
		Response: `Ideas in "` + args + `"`,
		Type:     TypeList,
		Data:     ideas,
	}, nil
}

// splitCommand splits "/cmd rest of line" at the first run of whitespace.
func splitCommand(msg string) (string, string) {
	i := strings.IndexFunc(msg, unicode.IsSpace)
	if i < 0 {
		return msg, ""
	}
	return msg[:i], strings.TrimSpace(msg[i:])
}

func failure(msg string) *models.ChatReply {
	return &models.ChatReply{Success: false, Error: msg}
}
