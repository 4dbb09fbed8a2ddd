// Package models defines the domain types for AgentNote.
package models

import "time"

// Doc is a stored markdown document.
type Doc struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Summary   string    `json:"summary"`
	Source    string    `json:"source,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocFilter narrows a document listing. Zero values mean "no constraint".
type DocFilter struct {
	Keyword  string
	Category string
	Tag      string
	Limit    int
	Offset   int
}

// DocInput carries the writable fields of a document.
// Nil pointers in an update leave the stored value untouched.
type DocInput struct {
	Slug     string
	Title    *string
	Content  *string
	Category *string
	Summary  *string
	Source   *string
	Tags     []string
	// SetTags distinguishes "no tag change" from "clear all tags".
	SetTags bool
}

// Idea is a short note captured through chat or an agent tool.
type Idea struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Keywords  []string  `json:"keywords"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IdeaFilter narrows an idea listing.
type IdeaFilter struct {
	Keyword  string
	Category string
	Limit    int
	Offset   int
}

// IdeaInput carries the writable fields of an idea.
type IdeaInput struct {
	Title    *string
	Content  *string
	Category *string
	Source   *string
	Keywords []string
	// SetKeywords distinguishes "no keyword change" from "clear all keywords".
	SetKeywords bool
}

// Relation links two ideas.
type Relation struct {
	ID           int64     `json:"id"`
	IdeaID1      int64     `json:"idea_id_1"`
	IdeaID2      int64     `json:"idea_id_2"`
	RelationType string    `json:"relation_type"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Category is a category name with the number of items filed under it.
type Category struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Tag is a tag name with its usage count.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Envelope is the JSON shape of every API response.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// ChatReply is the response body of the chat endpoint.
type ChatReply struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Type     string `json:"type,omitempty"`
	Action   string `json:"action,omitempty"`
	IdeaID   int64  `json:"idea_id,omitempty"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
}
