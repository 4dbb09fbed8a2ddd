package api

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/agentnote/internal/docservice"
	"github.com/starford/agentnote/internal/models"
)

// dataResponse is the success envelope carrying a payload.
type dataResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// messageResponse is the success envelope of calls that return no payload.
type messageResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

type errResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// notBlank rejects strings made only of whitespace.
var notBlank = validation.By(func(v any) error {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case *string:
		if x == nil {
			return nil
		}
		s = *x
	}
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// SaveDocRequest is the body of POST /api/docs.
type SaveDocRequest struct {
	Slug     string   `json:"slug,omitempty" example:"go-channels"`
	Title    string   `json:"title" example:"Channels" validate:"required"`
	Content  string   `json:"content" example:"# Channels\nsend and receive" validate:"required"`
	Category string   `json:"category,omitempty" example:"go"`
	Summary  string   `json:"summary,omitempty"`
	Source   string   `json:"source,omitempty" example:"chat"`
	Tags     []string `json:"tags,omitempty" example:"go,concurrency"`
}

// Validate checks the required fields.
func (r *SaveDocRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required, notBlank),
		validation.Field(&r.Content, validation.Required, notBlank),
		validation.Field(&r.Slug, validation.Length(0, 200)),
	)
}

func (r *SaveDocRequest) input() docservice.SaveDocInput {
	return docservice.SaveDocInput{
		Slug:     strings.TrimSpace(r.Slug),
		Title:    r.Title,
		Content:  r.Content,
		Category: r.Category,
		Summary:  r.Summary,
		Source:   r.Source,
		Tags:     r.Tags,
	}
}

// UpdateDocRequest is the body of PUT /api/docs/{id}. Absent fields are left unchanged;
// "tags": [] clears the tags.
type UpdateDocRequest struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Category *string   `json:"category,omitempty"`
	Summary  *string   `json:"summary,omitempty"`
	Source   *string   `json:"source,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// Validate rejects a present but blank title.
func (r *UpdateDocRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, notBlank),
	)
}

func (r *UpdateDocRequest) input() models.DocInput {
	in := models.DocInput{
		Title:    r.Title,
		Content:  r.Content,
		Category: r.Category,
		Summary:  r.Summary,
		Source:   r.Source,
	}
	if r.Tags != nil {
		in.Tags, in.SetTags = *r.Tags, true
	}
	return in
}

// IdeaRequest is the body of POST /api/ideas.
type IdeaRequest struct {
	Title    string   `json:"title" example:"Cache warmup" validate:"required"`
	Content  string   `json:"content" example:"preload docs on hover" validate:"required"`
	Category string   `json:"category,omitempty" example:"viewer"`
	Keywords []string `json:"keywords,omitempty" example:"cache,preload"`
	Source   string   `json:"source,omitempty" example:"web"`
}

// Validate checks the required fields.
func (r *IdeaRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required, notBlank),
		validation.Field(&r.Content, validation.Required, notBlank),
	)
}

func (r *IdeaRequest) idea() *models.Idea {
	return &models.Idea{
		Title:    r.Title,
		Content:  r.Content,
		Category: r.Category,
		Keywords: r.Keywords,
		Source:   r.Source,
	}
}

// UpdateIdeaRequest is the body of PUT /api/ideas/{id}.
type UpdateIdeaRequest struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Category *string   `json:"category,omitempty"`
	Source   *string   `json:"source,omitempty"`
	Keywords *[]string `json:"keywords,omitempty"`
}

// Validate rejects a present but blank title.
func (r *UpdateIdeaRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, notBlank),
	)
}

func (r *UpdateIdeaRequest) input() models.IdeaInput {
	in := models.IdeaInput{
		Title:    r.Title,
		Content:  r.Content,
		Category: r.Category,
		Source:   r.Source,
	}
	if r.Keywords != nil {
		in.Keywords, in.SetKeywords = *r.Keywords, true
	}
	return in
}

// RelationRequest is the body of POST /api/relations.
type RelationRequest struct {
	IdeaID1      int64  `json:"idea_id_1" example:"1" validate:"required"`
	IdeaID2      int64  `json:"idea_id_2" example:"2" validate:"required"`
	RelationType string `json:"relation_type,omitempty" example:"related"`
	Note         string `json:"note,omitempty"`
}

// Validate checks both idea ids.
func (r *RelationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IdeaID1, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.IdeaID2, validation.Required, validation.Min(int64(1))),
	)
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message" example:"/recent 3" validate:"required"`
}

// Validate checks that a message was sent.
func (r *ChatRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Message, validation.Required, notBlank),
	)
}
