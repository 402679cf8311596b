package prompt

import (
	"strings"

	"gorm.io/gorm"

	"haiku-api/internal/domain"
	"haiku-api/internal/repo"
)

type Prompt struct {
	domain.Lifecycle
	Title   string `gorm:"size:255;not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
}

func (Prompt) TableName() string { return "prompts" }

type CreateInput struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

// UpdateInput 为 nil 的字段保持原值
type UpdateInput struct {
	Title   *string `json:"title" validate:"omitnil,max=255"`
	Content *string `json:"content"`
}

type Store = repo.Store[Prompt, *Prompt, CreateInput, UpdateInput]

var _ domain.Store[Prompt, CreateInput, UpdateInput] = (*Store)(nil)

func NewStore(db *gorm.DB, opts ...repo.Option) *Store {
	return repo.New[Prompt, *Prompt](db, repo.Def[Prompt, CreateInput, UpdateInput]{
		Kind:  domain.Prompt,
		Build: build,
		Patch: patch,
	}, opts...)
}

func build(in CreateInput) (*Prompt, error) {
	title, content := strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
	if title == "" {
		return nil, domain.Validation("title is required")
	}
	if content == "" {
		return nil, domain.Validation("content is required")
	}
	return &Prompt{Title: title, Content: content}, nil
}

func patch(in UpdateInput) (map[string]any, error) {
	title, content := trimmed(in.Title), trimmed(in.Content)
	if title != nil && *title == "" {
		return nil, domain.Validation("title must not be blank")
	}
	if content != nil && *content == "" {
		return nil, domain.Validation("content must not be blank")
	}
	return map[string]any{
		"title":   repo.Coalesce("title", title),
		"content": repo.Coalesce("content", content),
	}, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
