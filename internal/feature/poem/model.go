package poem

import (
	"strings"

	"gorm.io/gorm"

	"haiku-api/internal/domain"
	"haiku-api/internal/repo"
)

type Poem struct {
	domain.Lifecycle
	Content  string  `gorm:"type:text;not null" json:"content"`
	IsFunny  bool    `gorm:"not null" json:"isFunny"`
	PromptID *string `gorm:"size:36;index" json:"promptId"`
}

func (Poem) TableName() string { return "poems" }

type CreateInput struct {
	Content  string  `json:"content" validate:"required"`
	IsFunny  bool    `json:"isFunny"`
	PromptID *string `json:"promptId" validate:"omitnil,uuid"`
}

// UpdateInput 不允许改关联的 prompt
type UpdateInput struct {
	Content *string `json:"content"`
	IsFunny *bool   `json:"isFunny"`
}

type Store = repo.Store[Poem, *Poem, CreateInput, UpdateInput]

var _ domain.Store[Poem, CreateInput, UpdateInput] = (*Store)(nil)

func NewStore(db *gorm.DB, opts ...repo.Option) *Store {
	return repo.New[Poem, *Poem](db, repo.Def[Poem, CreateInput, UpdateInput]{
		Kind:  domain.Poem,
		Build: build,
		Patch: patch,
	}, opts...)
}

func build(in CreateInput) (*Poem, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domain.Validation("content is required")
	}
	return &Poem{Content: content, IsFunny: in.IsFunny, PromptID: in.PromptID}, nil
}

func patch(in UpdateInput) (map[string]any, error) {
	var content *string
	if in.Content != nil {
		c := strings.TrimSpace(*in.Content)
		if c == "" {
			return nil, domain.Validation("content must not be blank")
		}
		content = &c
	}
	return map[string]any{
		"content":  repo.Coalesce("content", content),
		"is_funny": repo.Coalesce("is_funny", in.IsFunny),
	}, nil
}
