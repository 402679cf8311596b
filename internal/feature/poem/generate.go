package poem

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"haiku-api/internal/domain"
	"haiku-api/internal/feature/prompt"
	"haiku-api/internal/generator"
)

const (
	DefaultMaxTokens   = 64
	DefaultTemperature = float32(0.7)
)

type Generator interface {
	Generate(ctx context.Context, content string, maxTokens int, temperature float32) (generator.Draft, error)
}

type PromptReader interface {
	Get(ctx context.Context, id string) (prompt.Prompt, error)
}

type PoemCreator interface {
	Create(ctx context.Context, in CreateInput) (Poem, error)
}

// GenerateInput PromptID 与 Content 二选一
type GenerateInput struct {
	PromptID    *string  `json:"promptId" validate:"omitnil,uuid"`
	Content     *string  `json:"content" validate:"omitnil,max=4000"`
	MaxTokens   int      `json:"maxTokens" validate:"gte=0,lte=4096"`
	Temperature *float32 `json:"temperature" validate:"omitnil,gte=0,lte=2"`
	// Save 为 true 时顺便入库
	Save bool `json:"save"`
}

type GenerateOutput struct {
	Draft    generator.Draft `json:"draft"`
	PromptID *string         `json:"promptId,omitempty"`
	Poem     *Poem           `json:"poem,omitempty"`
}

type SaveDraftInput struct {
	Text     string  `json:"text" validate:"required"`
	IsFunny  bool    `json:"isFunny"`
	PromptID *string `json:"promptId" validate:"omitnil,uuid"`
}

// Generation prompt → 草稿；只有调用 Save 才会入库
type Generation struct {
	gen     Generator
	prompts PromptReader
	poems   PoemCreator
	log     *zap.Logger
}

func NewGeneration(gen Generator, prompts PromptReader, poems PoemCreator, log *zap.Logger) *Generation {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generation{gen: gen, prompts: prompts, poems: poems, log: log.Named("generation")}
}

// Draft 先取 prompt 内容，再调上游；调上游期间不占用数据库连接
func (g *Generation) Draft(ctx context.Context, in GenerateInput) (GenerateOutput, error) {
	var out GenerateOutput
	content, err := g.resolve(ctx, in)
	if err != nil {
		return out, err
	}
	maxTokens := in.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := DefaultTemperature
	if in.Temperature != nil {
		temperature = *in.Temperature
	}
	d, err := g.gen.Generate(ctx, content, maxTokens, temperature)
	if err != nil {
		return out, err
	}
	out.Draft = d
	out.PromptID = in.PromptID
	return out, nil
}

func (g *Generation) Generate(ctx context.Context, in GenerateInput) (GenerateOutput, error) {
	out, err := g.Draft(ctx, in)
	if err != nil || !in.Save {
		return out, err
	}
	p, err := g.Save(ctx, out.Draft, out.PromptID)
	if err != nil {
		g.log.Warn("draft generated but not saved", zap.Error(err))
		return out, err
	}
	out.Poem = &p
	return out, nil
}

func (g *Generation) Save(ctx context.Context, d generator.Draft, promptID *string) (Poem, error) {
	return g.poems.Create(ctx, CreateInput{Content: d.Text, IsFunny: d.IsFunny, PromptID: promptID})
}

func (g *Generation) SaveDraft(ctx context.Context, in SaveDraftInput) (Poem, error) {
	return g.Save(ctx, generator.Draft{Text: in.Text, IsFunny: in.IsFunny}, in.PromptID)
}

func (g *Generation) resolve(ctx context.Context, in GenerateInput) (string, error) {
	switch {
	case in.PromptID != nil && in.Content != nil:
		return "", domain.Validation("provide either promptId or content, not both")
	case in.PromptID != nil:
		p, err := g.prompts.Get(ctx, *in.PromptID)
		if err != nil {
			return "", err
		}
		return p.Content, nil
	case in.Content != nil:
		c := strings.TrimSpace(*in.Content)
		if c == "" {
			return "", domain.Validation("content must not be blank")
		}
		return c, nil
	}
	return "", domain.Validation("promptId or content is required")
}
