package poem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haiku-api/internal/domain"
	"haiku-api/internal/feature/prompt"
	"haiku-api/internal/generator"
	"haiku-api/internal/repo"
	"haiku-api/internal/testutil"
)

type fakeGenerator struct {
	calls       int
	content     string
	maxTokens   int
	temperature float32
	draft       generator.Draft
	err         error
}

func (f *fakeGenerator) Generate(_ context.Context, content string, maxTokens int, temperature float32) (generator.Draft, error) {
	f.calls++
	f.content, f.maxTokens, f.temperature = content, maxTokens, temperature
	return f.draft, f.err
}

type fixture struct {
	gen     *fakeGenerator
	prompts *prompt.Store
	poems   *Store
	g       *Generation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t, &prompt.Prompt{}, &Poem{})
	clock := repo.WithClock(testutil.Clock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	f := &fixture{
		gen:     &fakeGenerator{draft: generator.Draft{Text: "old pond", IsFunny: true}},
		prompts: prompt.NewStore(db, clock),
		poems:   NewStore(db, clock),
	}
	f.g = NewGeneration(f.gen, f.prompts, f.poems, nil)
	return f
}

func TestDraftFromStoredPrompt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.prompts.Create(ctx, prompt.CreateInput{Title: "frog", Content: "write about a frog"})
	require.NoError(t, err)

	out, err := f.g.Draft(ctx, GenerateInput{PromptID: &p.ID, MaxTokens: 32})
	require.NoError(t, err)
	assert.Equal(t, "old pond", out.Draft.Text)
	assert.Equal(t, "write about a frog", f.gen.content)
	assert.Equal(t, 32, f.gen.maxTokens)
	assert.Equal(t, DefaultTemperature, f.gen.temperature)
	assert.Nil(t, out.Poem)

	poems, err := f.poems.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, poems, "drafts are not persisted")
}

func TestDraftFromDeletedPrompt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.prompts.Create(ctx, prompt.CreateInput{Title: "frog", Content: "frog"})
	require.NoError(t, err)
	_, err = f.prompts.SoftDelete(ctx, p.ID)
	require.NoError(t, err)

	_, err = f.g.Draft(ctx, GenerateInput{PromptID: &p.ID})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.gen.calls)
}

func TestDraftInputChecks(t *testing.T) {
	f := newFixture(t)
	id, content, blank := "x", "inline", "  "
	for _, in := range []GenerateInput{
		{},
		{PromptID: &id, Content: &content},
		{Content: &blank},
	} {
		_, err := f.g.Draft(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
	assert.Zero(t, f.gen.calls)
}

func TestGenerateAndSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.prompts.Create(ctx, prompt.CreateInput{Title: "frog", Content: "frog"})
	require.NoError(t, err)

	out, err := f.g.Generate(ctx, GenerateInput{PromptID: &p.ID, Save: true})
	require.NoError(t, err)
	require.NotNil(t, out.Poem)
	assert.Equal(t, "old pond", out.Poem.Content)
	assert.True(t, out.Poem.IsFunny)
	require.NotNil(t, out.Poem.PromptID)
	assert.Equal(t, p.ID, *out.Poem.PromptID)

	got, err := f.poems.Get(ctx, out.Poem.ID)
	require.NoError(t, err)
	assert.Equal(t, "old pond", got.Content)
}

func TestGenerateUpstreamFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.gen.err = domain.Upstream(500, "generation service returned status 500", nil)
	content := "frog"

	_, err := f.g.Generate(ctx, GenerateInput{Content: &content, Save: true})
	assert.ErrorIs(t, err, domain.ErrUpstream)

	poems, err := f.poems.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, poems)
}

func TestSaveDraft(t *testing.T) {
	f := newFixture(t)
	p, err := f.g.SaveDraft(context.Background(), SaveDraftInput{Text: "a frog jumps in", IsFunny: false})
	require.NoError(t, err)
	assert.Equal(t, "a frog jumps in", p.Content)
	assert.Nil(t, p.PromptID)
}
