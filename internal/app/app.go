// Package app 组装 store / 生成服务 / registry，cmd 和集成测试共用。
package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"haiku-api/internal/domain"
	"haiku-api/internal/feature/account"
	"haiku-api/internal/feature/poem"
	"haiku-api/internal/feature/prompt"
	"haiku-api/internal/registry"
	"haiku-api/internal/repo"
)

// Models 需要自动迁移的表
func Models() []any {
	return []any{&account.Account{}, &prompt.Prompt{}, &poem.Poem{}}
}

type Deps struct {
	DB             *gorm.DB
	Generator      poem.Generator
	Log            *zap.Logger
	AcquireTimeout time.Duration
	// Clock 仅测试用
	Clock func() time.Time
}

// Registry 三种资源的标准入口 + 生成相关的两个入口
func Registry(d Deps) (*registry.Registry, error) {
	opts := []repo.Option{repo.WithAcquireTimeout(d.AcquireTimeout)}
	if d.Clock != nil {
		opts = append(opts, repo.WithClock(d.Clock))
	}
	accounts := account.NewStore(d.DB, opts...)
	prompts := prompt.NewStore(d.DB, opts...)
	poems := poem.NewStore(d.DB, opts...)
	gen := poem.NewGeneration(d.Generator, prompts, poems, d.Log)

	return registry.New(
		registry.Bind[account.Account, account.CreateInput, account.UpdateInput](domain.Account, accounts),
		registry.Bind[prompt.Prompt, prompt.CreateInput, prompt.UpdateInput](domain.Prompt, prompts),
		registry.Bind[poem.Poem, poem.CreateInput, poem.UpdateInput](domain.Poem, poems),
		generation(gen),
	)
}

func generation(g *poem.Generation) registry.Namespace {
	return registry.Namespace{
		Kind: domain.Poem,
		Mutations: []registry.EntryPoint{
			registry.Mutation(domain.Poem, "generatePoem", func(ctx context.Context, in *poem.GenerateInput) (poem.GenerateOutput, error) {
				return g.Generate(ctx, *in)
			}),
			registry.Mutation(domain.Poem, "savePoemDraft", func(ctx context.Context, in *poem.SaveDraftInput) (poem.Poem, error) {
				return g.SaveDraft(ctx, *in)
			}),
		},
	}
}
