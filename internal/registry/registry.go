// Package registry 把各资源的 store 暴露成按名字调用的入口（query / mutation）。
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"haiku-api/internal/domain"
)

// EntryPoint 一个可按名字调用的操作；I 入参，O 出参在构造时被擦除
type EntryPoint struct {
	Name     string
	Kind     domain.Kind
	Mutation bool
	invoke   func(ctx context.Context, raw json.RawMessage) (any, error)
}

// Invoke 先严格解码 + 校验入参，通过后才执行 handler
func (e EntryPoint) Invoke(ctx context.Context, raw json.RawMessage) (any, error) {
	return e.invoke(ctx, raw)
}

func Query[I any, O any](kind domain.Kind, name string, h func(ctx context.Context, in *I) (O, error)) EntryPoint {
	return entry(kind, name, false, h)
}

func Mutation[I any, O any](kind domain.Kind, name string, h func(ctx context.Context, in *I) (O, error)) EntryPoint {
	return entry(kind, name, true, h)
}

func entry[I any, O any](kind domain.Kind, name string, mutation bool, h func(ctx context.Context, in *I) (O, error)) EntryPoint {
	return EntryPoint{
		Name:     name,
		Kind:     kind,
		Mutation: mutation,
		invoke: func(ctx context.Context, raw json.RawMessage) (any, error) {
			in := new(I)
			if err := decode(raw, in); err != nil {
				return nil, err
			}
			out, err := h(ctx, in)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}

// Namespace 某一种资源的入口集合
type Namespace struct {
	Kind      domain.Kind
	Queries   []EntryPoint
	Mutations []EntryPoint
}

type IDArgs struct {
	ID string `json:"id" validate:"required,uuid"`
}

type CreateArgs[C any] struct {
	Data C `json:"data"`
}

type UpdateArgs[P any] struct {
	ID   string `json:"id" validate:"required,uuid"`
	Data P      `json:"data"`
}

type Empty struct{}

// Bind 为一种资源生成标准的 8 个入口：
// list<Kinds> listDeleted<Kinds> get<Kind> / create update delete restore destroy<Kind>
func Bind[E any, C any, P any](kind domain.Kind, s domain.Store[E, C, P]) Namespace {
	one, many := kind.Title(), kind.Title()+"s"
	return Namespace{
		Kind: kind,
		Queries: []EntryPoint{
			Query(kind, "list"+many, func(ctx context.Context, _ *Empty) ([]E, error) {
				return s.List(ctx)
			}),
			Query(kind, "listDeleted"+many, func(ctx context.Context, _ *Empty) ([]E, error) {
				return s.ListDeleted(ctx)
			}),
			Query(kind, "get"+one, func(ctx context.Context, in *IDArgs) (E, error) {
				return s.Get(ctx, in.ID)
			}),
		},
		Mutations: []EntryPoint{
			Mutation(kind, "create"+one, func(ctx context.Context, in *CreateArgs[C]) (E, error) {
				return s.Create(ctx, in.Data)
			}),
			Mutation(kind, "update"+one, func(ctx context.Context, in *UpdateArgs[P]) (E, error) {
				return s.Update(ctx, in.ID, in.Data)
			}),
			Mutation(kind, "delete"+one, func(ctx context.Context, in *IDArgs) (E, error) {
				return s.SoftDelete(ctx, in.ID)
			}),
			Mutation(kind, "restore"+one, func(ctx context.Context, in *IDArgs) (E, error) {
				return s.Restore(ctx, in.ID)
			}),
			Mutation(kind, "destroy"+one, func(ctx context.Context, in *IDArgs) (bool, error) {
				if err := s.Destroy(ctx, in.ID); err != nil {
					return false, err
				}
				return true, nil
			}),
		},
	}
}

// Registry 启动时一次性构建，之后只读，可并发使用
type Registry struct {
	entries map[string]EntryPoint
	order   []string
}

// New 合并多个 Namespace；重名直接报错，不允许静默覆盖
func New(namespaces ...Namespace) (*Registry, error) {
	r := &Registry{entries: map[string]EntryPoint{}}
	for _, ns := range namespaces {
		for _, list := range [][]EntryPoint{ns.Queries, ns.Mutations} {
			for _, ep := range list {
				if ep.Name == "" || ep.invoke == nil {
					return nil, fmt.Errorf("registry: invalid entry point in %s namespace", ns.Kind)
				}
				if _, dup := r.entries[ep.Name]; dup {
					return nil, fmt.Errorf("registry: entry point %q registered twice", ep.Name)
				}
				r.entries[ep.Name] = ep
				r.order = append(r.order, ep.Name)
			}
		}
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (EntryPoint, bool) {
	ep, ok := r.entries[name]
	return ep, ok
}

func (r *Registry) Len() int { return len(r.order) }

// Scope 只保留某一种资源的入口（按资源分路由时使用）
func (r *Registry) Scope(kind domain.Kind) *Registry {
	out := &Registry{entries: map[string]EntryPoint{}}
	for _, name := range r.order {
		if ep := r.entries[name]; ep.Kind == kind {
			out.entries[name] = ep
			out.order = append(out.order, name)
		}
	}
	return out
}

type Catalog struct {
	Queries   []string `json:"queries"`
	Mutations []string `json:"mutations"`
}

// Catalog 列出所有入口名（按字母排序）
func (r *Registry) Catalog() Catalog {
	c := Catalog{Queries: []string{}, Mutations: []string{}}
	for _, name := range r.order {
		if r.entries[name].Mutation {
			c.Mutations = append(c.Mutations, name)
		} else {
			c.Queries = append(c.Queries, name)
		}
	}
	sort.Strings(c.Queries)
	sort.Strings(c.Mutations)
	return c
}
