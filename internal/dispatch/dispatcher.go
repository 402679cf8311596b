// Package dispatch 按名字把调用路由到 registry 入口，支持批量调用。
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"haiku-api/internal/domain"
	"haiku-api/internal/registry"
)

const (
	DefaultMaxBatch    = 50
	DefaultParallelism = 4
)

type Call struct {
	ID   string          `json:"id,omitempty"`
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Result 每个调用独立的结果；Err 为空即成功
type Result struct {
	ID   string
	Op   string
	Data any
	Err  *domain.Error
}

func (r Result) OK() bool { return r.Err == nil }

type Dispatcher struct {
	reg         *registry.Registry
	log         *zap.Logger
	maxBatch    int
	parallelism int
}

type Option func(*Dispatcher)

func WithMaxBatch(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxBatch = n
		}
	}
}

func WithParallelism(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.parallelism = n
		}
	}
}

func New(reg *registry.Registry, log *zap.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		reg:         reg,
		log:         log.Named("dispatch"),
		maxBatch:    DefaultMaxBatch,
		parallelism: DefaultParallelism,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Scoped 返回只包含某种资源入口的 Dispatcher，其他设置不变
func (d *Dispatcher) Scoped(kind domain.Kind) *Dispatcher {
	cp := *d
	cp.reg = d.reg.Scope(kind)
	return &cp
}

func (d *Dispatcher) Registry() *registry.Registry { return d.reg }

// Dispatch 执行单个调用，错误都装进 Result，不会 panic
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (res Result) {
	start := time.Now()
	op := strings.TrimSpace(call.Op)
	res = Result{ID: call.ID, Op: op}
	ep, known := d.reg.Lookup(op)

	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error("operation panicked",
				zap.String("op", op),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			res.Data = nil
			res.Err = domain.AsError(domain.Internal("internal error", fmt.Errorf("panic: %v", rec)))
		}
		observe(op, known, res.Err, time.Since(start))
		d.logResult(res, time.Since(start))
	}()

	if !known {
		res.Err = domain.AsError(domain.Routing(op))
		return res
	}
	out, err := ep.Invoke(ctx, call.Args)
	if err != nil {
		res.Err = domain.AsError(err)
		return res
	}
	res.Data = out
	return res
}

// Batch 每个调用独立执行（并发度受限），结果顺序与调用顺序一致；
// 单个调用失败不影响其他调用
func (d *Dispatcher) Batch(ctx context.Context, calls []Call) ([]Result, error) {
	if len(calls) == 0 {
		return nil, domain.Validation("batch is empty")
	}
	if len(calls) > d.maxBatch {
		return nil, domain.Validation("batch of %d calls exceeds the limit of %d", len(calls), d.maxBatch)
	}
	batchSize.Observe(float64(len(calls)))

	results := make([]Result, len(calls))
	var g errgroup.Group
	g.SetLimit(d.parallelism)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = d.Dispatch(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (d *Dispatcher) logResult(res Result, elapsed time.Duration) {
	fields := []zap.Field{zap.String("op", res.Op), zap.Duration("elapsed", elapsed)}
	if res.ID != "" {
		fields = append(fields, zap.String("call_id", res.ID))
	}
	if res.Err == nil {
		d.log.Debug("operation ok", fields...)
		return
	}
	fields = append(fields, zap.String("kind", string(res.Err.Kind)), zap.Error(res.Err))
	switch res.Err.Kind {
	case domain.KindInternal, domain.KindConfiguration:
		d.log.Error("operation failed", fields...)
	case domain.KindUpstream, domain.KindResourceExhausted:
		d.log.Warn("operation failed", fields...)
	default:
		d.log.Debug("operation rejected", fields...)
	}
}
