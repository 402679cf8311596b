package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"haiku-api/internal/domain"
	"haiku-api/pkg/utils"
)

// Row 嵌入了 domain.Lifecycle 的模型指针
type Row[M any] interface {
	*M
	Meta() *domain.Lifecycle
}

// Def 每种资源各自的部分：创建入参 → 行，部分更新入参 → SET 子句
type Def[M any, C any, P any] struct {
	Kind domain.Kind
	Build func(in C) (*M, error)
	// Patch 返回 列 → 值，一般是 Coalesce(col, v)
	Patch func(in P) (map[string]any, error)
}

type options struct {
	now     func() time.Time
	newID   func() string
	acquire time.Duration
}

type Option func(*options)

func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

func WithIDs(newID func() string) Option { return func(o *options) { o.newID = newID } }

// WithAcquireTimeout 每次调用的时限；超时报 RESOURCE_EXHAUSTED
func WithAcquireTimeout(d time.Duration) Option { return func(o *options) { o.acquire = d } }

// Store 基于 gorm 的 domain.Store 实现（一种资源一个实例）。
// 状态变更都是带条件的单条 UPDATE，条件写在 WHERE 里，并发时只有一个能成功
type Store[M any, PM Row[M], C any, P any] struct {
	db   *gorm.DB
	def  Def[M, C, P]
	opts options
}

func New[M any, PM Row[M], C any, P any](db *gorm.DB, def Def[M, C, P], opts ...Option) *Store[M, PM, C, P] {
	o := options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: utils.NewID,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return &Store[M, PM, C, P]{db: db, def: def, opts: o}
}

func (s *Store[M, PM, C, P]) Kind() domain.Kind { return s.def.Kind }

func (s *Store[M, PM, C, P]) List(ctx context.Context) ([]M, error) {
	c, cancel := s.bound(ctx)
	defer cancel()
	rows := make([]M, 0)
	if err := s.db.WithContext(c).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, s.fail(ctx, c, "list", "", err)
	}
	return rows, nil
}

// ListDeleted 回收站：只看软删的，最近删的在前
func (s *Store[M, PM, C, P]) ListDeleted(ctx context.Context) ([]M, error) {
	c, cancel := s.bound(ctx)
	defer cancel()
	rows := make([]M, 0)
	err := s.db.WithContext(c).Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, s.fail(ctx, c, "list deleted", "", err)
	}
	return rows, nil
}

func (s *Store[M, PM, C, P]) Get(ctx context.Context, id string) (M, error) {
	var m M
	c, cancel := s.bound(ctx)
	defer cancel()
	if err := s.db.WithContext(c).Where("id = ? AND deleted_at IS NULL", id).Take(&m).Error; err != nil {
		return m, s.fail(ctx, c, "get", id, err)
	}
	return m, nil
}

func (s *Store[M, PM, C, P]) Create(ctx context.Context, in C) (M, error) {
	var zero M
	m, err := s.def.Build(in)
	if err != nil {
		return zero, err
	}
	now := s.opts.now()
	meta := PM(m).Meta()
	meta.ID = s.opts.newID()
	meta.CreatedAt, meta.UpdatedAt = now, now
	meta.DeletedAt = gorm.DeletedAt{}

	c, cancel := s.bound(ctx)
	defer cancel()
	if err := s.db.WithContext(c).Create(m).Error; err != nil {
		return zero, s.fail(ctx, c, "create", meta.ID, err)
	}
	return *m, nil
}

// Update 只改未删除的行；deleted_at 不会被改
func (s *Store[M, PM, C, P]) Update(ctx context.Context, id string, in P) (M, error) {
	set, err := s.def.Patch(in)
	if err != nil {
		var zero M
		return zero, err
	}
	delete(set, "deleted_at")
	set["updated_at"] = s.opts.now()
	return s.transition(ctx, "update", id, false, "deleted_at IS NULL", set)
}

func (s *Store[M, PM, C, P]) SoftDelete(ctx context.Context, id string) (M, error) {
	now := s.opts.now()
	return s.transition(ctx, "delete", id, false, "deleted_at IS NULL", map[string]any{
		"deleted_at": now,
		"updated_at": now,
	})
}

func (s *Store[M, PM, C, P]) Restore(ctx context.Context, id string) (M, error) {
	return s.transition(ctx, "restore", id, true, "deleted_at IS NOT NULL", map[string]any{
		"deleted_at": nil,
		"updated_at": s.opts.now(),
	})
}

// Destroy 物理删除，不管是否软删；id 不存在 → NOT_FOUND
func (s *Store[M, PM, C, P]) Destroy(ctx context.Context, id string) error {
	c, cancel := s.bound(ctx)
	defer cancel()
	res := s.db.WithContext(c).Unscoped().Where("id = ?", id).Delete(new(M))
	if res.Error != nil {
		return s.fail(ctx, c, "destroy", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound(s.def.Kind, id)
	}
	return nil
}

// transition 同一事务内：带条件 UPDATE + 回读
func (s *Store[M, PM, C, P]) transition(ctx context.Context, op, id string, unscoped bool, guard string, set map[string]any) (M, error) {
	var out M
	c, cancel := s.bound(ctx)
	defer cancel()
	err := s.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		q := tx
		if unscoped {
			q = q.Unscoped()
		}
		res := q.Model(new(M)).Where("id = ?", id).Where(guard).Updates(set)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Unscoped().Where("id = ?", id).Take(&out).Error
	})
	if err != nil {
		return out, s.fail(ctx, c, op, id, err)
	}
	return out, nil
}

func (s *Store[M, PM, C, P]) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.acquire <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.acquire)
}
