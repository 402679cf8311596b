package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Lifecycle 所有资源共用的 id / 时间戳；DeletedAt 为 NULL 表示未删除
type Lifecycle struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt"`
}

func (l *Lifecycle) Meta() *Lifecycle { return l }

func (l Lifecycle) Active() bool { return !l.DeletedAt.Valid }

// Store 各资源共用的持久化接口：E 实体，C 创建入参，P 部分更新入参
type Store[E any, C any, P any] interface {
	List(ctx context.Context) ([]E, error)
	ListDeleted(ctx context.Context) ([]E, error)
	Get(ctx context.Context, id string) (E, error)
	Create(ctx context.Context, in C) (E, error)
	Update(ctx context.Context, id string, in P) (E, error)
	SoftDelete(ctx context.Context, id string) (E, error)
	Restore(ctx context.Context, id string) (E, error)
	Destroy(ctx context.Context, id string) error
}
