package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"haiku-api/internal/domain"
)

// fail 把 gorm / 驱动错误归到 domain.Error；parent 是调用方的 ctx，bounded 是加了获取超时的 ctx
func (s *Store[M, PM, C, P]) fail(parent, bounded context.Context, op, id string, err error) error {
	kind := s.def.Kind
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(kind, id)
	case isDupKey(err):
		return domain.Conflict(fmt.Sprintf("%s already exists", kind), err)
	case parent.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(bounded.Err(), context.DeadlineExceeded)):
		// 超时来自自己的获取上限，而不是调用方
		return domain.Exhausted(fmt.Sprintf("%s %s: database busy", op, kind), err)
	}
	return domain.Internal(fmt.Sprintf("%s %s failed", op, kind), err)
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
