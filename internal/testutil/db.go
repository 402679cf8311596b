// Package testutil 测试用的临时 SQLite 库。
package testutil

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"haiku-api/internal/core/database"
)

// DB 在 t.TempDir 下建库并迁移给定模型
func DB(t testing.TB, models ...any) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)",
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Clock 每次调用前进 1 秒的 UTC 时钟
func Clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start.UTC()
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}
