package repo

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Coalesce 生成 COALESCE(?, col)：v 为 nil 时保持原值
func Coalesce[T any](col string, v *T) clause.Expr {
	var arg any
	if v != nil {
		arg = *v
	}
	return gorm.Expr("COALESCE(?, "+col+")", arg)
}
