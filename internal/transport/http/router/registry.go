package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// APIModule 挂在 /api/v1 下的模块
type APIModule interface{ MountAPI(*gin.RouterGroup) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

// Modules 每个 engine 一份，避免全局注册表在测试里重复挂路由
type Modules struct {
	api []APIModule
}

// Register 非 APIModule 直接忽略
func (m *Modules) Register(mods ...any) {
	for _, mod := range mods {
		if a, ok := mod.(APIModule); ok {
			m.api = append(m.api, a)
		}
	}
}

// MountAll 按优先级挂载所有已注册模块
func (m *Modules) MountAll(api *gin.RouterGroup) {
	mods := append([]APIModule(nil), m.api...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, mod := range mods {
		mod.MountAPI(api)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
