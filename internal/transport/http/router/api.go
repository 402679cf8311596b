package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"haiku-api/internal/core/server"
	"haiku-api/internal/dispatch"
	"haiku-api/internal/domain"
	"haiku-api/internal/transport/http/handler"
	mdw "haiku-api/internal/transport/http/middleware"
)

type Options struct {
	Server         server.Options
	RateLimitRPS   float64
	RateLimitBurst int
	PerIPRPS       float64
	PerIPBurst     int
	MaxInFlight    int64
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	SlowRequest    time.Duration
	// Ping 健康检查时探测数据库；nil 表示不探测
	Ping func() error
}

func NewAPIEngine(l *zap.Logger, o Options, d *dispatch.Dispatcher) *gin.Engine {
	r := server.NewRouter(l, o.Server)

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(o.RateLimitRPS), o.RateLimitBurst),
		mdw.RateLimitPerIP(rate.Limit(o.PerIPRPS), o.PerIPBurst, 10*time.Minute),
		mdw.ConcurrencyLimit(o.MaxInFlight),
		mdw.MaxBodyBytes(o.MaxBodyBytes),
		mdw.Timeout(o.RequestTimeout),
		mdw.SimpleRecovery(l),
		mdw.Metrics(),
		mdw.AccessLog(l, o.SlowRequest),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		if o.Ping != nil {
			if err := o.Ping(); err != nil {
				l.Warn("health check: database unreachable", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": 0})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 前缀
	api := r.Group("/api/v1")

	// /ops 全量入口 + 每种资源一个路由
	var mods Modules
	mods.Register(handler.NewOps(d, l))
	for _, k := range domain.Kinds() {
		mods.Register(handler.NewKind(d, k, l))
	}
	mods.MountAll(api)

	return r
}
