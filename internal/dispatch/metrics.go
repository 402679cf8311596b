package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"haiku-api/internal/domain"
)

var (
	opTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_operations_total", Help: "Count of dispatched operations"},
		[]string{"op", "result"},
	)
	opLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_operation_duration_seconds",
			Help:    "Latency of dispatched operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"},
	)
	batchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_batch_size",
		Help:    "Number of calls per batch",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})
)

func init() { prometheus.MustRegister(opTotal, opLatency, batchSize) }

// 未知的 op 统一记成 "unknown"，防止标签爆炸
func observe(op string, known bool, err *domain.Error, d time.Duration) {
	if !known {
		op = "unknown"
	}
	result := "ok"
	if err != nil {
		result = string(err.Kind)
	}
	opTotal.WithLabelValues(op, result).Inc()
	opLatency.WithLabelValues(op).Observe(d.Seconds())
}
