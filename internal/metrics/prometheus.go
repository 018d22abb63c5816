package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcare_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postcare_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "postcare_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// 业务指标
	riskEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcare_risk_evaluations_total",
			Help: "Total number of check-in risk evaluations by resulting level",
		},
		[]string{"level"},
	)

	alertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcare_alerts_created_total",
			Help: "Total number of alerts created",
		},
		[]string{"type", "level"},
	)

	alertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcare_alerts_dispatched_total",
			Help: "Total number of alert deliveries by channel and result",
		},
		[]string{"channel", "result"},
	)

	milestonesUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcare_milestones_unlocked_total",
			Help: "Total number of treatment milestones unlocked",
		},
		[]string{"type"},
	)

	sweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcare_missed_checkin_sweeps_total",
			Help: "Total number of missed check-in sweeps",
		},
		[]string{"result"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "postcare_missed_checkin_sweep_duration_seconds",
			Help:    "Missed check-in sweep duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
	)
)

// Handler Prometheus 指标端点
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware HTTP 指标中间件
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := NormalizePath(r.URL.Path)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// NormalizePath 把 UUID 段替换为 :id，控制标签基数
func NormalizePath(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if _, err := uuid.Parse(s); err == nil {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}

// RecordRiskEvaluation 记录一次打卡风险评估
func RecordRiskEvaluation(level string) {
	riskEvaluations.WithLabelValues(level).Inc()
}

// RecordAlertCreated 记录报警创建
func RecordAlertCreated(alertType, level string) {
	alertsCreated.WithLabelValues(alertType, level).Inc()
}

// RecordAlertDispatch 记录报警投递（channel: cache, mqtt, webhook）
func RecordAlertDispatch(channel string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	alertsDispatched.WithLabelValues(channel, result).Inc()
}

// RecordMilestoneUnlocked 记录里程碑解锁
func RecordMilestoneUnlocked(milestoneType string) {
	milestonesUnlocked.WithLabelValues(milestoneType).Inc()
}

// RecordSweep 记录一次漏打卡巡检
func RecordSweep(ok bool, duration time.Duration) {
	result := "success"
	if !ok {
		result = "failure"
	}
	sweepRuns.WithLabelValues(result).Inc()
	sweepDuration.Observe(duration.Seconds())
}
