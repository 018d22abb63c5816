package httpapi

import (
	"net/http"

	"postcare/internal/metrics"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler 返回带访问日志的根 Handler；metricsEnabled 时再包一层指标中间件
func (r *Router) Handler(metricsEnabled bool) http.Handler {
	var h http.Handler = r
	if metricsEnabled {
		h = metrics.Middleware(h)
	}
	return LoggingMiddleware(r.logger)(h)
}

// RegisterHealthRoutes 注册健康检查路由
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.Handle("/health", h.Health)
	r.Handle("/ready", h.Ready)
}

// RegisterMetricsRoutes 注册 Prometheus 指标端点
func (r *Router) RegisterMetricsRoutes() {
	r.HandleHandler("/metrics", metrics.Handler())
}

// RegisterCheckInRoutes 注册每日打卡路由
func (r *Router) RegisterCheckInRoutes(h *CheckInHandler) {
	r.HandleHandler("/api/v1/checkins", h)
	r.HandleHandler("/api/v1/checkins/", h)
}

// RegisterTreatmentRoutes 注册治疗计划路由
func (r *Router) RegisterTreatmentRoutes(h *TreatmentHandler) {
	r.HandleHandler("/api/v1/treatments", h)
	r.HandleHandler("/api/v1/treatments/", h)
}

// RegisterAlertRoutes 注册报警路由
func (r *Router) RegisterAlertRoutes(h *AlertHandler) {
	r.HandleHandler("/api/v1/alerts", h)
	r.HandleHandler("/api/v1/alerts/", h)
}

// RegisterNotificationRoutes 注册医生通知路由
func (r *Router) RegisterNotificationRoutes(h *NotificationHandler) {
	r.HandleHandler("/api/v1/notifications", h)
}

// RegisterRiskRoutes 注册风险预览路由
func (r *Router) RegisterRiskRoutes(h *RiskHandler) {
	r.HandleHandler("/api/v1/risk/", h)
}
