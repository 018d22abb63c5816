package httpapi

import (
	"net/http"
	"strings"

	"postcare/internal/evaluator"
	"postcare/internal/models"
	"postcare/internal/service"

	"go.uber.org/zap"
)

const riskPrefix = "/api/v1/risk"

// RiskHandler 风险评估预览 Handler
type RiskHandler struct {
	checkInService service.CheckInService
	logger         *zap.Logger
}

// NewRiskHandler 创建风险预览 Handler
func NewRiskHandler(checkInService service.CheckInService, logger *zap.Logger) *RiskHandler {
	return &RiskHandler{
		checkInService: checkInService,
		logger:         logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *RiskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == riskPrefix+"/preview" && r.Method == http.MethodPost:
		h.Preview(w, r)
	case path == riskPrefix+"/defaults" && r.Method == http.MethodGet:
		h.Defaults(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Preview 用给定配置评估一次观察值，不落库
func (h *RiskHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, models.RoleDoctor, models.RoleAdmin); !ok {
		return
	}

	var req service.PreviewRiskRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	result, err := h.checkInService.PreviewRisk(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// Defaults 默认风险配置
func (h *RiskHandler) Defaults(w http.ResponseWriter, r *http.Request) {
	if _, ok := identityFromReq(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, Ok(evaluator.EffectiveRiskConfig(nil)))
}
