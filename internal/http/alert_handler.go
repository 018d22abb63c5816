package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"postcare/internal/models"
	"postcare/internal/service"

	"go.uber.org/zap"
)

const alertsPrefix = "/api/v1/alerts"

// AlertHandler 报警 Handler（医生）
type AlertHandler struct {
	alertService service.AlertService
	logger       *zap.Logger
}

// NewAlertHandler 创建报警 Handler
func NewAlertHandler(alertService service.AlertService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		logger:       logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *AlertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == alertsPrefix && r.Method == http.MethodGet:
		h.ListAlerts(w, r)
	case strings.HasSuffix(path, "/acknowledge") && r.Method == http.MethodPut:
		if alertID := pathParam(path, alertsPrefix+"/", "/acknowledge"); alertID != "" {
			h.AcknowledgeAlert(w, r, alertID)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListAlerts 医生的报警列表
// 查询参数：status, type, unread=true|false, limit
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	id, ok := requireRole(w, r, models.RoleDoctor)
	if !ok {
		return
	}

	q := r.URL.Query()
	req := service.ListAlertsRequest{
		DoctorID: id.UserID,
		Status:   strings.ToUpper(strings.TrimSpace(q.Get("status"))),
		Type:     strings.ToUpper(strings.TrimSpace(q.Get("type"))),
		Limit:    parseInt(q.Get("limit"), 0),
	}
	if s := strings.TrimSpace(q.Get("unread")); s != "" {
		unread, err := strconv.ParseBool(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("unread must be true or false"))
			return
		}
		req.Unread = &unread
	}

	alerts, err := h.alertService.ListAlerts(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alerts))
}

// AcknowledgeAlert 医生确认报警
func (h *AlertHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request, alertID string) {
	id, ok := requireRole(w, r, models.RoleDoctor)
	if !ok {
		return
	}

	alert, err := h.alertService.AcknowledgeAlert(r.Context(), alertID, id.UserID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alert))
}
