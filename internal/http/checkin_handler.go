package httpapi

import (
	"net/http"
	"strings"

	"postcare/internal/models"
	"postcare/internal/service"

	"go.uber.org/zap"
)

const checkInsPrefix = "/api/v1/checkins"

// CheckInHandler 每日打卡 Handler
type CheckInHandler struct {
	checkInService service.CheckInService
	logger         *zap.Logger
}

// NewCheckInHandler 创建每日打卡 Handler
func NewCheckInHandler(checkInService service.CheckInService, logger *zap.Logger) *CheckInHandler {
	return &CheckInHandler{
		checkInService: checkInService,
		logger:         logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *CheckInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == checkInsPrefix && r.Method == http.MethodPost:
		h.SubmitCheckIn(w, r)
	case path == checkInsPrefix+"/history" && r.Method == http.MethodGet:
		h.GetHistory(w, r, r.URL.Query().Get("patientId"))
	case path == checkInsPrefix+"/dashboard" && r.Method == http.MethodGet:
		h.GetDashboard(w, r)
	case strings.HasSuffix(path, "/export") && r.Method == http.MethodGet:
		if patientID := pathParam(path, checkInsPrefix+"/history/", "/export"); patientID != "" {
			h.ExportHistory(w, r, patientID)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case strings.HasPrefix(path, checkInsPrefix+"/history/") && r.Method == http.MethodGet:
		if patientID := pathParam(path, checkInsPrefix+"/history/", ""); patientID != "" {
			h.GetPatientHistory(w, r, patientID)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case path == checkInsPrefix || strings.HasPrefix(path, checkInsPrefix+"/"):
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// SubmitCheckIn 患者提交当天打卡
func (h *CheckInHandler) SubmitCheckIn(w http.ResponseWriter, r *http.Request) {
	id, ok := requireRole(w, r, models.RolePatient)
	if !ok {
		return
	}

	var req service.SubmitCheckInRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.checkInService.SubmitCheckIn(r.Context(), id.UserID, req)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(resp))
}

// GetHistory 打卡历史（患者看自己；医生需 patientId）
func (h *CheckInHandler) GetHistory(w http.ResponseWriter, r *http.Request, patientID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	checkIns, err := h.checkInService.GetHistory(r.Context(), service.GetHistoryRequest{
		UserID:    id.UserID,
		Role:      id.Role,
		PatientID: patientID,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(checkIns))
}

// GetPatientHistory 医生查看指定患者打卡历史
func (h *CheckInHandler) GetPatientHistory(w http.ResponseWriter, r *http.Request, patientID string) {
	if _, ok := requireRole(w, r, models.RoleDoctor, models.RoleAdmin); !ok {
		return
	}
	h.GetHistory(w, r, patientID)
}

// ExportHistory 导出患者打卡历史（XLSX）
func (h *CheckInHandler) ExportHistory(w http.ResponseWriter, r *http.Request, patientID string) {
	id, ok := requireRole(w, r, models.RoleDoctor, models.RoleAdmin)
	if !ok {
		return
	}

	data, err := h.checkInService.ExportHistory(r.Context(), service.GetHistoryRequest{
		UserID:    id.UserID,
		Role:      id.Role,
		PatientID: patientID,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=checkins-"+patientID+".xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GetDashboard 医生看板：每位患者最近一次打卡
func (h *CheckInHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, models.RoleDoctor, models.RoleAdmin); !ok {
		return
	}

	statuses, err := h.checkInService.GetDashboard(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(statuses))
}
