package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"postcare/internal/evaluator"
	"postcare/internal/models"
	"postcare/internal/service"

	"go.uber.org/zap"
)

const treatmentsPrefix = "/api/v1/treatments"

// TreatmentHandler 治疗计划 Handler
type TreatmentHandler struct {
	treatmentService service.TreatmentService
	chatService      service.ChatService
	logger           *zap.Logger
}

// NewTreatmentHandler 创建治疗计划 Handler
func NewTreatmentHandler(treatmentService service.TreatmentService, chatService service.ChatService, logger *zap.Logger) *TreatmentHandler {
	return &TreatmentHandler{
		treatmentService: treatmentService,
		chatService:      chatService,
		logger:           logger,
	}
}

// RiskConfigResponse 计划上保存的配置与合并默认值后的生效配置
type RiskConfigResponse struct {
	PlanID    string             `json:"plan_id"`
	Saved     *models.RiskConfig `json:"saved"`
	Effective models.RiskConfig  `json:"effective"`
}

// ServeHTTP 实现 http.Handler 接口
func (h *TreatmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == treatmentsPrefix && r.Method == http.MethodGet:
		h.ListPlans(w, r)
	case path == treatmentsPrefix && r.Method == http.MethodPost:
		h.CreatePlan(w, r)
	case path == treatmentsPrefix+"/patients" && r.Method == http.MethodGet:
		h.ListPatients(w, r)
	case strings.HasPrefix(path, treatmentsPrefix+"/summary/") && r.Method == http.MethodGet:
		if patientID := pathParam(path, treatmentsPrefix+"/summary/", ""); patientID != "" {
			h.GetSummary(w, r, patientID)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case strings.HasSuffix(path, "/risk-config"):
		planID := pathParam(path, treatmentsPrefix+"/", "/risk-config")
		switch {
		case planID == "":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodGet:
			h.GetRiskConfig(w, r, planID)
		case r.Method == http.MethodPut:
			h.UpdateRiskConfig(w, r, planID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasSuffix(path, "/consent") && r.Method == http.MethodPut:
		if planID := pathParam(path, treatmentsPrefix+"/", "/consent"); planID != "" {
			h.UpdateConsent(w, r, planID)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case strings.HasSuffix(path, "/messages") && r.Method == http.MethodGet:
		if planID := pathParam(path, treatmentsPrefix+"/", "/messages"); planID != "" {
			h.GetMessages(w, r, planID)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case strings.HasPrefix(path, treatmentsPrefix+"/") && r.Method == http.MethodGet:
		if planID := pathParam(path, treatmentsPrefix+"/", ""); planID != "" {
			h.GetPlan(w, r, planID)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListPlans 治疗计划列表（按角色过滤）
func (h *TreatmentHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	plans, err := h.treatmentService.ListPlans(r.Context(), service.ListPlansRequest{
		UserID:    id.UserID,
		Role:      id.Role,
		PatientID: strings.TrimSpace(r.URL.Query().Get("patientId")),
		Status:    strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))),
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(plans))
}

// CreatePlan 医生创建治疗计划
func (h *TreatmentHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := requireRole(w, r, models.RoleDoctor)
	if !ok {
		return
	}

	var req service.CreatePlanRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	plan, err := h.treatmentService.CreatePlan(r.Context(), id.UserID, req)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(plan))
}

// GetPlan 查看单个治疗计划
func (h *TreatmentHandler) GetPlan(w http.ResponseWriter, r *http.Request, planID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	plan, err := h.treatmentService.GetPlan(r.Context(), planID, id.UserID, id.Role)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(plan))
}

// GetSummary 医生查看患者当前计划摘要；无 ACTIVE 计划时 result 为 null
func (h *TreatmentHandler) GetSummary(w http.ResponseWriter, r *http.Request, patientID string) {
	id, ok := requireRole(w, r, models.RoleDoctor)
	if !ok {
		return
	}

	summary, err := h.treatmentService.GetTreatmentSummary(r.Context(), patientID, id.UserID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	if summary == nil {
		writeJSON(w, http.StatusOK, Result[*service.TreatmentSummary]{
			Code:    ResultSuccess,
			Type:    ResultTypeSuccess,
			Message: "no active treatment plan found",
		})
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}

// ListPatients 医生名下的患者
func (h *TreatmentHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	id, ok := requireRole(w, r, models.RoleDoctor)
	if !ok {
		return
	}

	patients, err := h.treatmentService.ListPatients(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(patients))
}

// GetRiskConfig 查看计划的风险配置
func (h *TreatmentHandler) GetRiskConfig(w http.ResponseWriter, r *http.Request, planID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	plan, err := h.treatmentService.GetPlan(r.Context(), planID, id.UserID, id.Role)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(RiskConfigResponse{
		PlanID:    plan.PlanID,
		Saved:     plan.RiskConfig,
		Effective: evaluator.EffectiveRiskConfig(plan.RiskConfig),
	}))
}

// UpdateRiskConfig 医生调整风险阈值；请求体为 null 时恢复默认，空请求体返回 400
func (h *TreatmentHandler) UpdateRiskConfig(w http.ResponseWriter, r *http.Request, planID string) {
	id, ok := requireRole(w, r, models.RoleDoctor)
	if !ok {
		return
	}

	var cfg *models.RiskConfig
	if err := readRequiredBodyJSON(r, maxBodyBytes, &cfg); err != nil {
		if errors.Is(err, errEmptyBody) {
			writeJSON(w, http.StatusBadRequest, Fail("request body is required; send null to reset to defaults"))
			return
		}
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	plan, err := h.treatmentService.UpdateRiskConfig(r.Context(), planID, id.UserID, cfg)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(RiskConfigResponse{
		PlanID:    plan.PlanID,
		Saved:     plan.RiskConfig,
		Effective: evaluator.EffectiveRiskConfig(plan.RiskConfig),
	}))
}

// UpdateConsent 患者签署/更新同意书
func (h *TreatmentHandler) UpdateConsent(w http.ResponseWriter, r *http.Request, planID string) {
	id, ok := requireRole(w, r, models.RolePatient)
	if !ok {
		return
	}

	var req service.UpdateConsentRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	plan, err := h.treatmentService.UpdateConsent(r.Context(), planID, id.UserID, req)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(plan))
}

// GetMessages 计划会话消息（since 为 RFC3339）
func (h *TreatmentHandler) GetMessages(w http.ResponseWriter, r *http.Request, planID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	if _, err := h.treatmentService.GetPlan(r.Context(), planID, id.UserID, id.Role); err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	req := service.GetMessagesRequest{
		PlanID: planID,
		Limit:  parseInt(r.URL.Query().Get("limit"), service.DefaultMessageLimit),
	}
	if s := strings.TrimSpace(r.URL.Query().Get("since")); s != "" {
		since, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("since must be RFC3339"))
			return
		}
		req.Since = &since
	}

	msgs, err := h.chatService.GetMessages(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(msgs))
}
