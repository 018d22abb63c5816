package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"postcare/internal/models"
	"postcare/internal/service"

	"go.uber.org/zap"
)

type fakeCheckInService struct {
	submitFn    func(ctx context.Context, patientID string, req service.SubmitCheckInRequest) (*service.SubmitCheckInResponse, error)
	historyFn   func(ctx context.Context, req service.GetHistoryRequest) ([]*models.CheckIn, error)
	dashboardFn func(ctx context.Context) ([]*models.PatientStatus, error)
	exportFn    func(ctx context.Context, req service.GetHistoryRequest) ([]byte, error)
	previewFn   func(ctx context.Context, req service.PreviewRiskRequest) (*models.RiskResult, error)
}

func (f *fakeCheckInService) SubmitCheckIn(ctx context.Context, patientID string, req service.SubmitCheckInRequest) (*service.SubmitCheckInResponse, error) {
	return f.submitFn(ctx, patientID, req)
}

func (f *fakeCheckInService) GetHistory(ctx context.Context, req service.GetHistoryRequest) ([]*models.CheckIn, error) {
	return f.historyFn(ctx, req)
}

func (f *fakeCheckInService) GetDashboard(ctx context.Context) ([]*models.PatientStatus, error) {
	return f.dashboardFn(ctx)
}

func (f *fakeCheckInService) ExportHistory(ctx context.Context, req service.GetHistoryRequest) ([]byte, error) {
	return f.exportFn(ctx, req)
}

func (f *fakeCheckInService) PreviewRisk(ctx context.Context, req service.PreviewRiskRequest) (*models.RiskResult, error) {
	return f.previewFn(ctx, req)
}

type fakeTreatmentService struct {
	createFn     func(ctx context.Context, doctorID string, req service.CreatePlanRequest) (*models.TreatmentPlan, error)
	listFn       func(ctx context.Context, req service.ListPlansRequest) ([]*models.TreatmentPlan, error)
	getFn        func(ctx context.Context, planID, userID, role string) (*models.TreatmentPlan, error)
	riskConfigFn func(ctx context.Context, planID, doctorID string, cfg *models.RiskConfig) (*models.TreatmentPlan, error)
	consentFn    func(ctx context.Context, planID, patientID string, req service.UpdateConsentRequest) (*models.TreatmentPlan, error)
	summaryFn    func(ctx context.Context, patientID, doctorID string) (*service.TreatmentSummary, error)
	patientsFn   func(ctx context.Context, doctorID string) ([]*models.User, error)
}

func (f *fakeTreatmentService) CreatePlan(ctx context.Context, doctorID string, req service.CreatePlanRequest) (*models.TreatmentPlan, error) {
	return f.createFn(ctx, doctorID, req)
}

func (f *fakeTreatmentService) ListPlans(ctx context.Context, req service.ListPlansRequest) ([]*models.TreatmentPlan, error) {
	return f.listFn(ctx, req)
}

func (f *fakeTreatmentService) GetPlan(ctx context.Context, planID, userID, role string) (*models.TreatmentPlan, error) {
	return f.getFn(ctx, planID, userID, role)
}

func (f *fakeTreatmentService) UpdateRiskConfig(ctx context.Context, planID, doctorID string, cfg *models.RiskConfig) (*models.TreatmentPlan, error) {
	return f.riskConfigFn(ctx, planID, doctorID, cfg)
}

func (f *fakeTreatmentService) UpdateConsent(ctx context.Context, planID, patientID string, req service.UpdateConsentRequest) (*models.TreatmentPlan, error) {
	return f.consentFn(ctx, planID, patientID, req)
}

func (f *fakeTreatmentService) GetTreatmentSummary(ctx context.Context, patientID, doctorID string) (*service.TreatmentSummary, error) {
	return f.summaryFn(ctx, patientID, doctorID)
}

func (f *fakeTreatmentService) ListPatients(ctx context.Context, doctorID string) ([]*models.User, error) {
	return f.patientsFn(ctx, doctorID)
}

type fakeChatService struct {
	messagesFn func(ctx context.Context, req service.GetMessagesRequest) ([]*models.Message, error)
}

func (f *fakeChatService) SendSystemMessage(ctx context.Context, planID, content, msgType string) error {
	return nil
}

func (f *fakeChatService) InitConversation(ctx context.Context, planID string, participants []string) (*models.Conversation, error) {
	return &models.Conversation{PlanID: planID, Participants: participants}, nil
}

func (f *fakeChatService) GetMessages(ctx context.Context, req service.GetMessagesRequest) ([]*models.Message, error) {
	return f.messagesFn(ctx, req)
}

type fakeAlertService struct {
	listFn func(ctx context.Context, req service.ListAlertsRequest) ([]*models.Alert, error)
	ackFn  func(ctx context.Context, alertID, doctorID string) (*models.Alert, error)
}

func (f *fakeAlertService) CreateAlert(ctx context.Context, req service.CreateAlertRequest) (*models.Alert, error) {
	return &models.Alert{}, nil
}

func (f *fakeAlertService) ListAlerts(ctx context.Context, req service.ListAlertsRequest) ([]*models.Alert, error) {
	return f.listFn(ctx, req)
}

func (f *fakeAlertService) AcknowledgeAlert(ctx context.Context, alertID, doctorID string) (*models.Alert, error) {
	return f.ackFn(ctx, alertID, doctorID)
}

func (f *fakeAlertService) RaiseMissedCheckIn(ctx context.Context, plan *models.TreatmentPlan, level string) error {
	return nil
}

func (f *fakeAlertService) ResolveMissedCheckIns(ctx context.Context, patientID string) error {
	return nil
}

// newRequest 构造带身份头的请求；userID 为空时不带身份
func newRequest(method, target, body, userID, role string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
		req.Header.Set("X-User-Role", role)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
