package service

import (
	"context"
	"time"

	"postcare/internal/models"
	"postcare/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockCheckInsRepository 是 CheckInsRepository 的 mock 实现
type MockCheckInsRepository struct {
	mock.Mock
}

func (m *MockCheckInsRepository) CreateCheckIn(ctx context.Context, c *models.CheckIn) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCheckInsRepository) FindCheckInInRange(ctx context.Context, patientID string, start, end time.Time) (*models.CheckIn, error) {
	args := m.Called(ctx, patientID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckIn), args.Error(1)
}

func (m *MockCheckInsRepository) FindPreviousCheckIn(ctx context.Context, patientID string, before time.Time) (*models.CheckIn, error) {
	args := m.Called(ctx, patientID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckIn), args.Error(1)
}

func (m *MockCheckInsRepository) FindFirstCheckInSince(ctx context.Context, patientID string, since time.Time) (*models.CheckIn, error) {
	args := m.Called(ctx, patientID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckIn), args.Error(1)
}

func (m *MockCheckInsRepository) ListRecentCheckIns(ctx context.Context, patientID string, limit int) ([]*models.CheckIn, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CheckIn), args.Error(1)
}

func (m *MockCheckInsRepository) ListCheckInsByPatient(ctx context.Context, patientID string) ([]*models.CheckIn, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CheckIn), args.Error(1)
}

func (m *MockCheckInsRepository) ListLatestCheckInPerPatient(ctx context.Context) ([]*models.PatientStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PatientStatus), args.Error(1)
}

func (m *MockCheckInsRepository) GetLastCheckInTime(ctx context.Context, patientID string) (*time.Time, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// MockPlansRepository 是 TreatmentPlansRepository 的 mock 实现
type MockPlansRepository struct {
	mock.Mock
}

func (m *MockPlansRepository) CreatePlan(ctx context.Context, plan *models.TreatmentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlansRepository) GetPlan(ctx context.Context, planID string) (*models.TreatmentPlan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TreatmentPlan), args.Error(1)
}

func (m *MockPlansRepository) FindActiveByPatient(ctx context.Context, patientID string) (*models.TreatmentPlan, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TreatmentPlan), args.Error(1)
}

func (m *MockPlansRepository) ListPlans(ctx context.Context, filters repository.PlanFilters) ([]*models.TreatmentPlan, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TreatmentPlan), args.Error(1)
}

func (m *MockPlansRepository) UpdateRiskConfig(ctx context.Context, planID string, cfg *models.RiskConfig) error {
	args := m.Called(ctx, planID, cfg)
	return args.Error(0)
}

func (m *MockPlansRepository) UpdateMilestones(ctx context.Context, planID string, milestones []models.Milestone) error {
	args := m.Called(ctx, planID, milestones)
	return args.Error(0)
}

func (m *MockPlansRepository) UpdateConsent(ctx context.Context, planID string, consent models.Consent) error {
	args := m.Called(ctx, planID, consent)
	return args.Error(0)
}

// MockAlertsRepository 是 AlertsRepository 的 mock 实现
type MockAlertsRepository struct {
	mock.Mock
}

func (m *MockAlertsRepository) CreateAlert(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertsRepository) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	args := m.Called(ctx, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alert), args.Error(1)
}

func (m *MockAlertsRepository) FindActiveAlert(ctx context.Context, patientID, alertType string) (*models.Alert, error) {
	args := m.Called(ctx, patientID, alertType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alert), args.Error(1)
}

func (m *MockAlertsRepository) ResolveActiveAlerts(ctx context.Context, patientID, alertType string) (int64, error) {
	args := m.Called(ctx, patientID, alertType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertsRepository) UpdateAlertStatus(ctx context.Context, alertID, status string, markRead bool) error {
	args := m.Called(ctx, alertID, status, markRead)
	return args.Error(0)
}

func (m *MockAlertsRepository) ListAlertsByDoctor(ctx context.Context, doctorID string, filters repository.AlertFilters) ([]*models.Alert, error) {
	args := m.Called(ctx, doctorID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Alert), args.Error(1)
}

// MockConversationsRepository 是 ConversationsRepository 的 mock 实现
type MockConversationsRepository struct {
	mock.Mock
}

func (m *MockConversationsRepository) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

func (m *MockConversationsRepository) FindConversationByPlan(ctx context.Context, planID string) (*models.Conversation, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockConversationsRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockConversationsRepository) UpdateLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	args := m.Called(ctx, conversationID, messageID, at)
	return args.Error(0)
}

func (m *MockConversationsRepository) ListMessages(ctx context.Context, conversationID string, since *time.Time, limit int) ([]*models.Message, error) {
	args := m.Called(ctx, conversationID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

// MockUsersRepository 是 UsersRepository 的 mock 实现
type MockUsersRepository struct {
	mock.Mock
}

func (m *MockUsersRepository) ListPatientsByDoctor(ctx context.Context, doctorID string) ([]*models.User, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUsersRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockChatService 是 ChatService 的 mock 实现
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) SendSystemMessage(ctx context.Context, planID, content, msgType string) error {
	args := m.Called(ctx, planID, content, msgType)
	return args.Error(0)
}

func (m *MockChatService) InitConversation(ctx context.Context, planID string, participants []string) (*models.Conversation, error) {
	args := m.Called(ctx, planID, participants)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockChatService) GetMessages(ctx context.Context, req GetMessagesRequest) ([]*models.Message, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

// MockAlertService 是 AlertService 的 mock 实现
type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) CreateAlert(ctx context.Context, req CreateAlertRequest) (*models.Alert, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alert), args.Error(1)
}

func (m *MockAlertService) ListAlerts(ctx context.Context, req ListAlertsRequest) ([]*models.Alert, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Alert), args.Error(1)
}

func (m *MockAlertService) AcknowledgeAlert(ctx context.Context, alertID, doctorID string) (*models.Alert, error) {
	args := m.Called(ctx, alertID, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alert), args.Error(1)
}

func (m *MockAlertService) RaiseMissedCheckIn(ctx context.Context, plan *models.TreatmentPlan, level string) error {
	args := m.Called(ctx, plan, level)
	return args.Error(0)
}

func (m *MockAlertService) ResolveMissedCheckIns(ctx context.Context, patientID string) error {
	args := m.Called(ctx, patientID)
	return args.Error(0)
}

// MockAlertEventPublisher 是 AlertEventPublisher 的 mock 实现
type MockAlertEventPublisher struct {
	mock.Mock
}

func (m *MockAlertEventPublisher) PublishAlert(ctx context.Context, evt models.AlertEvent) (string, error) {
	args := m.Called(ctx, evt)
	return args.String(0), args.Error(1)
}
