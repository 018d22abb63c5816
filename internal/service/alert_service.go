package service

import (
	"context"
	"fmt"
	"time"

	"postcare/internal/evaluator"
	"postcare/internal/metrics"
	"postcare/internal/models"
	"postcare/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertEventPublisher 报警事件发布（Redis Streams）
type AlertEventPublisher interface {
	PublishAlert(ctx context.Context, evt models.AlertEvent) (string, error)
}

// AlertService 报警服务接口
type AlertService interface {
	// 持久化报警，并注入会话消息、发布事件（后两者失败只记日志）
	CreateAlert(ctx context.Context, req CreateAlertRequest) (*models.Alert, error)
	ListAlerts(ctx context.Context, req ListAlertsRequest) ([]*models.Alert, error)
	AcknowledgeAlert(ctx context.Context, alertID, doctorID string) (*models.Alert, error)

	// 漏打卡报警（去重/升级）；供巡检调用
	RaiseMissedCheckIn(ctx context.Context, plan *models.TreatmentPlan, level string) error

	// 患者重新打卡后关闭其未处理的漏打卡报警
	ResolveMissedCheckIns(ctx context.Context, patientID string) error
}

// CreateAlertRequest 创建报警
type CreateAlertRequest struct {
	PatientID string
	DoctorID  string
	PlanID    string
	Type      string
	Level     string
	Message   string
	RiskScore *int

	// 非空时注入该计划会话的 ALERT 消息
	ChatMessage string
}

// ListAlertsRequest 医生查询报警列表
type ListAlertsRequest struct {
	DoctorID string
	Status   string
	Type     string
	Unread   *bool
	Limit    int
}

type alertService struct {
	alertsRepo repository.AlertsRepository
	usersRepo  repository.UsersRepository
	chat       ChatService
	publisher  AlertEventPublisher // 可为 nil
	now        func() time.Time
	logger     *zap.Logger
}

// NewAlertService 创建 AlertService 实例
func NewAlertService(
	alertsRepo repository.AlertsRepository,
	usersRepo repository.UsersRepository,
	chat ChatService,
	publisher AlertEventPublisher,
	logger *zap.Logger,
) AlertService {
	return &alertService{
		alertsRepo: alertsRepo,
		usersRepo:  usersRepo,
		chat:       chat,
		publisher:  publisher,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *alertService) CreateAlert(ctx context.Context, req CreateAlertRequest) (*models.Alert, error) {
	now := s.now()
	alert := &models.Alert{
		AlertID:   uuid.New().String(),
		PatientID: req.PatientID,
		Type:      req.Type,
		Level:     req.Level,
		Message:   req.Message,
		RiskScore: req.RiskScore,
		Status:    models.AlertStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.DoctorID != "" {
		doctorID := req.DoctorID
		alert.DoctorID = &doctorID
	}
	if req.PlanID != "" {
		planID := req.PlanID
		alert.PlanID = &planID
	}

	if err := s.alertsRepo.CreateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	metrics.RecordAlertCreated(alert.Type, alert.Level)

	s.logger.Info("Alert created",
		zap.String("alert_id", alert.AlertID),
		zap.String("patient_id", alert.PatientID),
		zap.String("type", alert.Type),
		zap.String("level", alert.Level),
	)

	if req.ChatMessage != "" && req.PlanID != "" {
		if err := s.chat.SendSystemMessage(ctx, req.PlanID, req.ChatMessage, models.MessageTypeAlert); err != nil {
			s.logger.Error("Failed to inject alert message into chat",
				zap.String("alert_id", alert.AlertID),
				zap.String("plan_id", req.PlanID),
				zap.Error(err),
			)
		}
	}

	if s.publisher != nil {
		if _, err := s.publisher.PublishAlert(ctx, models.NewAlertEvent(alert)); err != nil {
			s.logger.Error("Failed to publish alert event",
				zap.String("alert_id", alert.AlertID),
				zap.Error(err),
			)
		}
	}

	return alert, nil
}

func (s *alertService) ListAlerts(ctx context.Context, req ListAlertsRequest) ([]*models.Alert, error) {
	alerts, err := s.alertsRepo.ListAlertsByDoctor(ctx, req.DoctorID, repository.AlertFilters{
		Status: req.Status,
		Type:   req.Type,
		Unread: req.Unread,
		Limit:  req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

func (s *alertService) AcknowledgeAlert(ctx context.Context, alertID, doctorID string) (*models.Alert, error) {
	alert, err := s.alertsRepo.GetAlert(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	if alert == nil {
		return nil, ErrAlertNotFound
	}
	if alert.DoctorID == nil || *alert.DoctorID != doctorID {
		return nil, ErrNotAuthorized
	}

	if err := s.alertsRepo.UpdateAlertStatus(ctx, alertID, models.AlertStatusAcknowledged, true); err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	alert.Status = models.AlertStatusAcknowledged
	alert.IsRead = true
	alert.UpdatedAt = s.now()
	return alert, nil
}

func (s *alertService) RaiseMissedCheckIn(ctx context.Context, plan *models.TreatmentPlan, level string) error {
	existing, err := s.alertsRepo.FindActiveAlert(ctx, plan.PatientID, models.AlertTypeMissedCheckIn)
	if err != nil {
		return fmt.Errorf("failed to find active alert: %w", err)
	}

	existingLevel := ""
	if existing != nil {
		existingLevel = existing.Level
	}

	switch evaluator.DecideMissedAlert(existingLevel, level) {
	case evaluator.MissedAlertSkip:
		s.logger.Debug("Missed check-in alert already active",
			zap.String("patient_id", plan.PatientID),
			zap.String("existing_level", existingLevel),
			zap.String("level", level),
		)
		return nil
	case evaluator.MissedAlertEscalate:
		if err := s.alertsRepo.UpdateAlertStatus(ctx, existing.AlertID, models.AlertStatusResolved, false); err != nil {
			return fmt.Errorf("failed to resolve previous alert: %w", err)
		}
	}

	base := evaluator.MissedCheckInMessage(level)
	_, err = s.CreateAlert(ctx, CreateAlertRequest{
		PatientID:   plan.PatientID,
		DoctorID:    plan.DoctorID,
		PlanID:      plan.PlanID,
		Type:        models.AlertTypeMissedCheckIn,
		Level:       level,
		Message:     fmt.Sprintf("%s (%s)", base, s.patientName(ctx, plan.PatientID)),
		ChatMessage: "⚠️ Alert: " + base,
	})
	return err
}

func (s *alertService) ResolveMissedCheckIns(ctx context.Context, patientID string) error {
	n, err := s.alertsRepo.ResolveActiveAlerts(ctx, patientID, models.AlertTypeMissedCheckIn)
	if err != nil {
		return fmt.Errorf("failed to resolve missed check-in alerts: %w", err)
	}
	if n > 0 {
		s.logger.Info("Resolved missed check-in alerts",
			zap.String("patient_id", patientID),
			zap.Int64("count", n),
		)
	}
	return nil
}

// patientName 查询患者姓名；查不到返回 "Unknown"
func (s *alertService) patientName(ctx context.Context, patientID string) string {
	user, err := s.usersRepo.GetUser(ctx, patientID)
	if err != nil {
		s.logger.Warn("Failed to load patient name",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		return "Unknown"
	}
	if user == nil || user.Name == "" {
		return "Unknown"
	}
	return user.Name
}
