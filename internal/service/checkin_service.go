package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"postcare/internal/evaluator"
	"postcare/internal/metrics"
	"postcare/internal/models"
	"postcare/internal/repository"

	"go.uber.org/zap"
)

// CheckInService 每日打卡服务接口
type CheckInService interface {
	SubmitCheckIn(ctx context.Context, patientID string, req SubmitCheckInRequest) (*SubmitCheckInResponse, error)

	// PATIENT 只能查自己；其他角色必须指定 patientID
	GetHistory(ctx context.Context, req GetHistoryRequest) ([]*models.CheckIn, error)
	GetDashboard(ctx context.Context) ([]*models.PatientStatus, error)
	ExportHistory(ctx context.Context, req GetHistoryRequest) ([]byte, error)

	// 只计算不落库（医生调整阈值时预览）
	PreviewRisk(ctx context.Context, req PreviewRiskRequest) (*models.RiskResult, error)
}

// SubmitCheckInRequest 打卡请求；指针字段用于区分"未提供"
type SubmitCheckInRequest struct {
	PainLevel        *int     `json:"painLevel"`
	Temperature      *float64 `json:"temperature"`
	MedicationsTaken *bool    `json:"medicationsTaken"`
	Symptoms         []string `json:"symptoms"`
	Notes            *string  `json:"notes"`
}

// SubmitCheckInResponse 打卡结果
type SubmitCheckInResponse struct {
	CheckIn    *models.CheckIn    `json:"checkin"`
	Milestones []models.Milestone `json:"milestones"`
}

// GetHistoryRequest 查询打卡历史
type GetHistoryRequest struct {
	UserID    string
	Role      string
	PatientID string
}

// PreviewRiskRequest 风险预览
type PreviewRiskRequest struct {
	Current  models.Observation  `json:"current"`
	Previous *models.Observation `json:"previous"`
	Config   *models.RiskConfig  `json:"config"`
}

type checkInService struct {
	checkInsRepo repository.CheckInsRepository
	plansRepo    repository.TreatmentPlansRepository
	usersRepo    repository.UsersRepository
	alerts       AlertService
	chat         ChatService
	location     *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

// NewCheckInService 创建 CheckInService 实例
// location 决定"今天"的日界线；为 nil 时使用 UTC
func NewCheckInService(
	checkInsRepo repository.CheckInsRepository,
	plansRepo repository.TreatmentPlansRepository,
	usersRepo repository.UsersRepository,
	alerts AlertService,
	chat ChatService,
	location *time.Location,
	logger *zap.Logger,
) CheckInService {
	if location == nil {
		location = time.UTC
	}
	return &checkInService{
		checkInsRepo: checkInsRepo,
		plansRepo:    plansRepo,
		usersRepo:    usersRepo,
		alerts:       alerts,
		chat:         chat,
		location:     location,
		now:          time.Now,
		logger:       logger,
	}
}

// validateCheckIn 必填字段与疼痛范围
func validateCheckIn(req SubmitCheckInRequest) error {
	if req.PainLevel == nil || req.Temperature == nil || req.MedicationsTaken == nil {
		return fmt.Errorf("%w: painLevel, temperature and medicationsTaken are required", ErrInvalidCheckIn)
	}
	if *req.PainLevel < 1 || *req.PainLevel > 10 {
		return fmt.Errorf("%w: painLevel must be between 1 and 10", ErrInvalidCheckIn)
	}
	return nil
}

// dayRange 返回 t 所在本地日的 [00:00:00, 23:59:59.999999999]
func dayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

func (s *checkInService) SubmitCheckIn(ctx context.Context, patientID string, req SubmitCheckInRequest) (*SubmitCheckInResponse, error) {
	if err := validateCheckIn(req); err != nil {
		return nil, err
	}

	now := s.now()
	startOfDay, endOfDay := dayRange(now, s.location)

	existing, err := s.checkInsRepo.FindCheckInInRange(ctx, patientID, startOfDay, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to check today's check-in: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyCheckedIn
	}

	plan, err := s.plansRepo.FindActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active plan: %w", err)
	}
	var riskConfig *models.RiskConfig
	if plan != nil {
		riskConfig = plan.RiskConfig
	}

	previous, err := s.checkInsRepo.FindPreviousCheckIn(ctx, patientID, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous check-in: %w", err)
	}

	symptoms := req.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}
	current := models.Observation{
		PainLevel:        *req.PainLevel,
		Temperature:      *req.Temperature,
		MedicationsTaken: *req.MedicationsTaken,
		Symptoms:         symptoms,
	}
	var prevObs *models.Observation
	if previous != nil {
		obs := previous.Observation()
		prevObs = &obs
	}

	risk := evaluator.CalculateRisk(current, prevObs, riskConfig)

	checkIn := &models.CheckIn{
		PatientID:        patientID,
		CheckInDate:      startOfDay,
		PainLevel:        current.PainLevel,
		Temperature:      current.Temperature,
		MedicationsTaken: current.MedicationsTaken,
		Symptoms:         symptoms,
		Notes:            req.Notes,
		RiskScore:        risk.Score,
		RiskLevel:        risk.Level,
		RiskReasons:      risk.Reasons,
	}
	if err := s.checkInsRepo.CreateCheckIn(ctx, checkIn); err != nil {
		if errors.Is(err, repository.ErrDuplicateCheckIn) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("failed to save check-in: %w", err)
	}
	metrics.RecordRiskEvaluation(string(risk.Level))

	s.logger.Info("Check-in submitted",
		zap.String("patient_id", patientID),
		zap.String("checkin_id", checkIn.CheckInID),
		zap.Int("risk_score", risk.Score),
		zap.String("risk_level", string(risk.Level)),
	)

	if err := s.alerts.ResolveMissedCheckIns(ctx, patientID); err != nil {
		s.logger.Warn("Failed to resolve missed check-in alerts",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
	}

	milestones := s.unlockMilestones(ctx, checkIn, plan, now)
	s.triggerAlerts(ctx, risk, patientID, plan)

	return &SubmitCheckInResponse{
		CheckIn:    checkIn,
		Milestones: milestones,
	}, nil
}

// unlockMilestones 评估并保存新解锁的里程碑；失败只记日志，打卡已落库
func (s *checkInService) unlockMilestones(ctx context.Context, checkIn *models.CheckIn, plan *models.TreatmentPlan, now time.Time) []models.Milestone {
	if plan == nil {
		return []models.Milestone{}
	}
	cfg := plan.MilestoneConfig.WithDefaults()

	input := evaluator.MilestoneInput{
		Config:   cfg,
		Achieved: plan.Milestones,
		Current:  checkIn,
		Now:      now,
	}

	var err error
	if !plan.HasMilestone(models.MilestonePainImprovement) {
		input.First, err = s.checkInsRepo.FindFirstCheckInSince(ctx, checkIn.PatientID, plan.StartDate)
		if err != nil {
			s.logger.Error("Failed to load first check-in", zap.String("plan_id", plan.PlanID), zap.Error(err))
			return []models.Milestone{}
		}
	}
	if !plan.HasMilestone(models.MilestoneMedicationStreak) {
		input.Recent, err = s.checkInsRepo.ListRecentCheckIns(ctx, checkIn.PatientID, cfg.MedicationStreakDays)
		if err != nil {
			s.logger.Error("Failed to load recent check-ins", zap.String("plan_id", plan.PlanID), zap.Error(err))
			return []models.Milestone{}
		}
	}

	unlocked := evaluator.EvaluateMilestones(input)
	if len(unlocked) == 0 {
		return unlocked
	}

	all := make([]models.Milestone, 0, len(plan.Milestones)+len(unlocked))
	all = append(all, plan.Milestones...)
	all = append(all, unlocked...)
	if err := s.plansRepo.UpdateMilestones(ctx, plan.PlanID, all); err != nil {
		s.logger.Error("Failed to save milestones", zap.String("plan_id", plan.PlanID), zap.Error(err))
		return []models.Milestone{}
	}
	plan.Milestones = all

	for _, m := range unlocked {
		metrics.RecordMilestoneUnlocked(m.Type)
		s.logger.Info("Milestone unlocked",
			zap.String("plan_id", plan.PlanID),
			zap.String("type", m.Type),
		)
		if err := s.chat.SendSystemMessage(ctx, plan.PlanID, evaluator.MilestoneMessage(m), models.MessageTypeMilestone); err != nil {
			s.logger.Error("Failed to send milestone message", zap.String("plan_id", plan.PlanID), zap.Error(err))
		}
	}
	return unlocked
}

// triggerAlerts 分数达到 WARNING 且存在治疗计划时创建 RISK_HIGH 报警
func (s *checkInService) triggerAlerts(ctx context.Context, risk models.RiskResult, patientID string, plan *models.TreatmentPlan) {
	if risk.Score < evaluator.WarningScoreFloor {
		return
	}
	if plan == nil {
		s.logger.Info("High risk check-in without active plan, alert skipped",
			zap.String("patient_id", patientID),
			zap.Int("risk_score", risk.Score),
		)
		return
	}

	name := "Patient"
	if user, err := s.usersRepo.GetUser(ctx, patientID); err != nil {
		s.logger.Warn("Failed to load patient name", zap.String("patient_id", patientID), zap.Error(err))
	} else if user != nil && user.Name != "" {
		name = user.Name
	}

	reasons := strings.Join(risk.Reasons, ", ")
	score := risk.Score
	_, err := s.alerts.CreateAlert(ctx, CreateAlertRequest{
		PatientID:   patientID,
		DoctorID:    plan.DoctorID,
		PlanID:      plan.PlanID,
		Type:        models.AlertTypeRiskHigh,
		Level:       string(risk.Level),
		Message:     fmt.Sprintf("High Risk detected for %s. Score: %d. Reasons: %s", name, score, reasons),
		RiskScore:   &score,
		ChatMessage: fmt.Sprintf("⚠️ High Risk Alert: %d. %s", score, reasons),
	})
	if err != nil {
		s.logger.Error("Failed to create high risk alert",
			zap.String("patient_id", patientID),
			zap.Int("risk_score", score),
			zap.Error(err),
		)
	}
}

func (s *checkInService) GetHistory(ctx context.Context, req GetHistoryRequest) ([]*models.CheckIn, error) {
	target := req.PatientID
	if req.Role == models.RolePatient {
		target = req.UserID
	}
	if target == "" {
		return nil, ErrPatientIDRequired
	}

	checkIns, err := s.checkInsRepo.ListCheckInsByPatient(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return checkIns, nil
}

func (s *checkInService) GetDashboard(ctx context.Context) ([]*models.PatientStatus, error) {
	statuses, err := s.checkInsRepo.ListLatestCheckInPerPatient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return statuses, nil
}

func (s *checkInService) ExportHistory(ctx context.Context, req GetHistoryRequest) ([]byte, error) {
	checkIns, err := s.GetHistory(ctx, req)
	if err != nil {
		return nil, err
	}
	return GenerateCheckInHistoryExport(checkIns, s.location)
}

func (s *checkInService) PreviewRisk(ctx context.Context, req PreviewRiskRequest) (*models.RiskResult, error) {
	if req.Current.PainLevel < 1 || req.Current.PainLevel > 10 {
		return nil, fmt.Errorf("%w: painLevel must be between 1 and 10", ErrInvalidCheckIn)
	}
	if req.Config != nil {
		if err := ValidateRiskConfig(req.Config); err != nil {
			return nil, err
		}
	}
	result := evaluator.CalculateRisk(req.Current, req.Previous, req.Config)
	return &result, nil
}
