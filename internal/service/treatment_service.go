package service

import (
	"context"
	"fmt"
	"time"

	"postcare/internal/models"
	"postcare/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TreatmentService 治疗计划服务接口
type TreatmentService interface {
	CreatePlan(ctx context.Context, doctorID string, req CreatePlanRequest) (*models.TreatmentPlan, error)
	ListPlans(ctx context.Context, req ListPlansRequest) ([]*models.TreatmentPlan, error)

	// 患者只能看自己的计划，医生只能看自己负责的计划
	GetPlan(ctx context.Context, planID, userID, role string) (*models.TreatmentPlan, error)

	// 仅负责医生可修改；cfg 为 nil 恢复默认配置
	UpdateRiskConfig(ctx context.Context, planID, doctorID string, cfg *models.RiskConfig) (*models.TreatmentPlan, error)

	// 仅计划所属患者可修改
	UpdateConsent(ctx context.Context, planID, patientID string, req UpdateConsentRequest) (*models.TreatmentPlan, error)

	// 医生查看某患者在自己名下的 ACTIVE 计划摘要；没有时返回 (nil, nil)
	GetTreatmentSummary(ctx context.Context, patientID, doctorID string) (*TreatmentSummary, error)

	// 医生名下的患者
	ListPatients(ctx context.Context, doctorID string) ([]*models.User, error)
}

// TreatmentSummary 计划摘要（医生端患者卡片）
type TreatmentSummary struct {
	Patient   SummaryPatient   `json:"patient"`
	Treatment SummaryTreatment `json:"treatment"`
}

type SummaryPatient struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
}

type SummaryTreatment struct {
	PlanID      string    `json:"plan_id"`
	Diagnosis   string    `json:"diagnosis"`
	StartDate   time.Time `json:"start_date"`
	Status      string    `json:"status"`
	Medications []string  `json:"medications"`
}

// CreatePlanRequest 创建治疗计划
type CreatePlanRequest struct {
	PatientID        string                  `json:"patientId"`
	Diagnosis        string                  `json:"diagnosis"`
	StartDate        *time.Time              `json:"startDate"`
	ExpectedDays     int                     `json:"expectedDays"`
	Medications      []models.Medication     `json:"medications"`
	SymptomChecklist []string                `json:"symptomChecklist"`
	RiskConfig       *models.RiskConfig      `json:"riskConfig"`
	CheckInFrequency models.CheckInFrequency `json:"checkInFrequency"`
	MilestoneConfig  *models.MilestoneConfig `json:"milestoneConfig"`
}

// ListPlansRequest 查询治疗计划
type ListPlansRequest struct {
	UserID    string
	Role      string
	PatientID string // 医生可按患者过滤
	Status    string
}

// UpdateConsentRequest 患者同意书
type UpdateConsentRequest struct {
	Monitoring bool `json:"monitoring"`
	Messaging  bool `json:"messaging"`
}

type treatmentService struct {
	plansRepo repository.TreatmentPlansRepository
	usersRepo repository.UsersRepository
	chat      ChatService
	now       func() time.Time
	logger    *zap.Logger
}

// NewTreatmentService 创建 TreatmentService 实例
func NewTreatmentService(
	plansRepo repository.TreatmentPlansRepository,
	usersRepo repository.UsersRepository,
	chat ChatService,
	logger *zap.Logger,
) TreatmentService {
	return &treatmentService{
		plansRepo: plansRepo,
		usersRepo: usersRepo,
		chat:      chat,
		now:       time.Now,
		logger:    logger,
	}
}

// ValidateRiskConfig 校验风险配置：规则必须已知，阈值必须为正
func ValidateRiskConfig(cfg *models.RiskConfig) error {
	if cfg == nil {
		return nil
	}
	if cfg.FeverThreshold != nil && *cfg.FeverThreshold <= 0 {
		return fmt.Errorf("%w: feverThreshold must be positive", ErrInvalidPlan)
	}
	if cfg.PainThreshold != nil && (*cfg.PainThreshold < 1 || *cfg.PainThreshold > 10) {
		return fmt.Errorf("%w: painThreshold must be between 1 and 10", ErrInvalidPlan)
	}
	if cfg.MedicationPenalty != nil && *cfg.MedicationPenalty < 0 {
		return fmt.Errorf("%w: medicationPenalty must not be negative", ErrInvalidPlan)
	}
	for _, id := range cfg.EnabledRules {
		if !id.Valid() {
			return fmt.Errorf("%w: unknown rule %q", ErrInvalidPlan, id)
		}
	}
	return nil
}

func (s *treatmentService) CreatePlan(ctx context.Context, doctorID string, req CreatePlanRequest) (*models.TreatmentPlan, error) {
	if req.PatientID == "" {
		return nil, ErrPatientIDRequired
	}
	if req.Diagnosis == "" {
		return nil, fmt.Errorf("%w: diagnosis is required", ErrInvalidPlan)
	}
	if req.ExpectedDays < 0 {
		return nil, fmt.Errorf("%w: expectedDays must not be negative", ErrInvalidPlan)
	}
	if req.CheckInFrequency != "" && !req.CheckInFrequency.Valid() {
		return nil, fmt.Errorf("%w: unknown checkInFrequency %q", ErrInvalidPlan, req.CheckInFrequency)
	}
	if err := ValidateRiskConfig(req.RiskConfig); err != nil {
		return nil, err
	}

	patient, err := s.usersRepo.GetUser(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	if patient == nil || patient.Role != models.RolePatient {
		return nil, ErrPatientNotFound
	}

	now := s.now()
	plan := &models.TreatmentPlan{
		PlanID:           uuid.New().String(),
		PatientID:        req.PatientID,
		DoctorID:         doctorID,
		Diagnosis:        req.Diagnosis,
		StartDate:        now,
		ExpectedDays:     req.ExpectedDays,
		Medications:      req.Medications,
		SymptomChecklist: req.SymptomChecklist,
		Status:           models.PlanStatusActive,
		RiskConfig:       req.RiskConfig,
		CheckInFrequency: req.CheckInFrequency,
		Milestones:       []models.Milestone{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.StartDate != nil {
		plan.StartDate = *req.StartDate
	}
	if plan.CheckInFrequency == "" {
		plan.CheckInFrequency = models.FrequencyDaily
	}
	if req.MilestoneConfig != nil {
		plan.MilestoneConfig = *req.MilestoneConfig
	}
	plan.MilestoneConfig = plan.MilestoneConfig.WithDefaults()
	if plan.Medications == nil {
		plan.Medications = []models.Medication{}
	}
	if plan.SymptomChecklist == nil {
		plan.SymptomChecklist = []string{}
	}

	if err := s.plansRepo.CreatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create treatment plan: %w", err)
	}

	s.logger.Info("Treatment plan created",
		zap.String("plan_id", plan.PlanID),
		zap.String("patient_id", plan.PatientID),
		zap.String("doctor_id", doctorID),
	)

	if _, err := s.chat.InitConversation(ctx, plan.PlanID, []string{plan.PatientID, doctorID}); err != nil {
		s.logger.Error("Failed to initialize conversation",
			zap.String("plan_id", plan.PlanID),
			zap.Error(err),
		)
	}

	return plan, nil
}

func (s *treatmentService) ListPlans(ctx context.Context, req ListPlansRequest) ([]*models.TreatmentPlan, error) {
	filters := repository.PlanFilters{Status: req.Status}
	switch req.Role {
	case models.RolePatient:
		filters.PatientID = req.UserID
	case models.RoleDoctor:
		filters.DoctorID = req.UserID
		filters.PatientID = req.PatientID
	default:
		filters.PatientID = req.PatientID
	}

	plans, err := s.plansRepo.ListPlans(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list treatment plans: %w", err)
	}
	return plans, nil
}

func (s *treatmentService) GetPlan(ctx context.Context, planID, userID, role string) (*models.TreatmentPlan, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if role == models.RolePatient && plan.PatientID != userID {
		return nil, ErrNotAuthorized
	}
	if role == models.RoleDoctor && plan.DoctorID != userID {
		return nil, ErrNotAuthorized
	}
	return plan, nil
}

func (s *treatmentService) UpdateRiskConfig(ctx context.Context, planID, doctorID string, cfg *models.RiskConfig) (*models.TreatmentPlan, error) {
	if err := ValidateRiskConfig(cfg); err != nil {
		return nil, err
	}
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.DoctorID != doctorID {
		return nil, ErrNotAuthorized
	}

	if err := s.plansRepo.UpdateRiskConfig(ctx, planID, cfg); err != nil {
		return nil, fmt.Errorf("failed to update risk config: %w", err)
	}
	plan.RiskConfig = cfg

	s.logger.Info("Risk config updated",
		zap.String("plan_id", planID),
		zap.String("doctor_id", doctorID),
		zap.Bool("reset", cfg == nil),
	)
	return plan, nil
}

func (s *treatmentService) UpdateConsent(ctx context.Context, planID, patientID string, req UpdateConsentRequest) (*models.TreatmentPlan, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.PatientID != patientID {
		return nil, ErrNotAuthorized
	}

	signedAt := s.now()
	consent := models.Consent{
		Monitoring: req.Monitoring,
		Messaging:  req.Messaging,
		SignedAt:   &signedAt,
	}
	if err := s.plansRepo.UpdateConsent(ctx, planID, consent); err != nil {
		return nil, fmt.Errorf("failed to update consent: %w", err)
	}
	plan.Consent = consent
	return plan, nil
}

func (s *treatmentService) loadPlan(ctx context.Context, planID string) (*models.TreatmentPlan, error) {
	plan, err := s.plansRepo.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment plan: %w", err)
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *treatmentService) GetTreatmentSummary(ctx context.Context, patientID, doctorID string) (*TreatmentSummary, error) {
	if patientID == "" {
		return nil, ErrPatientIDRequired
	}

	plans, err := s.plansRepo.ListPlans(ctx, repository.PlanFilters{
		PatientID: patientID,
		DoctorID:  doctorID,
		Status:    models.PlanStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load active plan: %w", err)
	}
	if len(plans) == 0 {
		return nil, nil
	}
	plan := plans[0]

	summary := &TreatmentSummary{
		Treatment: SummaryTreatment{
			PlanID:      plan.PlanID,
			Diagnosis:   plan.Diagnosis,
			StartDate:   plan.StartDate,
			Status:      plan.Status,
			Medications: make([]string, 0, len(plan.Medications)),
		},
	}
	for _, m := range plan.Medications {
		summary.Treatment.Medications = append(summary.Treatment.Medications, m.Name)
	}

	patient, err := s.usersRepo.GetUser(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	if patient != nil {
		summary.Patient = SummaryPatient{Name: patient.Name, Email: patient.Email}
	}
	return summary, nil
}

func (s *treatmentService) ListPatients(ctx context.Context, doctorID string) ([]*models.User, error) {
	patients, err := s.usersRepo.ListPatientsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
