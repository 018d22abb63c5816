package repository

import (
	"context"

	"postcare/internal/models"
)

// TreatmentPlansRepository 治疗计划Repository接口
type TreatmentPlansRepository interface {
	CreatePlan(ctx context.Context, plan *models.TreatmentPlan) error

	// 不存在返回 (nil, nil)
	GetPlan(ctx context.Context, planID string) (*models.TreatmentPlan, error)

	// 患者当前 ACTIVE 计划（最新创建的一条）；不存在返回 (nil, nil)
	FindActiveByPatient(ctx context.Context, patientID string) (*models.TreatmentPlan, error)

	ListPlans(ctx context.Context, filters PlanFilters) ([]*models.TreatmentPlan, error)

	// cfg 为 nil 时清空配置（回到默认值）
	UpdateRiskConfig(ctx context.Context, planID string, cfg *models.RiskConfig) error

	UpdateMilestones(ctx context.Context, planID string, milestones []models.Milestone) error

	UpdateConsent(ctx context.Context, planID string, consent models.Consent) error
}

// PlanFilters 治疗计划过滤条件（空值表示不过滤）
type PlanFilters struct {
	PatientID string
	DoctorID  string
	Status    string
}
