package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"postcare/internal/models"

	"github.com/google/uuid"
)

const planColumns = `
	plan_id, patient_id, doctor_id, diagnosis, start_date, expected_days,
	medications, symptom_checklist, status, consent, risk_config,
	checkin_frequency, milestone_config, milestones, created_at, updated_at`

// PostgresTreatmentPlansRepository 治疗计划Repository实现
type PostgresTreatmentPlansRepository struct {
	db *sql.DB
}

// NewPostgresTreatmentPlansRepository 创建治疗计划Repository
func NewPostgresTreatmentPlansRepository(db *sql.DB) *PostgresTreatmentPlansRepository {
	return &PostgresTreatmentPlansRepository{db: db}
}

var _ TreatmentPlansRepository = (*PostgresTreatmentPlansRepository)(nil)

func scanPlan(row rowScanner) (*models.TreatmentPlan, error) {
	var p models.TreatmentPlan
	var medications, checklist, consent, riskConfig, milestoneConfig, milestones []byte
	var frequency string

	if err := row.Scan(
		&p.PlanID,
		&p.PatientID,
		&p.DoctorID,
		&p.Diagnosis,
		&p.StartDate,
		&p.ExpectedDays,
		&medications,
		&checklist,
		&p.Status,
		&consent,
		&riskConfig,
		&frequency,
		&milestoneConfig,
		&milestones,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.CheckInFrequency = models.CheckInFrequency(frequency)
	if err := unmarshalJSONB(medications, &p.Medications); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(checklist, &p.SymptomChecklist); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(consent, &p.Consent); err != nil {
		return nil, err
	}
	if len(riskConfig) > 0 && string(riskConfig) != "null" {
		var cfg models.RiskConfig
		if err := unmarshalJSONB(riskConfig, &cfg); err != nil {
			return nil, err
		}
		p.RiskConfig = &cfg
	}
	if err := unmarshalJSONB(milestoneConfig, &p.MilestoneConfig); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(milestones, &p.Milestones); err != nil {
		return nil, err
	}
	if p.Medications == nil {
		p.Medications = []models.Medication{}
	}
	if p.SymptomChecklist == nil {
		p.SymptomChecklist = []string{}
	}
	if p.Milestones == nil {
		p.Milestones = []models.Milestone{}
	}
	return &p, nil
}

// CreatePlan 创建治疗计划
func (r *PostgresTreatmentPlansRepository) CreatePlan(ctx context.Context, p *models.TreatmentPlan) error {
	if p.PatientID == "" || p.DoctorID == "" {
		return fmt.Errorf("patient_id and doctor_id are required")
	}
	if p.PlanID == "" {
		p.PlanID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = models.PlanStatusActive
	}
	if p.Medications == nil {
		p.Medications = []models.Medication{}
	}
	if p.SymptomChecklist == nil {
		p.SymptomChecklist = []string{}
	}
	if p.Milestones == nil {
		p.Milestones = []models.Milestone{}
	}

	medications, err := marshalJSONB(p.Medications)
	if err != nil {
		return err
	}
	checklist, err := marshalJSONB(p.SymptomChecklist)
	if err != nil {
		return err
	}
	consent, err := marshalJSONB(p.Consent)
	if err != nil {
		return err
	}
	var riskConfig interface{}
	if p.RiskConfig != nil {
		b, err := marshalJSONB(p.RiskConfig)
		if err != nil {
			return err
		}
		riskConfig = b
	}
	milestoneConfig, err := marshalJSONB(p.MilestoneConfig)
	if err != nil {
		return err
	}
	milestones, err := marshalJSONB(p.Milestones)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO treatment_plans (
			plan_id, patient_id, doctor_id, diagnosis, start_date, expected_days,
			medications, symptom_checklist, status, consent, risk_config,
			checkin_frequency, milestone_config, milestones
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		p.PlanID,
		p.PatientID,
		p.DoctorID,
		p.Diagnosis,
		p.StartDate,
		p.ExpectedDays,
		medications,
		checklist,
		p.Status,
		consent,
		riskConfig,
		string(p.CheckInFrequency),
		milestoneConfig,
		milestones,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create treatment plan: %w", err)
	}
	return nil
}

// GetPlan 根据 plan_id 获取治疗计划
func (r *PostgresTreatmentPlansRepository) GetPlan(ctx context.Context, planID string) (*models.TreatmentPlan, error) {
	query := `SELECT` + planColumns + ` FROM treatment_plans WHERE plan_id = $1`
	p, err := scanPlan(r.db.QueryRowContext(ctx, query, planID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get treatment plan: %w", err)
	}
	return p, nil
}

// FindActiveByPatient 患者当前 ACTIVE 计划
func (r *PostgresTreatmentPlansRepository) FindActiveByPatient(ctx context.Context, patientID string) (*models.TreatmentPlan, error) {
	query := `SELECT` + planColumns + `
		FROM treatment_plans
		WHERE patient_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	p, err := scanPlan(r.db.QueryRowContext(ctx, query, patientID, models.PlanStatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active treatment plan: %w", err)
	}
	return p, nil
}

// ListPlans 按过滤条件列出治疗计划（最新在前）
func (r *PostgresTreatmentPlansRepository) ListPlans(ctx context.Context, filters PlanFilters) ([]*models.TreatmentPlan, error) {
	var where []string
	var args []interface{}
	argN := 1
	add := func(column, value string) {
		if value == "" {
			return
		}
		where = append(where, fmt.Sprintf("%s = $%d", column, argN))
		args = append(args, value)
		argN++
	}
	add("patient_id", filters.PatientID)
	add("doctor_id", filters.DoctorID)
	add("status", filters.Status)

	query := `SELECT` + planColumns + ` FROM treatment_plans`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list treatment plans: %w", err)
	}
	defer rows.Close()

	out := []*models.TreatmentPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan treatment plan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate treatment plans: %w", err)
	}
	return out, nil
}

// UpdateRiskConfig 更新风险配置
func (r *PostgresTreatmentPlansRepository) UpdateRiskConfig(ctx context.Context, planID string, cfg *models.RiskConfig) error {
	var value interface{}
	if cfg != nil {
		b, err := marshalJSONB(cfg)
		if err != nil {
			return err
		}
		value = b
	}
	return r.updateColumn(ctx, planID, "risk_config", value)
}

// UpdateMilestones 覆盖已达成里程碑列表
func (r *PostgresTreatmentPlansRepository) UpdateMilestones(ctx context.Context, planID string, milestones []models.Milestone) error {
	if milestones == nil {
		milestones = []models.Milestone{}
	}
	b, err := marshalJSONB(milestones)
	if err != nil {
		return err
	}
	return r.updateColumn(ctx, planID, "milestones", b)
}

// UpdateConsent 更新患者同意
func (r *PostgresTreatmentPlansRepository) UpdateConsent(ctx context.Context, planID string, consent models.Consent) error {
	b, err := marshalJSONB(consent)
	if err != nil {
		return err
	}
	return r.updateColumn(ctx, planID, "consent", b)
}

// updateColumn column 只接受内部常量
func (r *PostgresTreatmentPlansRepository) updateColumn(ctx context.Context, planID, column string, value interface{}) error {
	query := `UPDATE treatment_plans SET ` + column + ` = $2, updated_at = NOW() WHERE plan_id = $1`
	res, err := r.db.ExecContext(ctx, query, planID, value)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if n == 0 {
		return fmt.Errorf("treatment plan %s: %w", planID, ErrNotFound)
	}
	return nil
}
