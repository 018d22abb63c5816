package models

import (
	"time"
)

// 治疗计划状态
const (
	PlanStatusActive    = "ACTIVE"
	PlanStatusCompleted = "COMPLETED"
)

// CheckInFrequency 打卡频率
type CheckInFrequency string

const (
	FrequencyDaily     CheckInFrequency = "DAILY"
	FrequencyAlternate CheckInFrequency = "ALTERNATE"
	FrequencyWeekly    CheckInFrequency = "WEEKLY"
)

// Valid 是否为已知频率
func (f CheckInFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyAlternate, FrequencyWeekly:
		return true
	}
	return false
}

// 里程碑类型
const (
	MilestonePainImprovement  = "PAIN_IMPROVEMENT"
	MilestoneMedicationStreak = "MEDICATION_STREAK"
)

// 里程碑默认配置
const (
	DefaultPainImprovementTarget = 30 // 百分比
	DefaultMedicationStreakDays  = 7
)

// TreatmentPlan 治疗计划（对应 treatment_plans 表）
type TreatmentPlan struct {
	PlanID           string           `json:"plan_id" db:"plan_id"`
	PatientID        string           `json:"patient_id" db:"patient_id"`
	DoctorID         string           `json:"doctor_id" db:"doctor_id"`
	Diagnosis        string           `json:"diagnosis" db:"diagnosis"`
	StartDate        time.Time        `json:"start_date" db:"start_date"`
	ExpectedDays     int              `json:"expected_days" db:"expected_days"`
	Medications      []Medication     `json:"medications" db:"medications"`             // JSONB
	SymptomChecklist []string         `json:"symptom_checklist" db:"symptom_checklist"` // JSONB
	Status           string           `json:"status" db:"status"`
	Consent          Consent          `json:"consent" db:"consent"`         // JSONB
	RiskConfig       *RiskConfig      `json:"risk_config" db:"risk_config"` // JSONB，可为空
	CheckInFrequency CheckInFrequency `json:"checkin_frequency" db:"checkin_frequency"`
	MilestoneConfig  MilestoneConfig  `json:"milestone_config" db:"milestone_config"` // JSONB
	Milestones       []Milestone      `json:"milestones" db:"milestones"`             // JSONB
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// Medication 用药
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
}

// Consent 患者同意
type Consent struct {
	Monitoring bool       `json:"monitoring"`
	Messaging  bool       `json:"messaging"`
	SignedAt   *time.Time `json:"signedAt,omitempty"`
}

// MilestoneConfig 里程碑配置
type MilestoneConfig struct {
	PainImprovementTarget int `json:"painImprovementTarget"`
	MedicationStreakDays  int `json:"medicationStreakDays"`
}

// WithDefaults 未设置（<=0）的字段取默认值
func (c MilestoneConfig) WithDefaults() MilestoneConfig {
	if c.PainImprovementTarget <= 0 {
		c.PainImprovementTarget = DefaultPainImprovementTarget
	}
	if c.MedicationStreakDays <= 0 {
		c.MedicationStreakDays = DefaultMedicationStreakDays
	}
	return c
}

// Milestone 已达成的里程碑
type Milestone struct {
	Type       string                 `json:"type"`
	AchievedAt time.Time              `json:"achievedAt"`
	MetaData   map[string]interface{} `json:"metaData,omitempty"`
}

// HasMilestone 计划上是否已有该类型里程碑
func (p *TreatmentPlan) HasMilestone(milestoneType string) bool {
	for _, m := range p.Milestones {
		if m.Type == milestoneType {
			return true
		}
	}
	return false
}
