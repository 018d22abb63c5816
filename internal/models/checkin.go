package models

import (
	"time"
)

// CheckIn 每日打卡（对应 daily_checkins 表）
// 风险字段在创建时写入一次，之后不再重新计算
type CheckIn struct {
	CheckInID        string    `json:"checkin_id" db:"checkin_id"`
	PatientID        string    `json:"patient_id" db:"patient_id"`
	CheckInDate      time.Time `json:"checkin_date" db:"checkin_date"` // 本地日历日（去掉时分秒）
	PainLevel        int       `json:"pain_level" db:"pain_level"`
	Temperature      float64   `json:"temperature" db:"temperature"` // 华氏度
	MedicationsTaken bool      `json:"medications_taken" db:"medications_taken"`
	Symptoms         []string  `json:"symptoms" db:"symptoms"` // JSONB
	Notes            *string   `json:"notes,omitempty" db:"notes"`
	RiskScore        int       `json:"risk_score" db:"risk_score"`
	RiskLevel        RiskLevel `json:"risk_level" db:"risk_level"`
	RiskReasons      []string  `json:"risk_reasons" db:"risk_reasons"` // JSONB
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Observation 转换为风险评估输入
func (c *CheckIn) Observation() Observation {
	return Observation{
		PainLevel:        c.PainLevel,
		Temperature:      c.Temperature,
		MedicationsTaken: c.MedicationsTaken,
		Symptoms:         c.Symptoms,
	}
}

// PatientStatus 医生看板：每位患者的最近一次打卡
type PatientStatus struct {
	PatientID     string   `json:"patient_id"`
	PatientName   string   `json:"patient_name"`
	PatientEmail  *string  `json:"patient_email,omitempty"`
	LatestCheckIn *CheckIn `json:"latest_checkin"`
}
