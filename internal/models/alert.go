package models

import (
	"time"
)

// 报警类型
const (
	AlertTypeRiskHigh      = "RISK_HIGH"
	AlertTypeMissedCheckIn = "MISSED_CHECKIN"
)

// 报警状态
const (
	AlertStatusActive       = "ACTIVE"
	AlertStatusAcknowledged = "ACKNOWLEDGED"
	AlertStatusResolved     = "RESOLVED"
)

// 报警级别
const (
	AlertLevelWarning  = "WARNING"
	AlertLevelCritical = "CRITICAL"
)

// Alert 报警（对应 alerts 表）
type Alert struct {
	AlertID   string    `json:"alert_id" db:"alert_id"`
	PatientID string    `json:"patient_id" db:"patient_id"`
	DoctorID  *string   `json:"doctor_id,omitempty" db:"doctor_id"`
	PlanID    *string   `json:"plan_id,omitempty" db:"plan_id"`
	Type      string    `json:"type" db:"type"`   // RISK_HIGH, MISSED_CHECKIN
	Level     string    `json:"level" db:"level"` // WARNING, CRITICAL
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	RiskScore *int      `json:"risk_score,omitempty" db:"risk_score"`
	Status    string    `json:"status" db:"status"` // ACTIVE, ACKNOWLEDGED, RESOLVED
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// 列表查询时 JOIN users 填充
	PatientName string `json:"patient_name,omitempty" db:"-"`
}

// AlertEvent 报警事件（Redis Streams 消息体）
type AlertEvent struct {
	AlertID     string    `json:"alert_id"`
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"`
	PlanID      string    `json:"plan_id,omitempty"`
	Type        string    `json:"type"`
	Level       string    `json:"level"`
	Message     string    `json:"message"`
	RiskScore   *int      `json:"risk_score,omitempty"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// NewAlertEvent 由报警记录构建事件
func NewAlertEvent(a *Alert) AlertEvent {
	evt := AlertEvent{
		AlertID:     a.AlertID,
		PatientID:   a.PatientID,
		Type:        a.Type,
		Level:       a.Level,
		Message:     a.Message,
		RiskScore:   a.RiskScore,
		TriggeredAt: a.CreatedAt,
	}
	if a.DoctorID != nil {
		evt.DoctorID = *a.DoctorID
	}
	if a.PlanID != nil {
		evt.PlanID = *a.PlanID
	}
	return evt
}
