package evaluator

import (
	"time"

	"postcare/internal/models"
)

// 漏打卡判定阈值（小时，超过预期间隔的时长）
const (
	MissedWarningLateHours  = 24
	MissedCriticalLateHours = 48
)

// ExpectedIntervalHours 打卡频率对应的预期间隔，未知频率按每日处理
func ExpectedIntervalHours(freq models.CheckInFrequency) float64 {
	switch freq {
	case models.FrequencyAlternate:
		return 48
	case models.FrequencyWeekly:
		return 168
	}
	return 24
}

// ClassifyMissedCheckIn 根据最近活动时间判断漏打卡级别
// 返回空字符串表示未逾期
func ClassifyMissedCheckIn(lastActivity, now time.Time, freq models.CheckInFrequency) string {
	hoursSince := now.Sub(lastActivity).Hours()
	late := hoursSince - ExpectedIntervalHours(freq)
	switch {
	case late >= MissedCriticalLateHours:
		return models.AlertLevelCritical
	case late >= MissedWarningLateHours:
		return models.AlertLevelWarning
	}
	return ""
}

// MissedCheckInMessage 漏打卡报警文案（不含患者姓名）
func MissedCheckInMessage(level string) string {
	if level == models.AlertLevelCritical {
		return "Missed check-in (Critical). Patient unresponsive for > 48h past due."
	}
	return "Missed check-in (Warning). Patient late by > 24h."
}

// MissedAlertAction 已有漏打卡报警时的处理方式
type MissedAlertAction int

const (
	MissedAlertCreate MissedAlertAction = iota
	MissedAlertSkip
	MissedAlertEscalate // 关闭旧的 WARNING，新建 CRITICAL
)

// DecideMissedAlert 根据已有 ACTIVE 报警级别决定是否新建
// existingLevel 为空表示没有 ACTIVE 报警
func DecideMissedAlert(existingLevel, newLevel string) MissedAlertAction {
	switch {
	case existingLevel == "":
		return MissedAlertCreate
	case existingLevel == newLevel:
		return MissedAlertSkip
	case existingLevel == models.AlertLevelWarning && newLevel == models.AlertLevelCritical:
		return MissedAlertEscalate
	}
	return MissedAlertSkip
}
