package evaluator

import (
	"fmt"
	"math"
	"time"

	"postcare/internal/models"
)

// MilestoneInput 里程碑评估输入
// Recent 按时间倒序，包含本次打卡，最多 MedicationStreakDays 条
type MilestoneInput struct {
	Config   models.MilestoneConfig
	Achieved []models.Milestone
	Current  *models.CheckIn
	First    *models.CheckIn // 计划开始后的第一次打卡
	Recent   []*models.CheckIn
	Now      time.Time
}

// EvaluateMilestones 返回本次新解锁的里程碑（已达成的不会重复返回）
func EvaluateMilestones(in MilestoneInput) []models.Milestone {
	unlocked := make([]models.Milestone, 0, 2)
	if in.Current == nil {
		return unlocked
	}
	cfg := in.Config.WithDefaults()

	if !achieved(in.Achieved, models.MilestonePainImprovement) && in.First != nil && in.First.PainLevel > 0 {
		original := in.First.PainLevel
		improvement := float64(original-in.Current.PainLevel) / float64(original) * 100
		if improvement >= float64(cfg.PainImprovementTarget) {
			unlocked = append(unlocked, models.Milestone{
				Type:       models.MilestonePainImprovement,
				AchievedAt: in.Now,
				MetaData: map[string]interface{}{
					"improvement":  roundHalfUp(improvement),
					"originalPain": original,
					"currentPain":  in.Current.PainLevel,
				},
			})
		}
	}

	if !achieved(in.Achieved, models.MilestoneMedicationStreak) && medicationStreak(in.Recent, cfg.MedicationStreakDays) {
		unlocked = append(unlocked, models.Milestone{
			Type:       models.MilestoneMedicationStreak,
			AchievedAt: in.Now,
			MetaData:   map[string]interface{}{"days": cfg.MedicationStreakDays},
		})
	}

	return unlocked
}

// MilestoneMessage 里程碑对应的会话系统消息
func MilestoneMessage(m models.Milestone) string {
	switch m.Type {
	case models.MilestonePainImprovement:
		return fmt.Sprintf("🎉 Milestone Unlocked: Pain reduced by %v%%!", m.MetaData["improvement"])
	case models.MilestoneMedicationStreak:
		return fmt.Sprintf("🔥 Milestone Unlocked: %v Day Medication Streak!", m.MetaData["days"])
	}
	return "Milestone Unlocked: " + m.Type
}

func achieved(milestones []models.Milestone, milestoneType string) bool {
	for _, m := range milestones {
		if m.Type == milestoneType {
			return true
		}
	}
	return false
}

func medicationStreak(recent []*models.CheckIn, days int) bool {
	if days <= 0 || len(recent) < days {
		return false
	}
	for _, c := range recent[:days] {
		if c == nil || !c.MedicationsTaken {
			return false
		}
	}
	return true
}

// roundHalfUp 四舍五入（.5 向上）
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
