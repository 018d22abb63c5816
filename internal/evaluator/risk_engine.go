package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"postcare/internal/models"
)

// 风险等级下限（含）
const (
	WarningScoreFloor  = 31
	CriticalScoreFloor = 61
	maxRiskScore       = 100
)

// severeSymptomKeywords 严重症状关键词（小写，子串匹配）
var severeSymptomKeywords = [...]string{"chest pain", "bleeding", "breathlessness"}

// riskSettings 合并默认值之后的配置
type riskSettings struct {
	feverThreshold    float64
	painThreshold     int
	medicationPenalty int
	enabled           map[models.RuleID]bool
}

// riskRule 规则表中的一项
// check 返回分值增量与原因；ok=false 表示未触发
type riskRule struct {
	id    models.RuleID
	check func(current models.Observation, previous *models.Observation, s riskSettings) (delta int, reason string, ok bool)
}

// riskRules 固定的规则表，顺序即 reasons 的顺序
var riskRules = [...]riskRule{
	{
		id: models.RulePainLevel,
		check: func(cur models.Observation, _ *models.Observation, s riskSettings) (int, string, bool) {
			if cur.PainLevel >= s.painThreshold {
				return 15, fmt.Sprintf("High Pain Level (>= %d)", s.painThreshold), true
			}
			return 0, "", false
		},
	},
	{
		id: models.RulePainTrend,
		check: func(cur models.Observation, prev *models.Observation, _ riskSettings) (int, string, bool) {
			if prev != nil && cur.PainLevel > prev.PainLevel {
				return 10, "Pain increased vs yesterday", true
			}
			return 0, "", false
		},
	},
	{
		id: models.RuleFever,
		check: func(cur models.Observation, _ *models.Observation, s riskSettings) (int, string, bool) {
			if cur.Temperature >= s.feverThreshold {
				return 25, "Fever detected (>= " + formatThreshold(s.feverThreshold) + ")", true
			}
			return 0, "", false
		},
	},
	{
		id: models.RuleMedication,
		check: func(cur models.Observation, _ *models.Observation, s riskSettings) (int, string, bool) {
			if !cur.MedicationsTaken {
				return s.medicationPenalty, "Missed Medication", true
			}
			return 0, "", false
		},
	},
	{
		id: models.RuleSymptomsSevere,
		check: func(cur models.Observation, _ *models.Observation, _ riskSettings) (int, string, bool) {
			if HasSevereSymptom(cur.Symptoms) {
				return 30, "Severe Symptoms detected", true
			}
			return 0, "", false
		},
	},
	{
		id: models.RuleSymptomsMultiple,
		check: func(cur models.Observation, _ *models.Observation, _ riskSettings) (int, string, bool) {
			if len(cur.Symptoms) >= 3 {
				return 10, "Multiple Symptoms reported", true
			}
			return 0, "", false
		},
	},
}

// CalculateRisk 计算一次打卡的风险分数、等级和原因
// previous 为 nil 表示首次打卡；cfg 为 nil 或部分字段为空时使用默认值。
// 纯函数：不做输入校验，不访问外部资源，可并发调用。
func CalculateRisk(current models.Observation, previous *models.Observation, cfg *models.RiskConfig) models.RiskResult {
	settings := resolveSettings(cfg)

	score := 0
	reasons := make([]string, 0, len(riskRules))
	for _, rule := range riskRules {
		if !settings.enabled[rule.id] {
			continue
		}
		delta, reason, ok := rule.check(current, previous, settings)
		if !ok {
			continue
		}
		score += delta
		reasons = append(reasons, reason)
	}

	if score > maxRiskScore {
		score = maxRiskScore
	}

	return models.RiskResult{
		Score:   score,
		Level:   LevelForScore(score),
		Reasons: reasons,
	}
}

// LevelForScore 分数 → 等级
func LevelForScore(score int) models.RiskLevel {
	switch {
	case score >= CriticalScoreFloor:
		return models.RiskLevelCritical
	case score >= WarningScoreFloor:
		return models.RiskLevelWarning
	default:
		return models.RiskLevelNormal
	}
}

// HasSevereSymptom 任一症状包含严重关键词（忽略大小写）
func HasSevereSymptom(symptoms []string) bool {
	for _, s := range symptoms {
		lower := strings.ToLower(s)
		for _, keyword := range severeSymptomKeywords {
			if strings.Contains(lower, keyword) {
				return true
			}
		}
	}
	return false
}

// EffectiveRiskConfig 返回合并默认值后的完整配置（用于展示）
func EffectiveRiskConfig(cfg *models.RiskConfig) models.RiskConfig {
	s := resolveSettings(cfg)
	out := models.RiskConfig{
		FeverThreshold:    &s.feverThreshold,
		PainThreshold:     &s.painThreshold,
		MedicationPenalty: &s.medicationPenalty,
		EnabledRules:      make([]models.RuleID, 0, len(riskRules)),
	}
	for _, rule := range riskRules {
		if s.enabled[rule.id] {
			out.EnabledRules = append(out.EnabledRules, rule.id)
		}
	}
	return out
}

func resolveSettings(cfg *models.RiskConfig) riskSettings {
	s := riskSettings{
		feverThreshold:    models.DefaultFeverThreshold,
		painThreshold:     models.DefaultPainThreshold,
		medicationPenalty: models.DefaultMedicationPenalty,
		enabled:           make(map[models.RuleID]bool, len(riskRules)),
	}

	if cfg == nil || cfg.EnabledRules == nil {
		for _, rule := range riskRules {
			s.enabled[rule.id] = true
		}
	} else {
		for _, id := range cfg.EnabledRules {
			s.enabled[id] = true
		}
	}

	if cfg == nil {
		return s
	}
	if cfg.FeverThreshold != nil {
		s.feverThreshold = *cfg.FeverThreshold
	}
	if cfg.PainThreshold != nil {
		s.painThreshold = *cfg.PainThreshold
	}
	if cfg.MedicationPenalty != nil {
		s.medicationPenalty = *cfg.MedicationPenalty
	}
	return s
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
