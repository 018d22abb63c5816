package models

// RuleID 风险规则标识（固定集合）
type RuleID string

const (
	RulePainLevel        RuleID = "PAIN_LEVEL"
	RulePainTrend        RuleID = "PAIN_TREND"
	RuleFever            RuleID = "FEVER"
	RuleMedication       RuleID = "MEDICATION"
	RuleSymptomsSevere   RuleID = "SYMPTOMS_SEVERE"
	RuleSymptomsMultiple RuleID = "SYMPTOMS_MULTIPLE"
)

// AllRuleIDs 按评估顺序返回全部规则（每次返回新切片）
func AllRuleIDs() []RuleID {
	return []RuleID{
		RulePainLevel,
		RulePainTrend,
		RuleFever,
		RuleMedication,
		RuleSymptomsSevere,
		RuleSymptomsMultiple,
	}
}

// Valid 是否为已知规则
func (r RuleID) Valid() bool {
	switch r {
	case RulePainLevel, RulePainTrend, RuleFever, RuleMedication, RuleSymptomsSevere, RuleSymptomsMultiple:
		return true
	}
	return false
}

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskLevelNormal   RiskLevel = "NORMAL"
	RiskLevelWarning  RiskLevel = "WARNING"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// 默认阈值
const (
	DefaultFeverThreshold    = 100.4
	DefaultPainThreshold     = 7
	DefaultMedicationPenalty = 10
)

// RiskConfig 治疗计划上的风险配置（JSONB: treatment_plans.risk_config）
// 字段为 nil 表示未设置，取默认值。
// EnabledRules 为 nil 表示全部启用；非 nil 的空列表表示全部禁用。
type RiskConfig struct {
	FeverThreshold    *float64 `json:"feverThreshold,omitempty"`
	PainThreshold     *int     `json:"painThreshold,omitempty"`
	MedicationPenalty *int     `json:"medicationPenalty,omitempty"`
	EnabledRules      []RuleID `json:"enabledRules"`
}

// DefaultRiskConfig 返回一份完整的默认配置
func DefaultRiskConfig() RiskConfig {
	fever := DefaultFeverThreshold
	pain := DefaultPainThreshold
	penalty := DefaultMedicationPenalty
	return RiskConfig{
		FeverThreshold:    &fever,
		PainThreshold:     &pain,
		MedicationPenalty: &penalty,
		EnabledRules:      AllRuleIDs(),
	}
}

// Observation 一次每日打卡的自报数据
type Observation struct {
	PainLevel        int      `json:"painLevel"`
	Temperature      float64  `json:"temperature"`
	MedicationsTaken bool     `json:"medicationsTaken"`
	Symptoms         []string `json:"symptoms"`
}

// RiskResult 风险评估结果
type RiskResult struct {
	Score   int       `json:"score"`
	Level   RiskLevel `json:"level"`
	Reasons []string  `json:"reasons"`
}
