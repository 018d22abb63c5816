package evaluator

import (
	"fmt"
	"sync"
	"testing"

	"postcare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietObservation() models.Observation {
	return models.Observation{
		PainLevel:        2,
		Temperature:      98.6,
		MedicationsTaken: true,
		Symptoms:         []string{},
	}
}

// worstObservation 在默认配置下触发全部六条规则
func worstObservation() models.Observation {
	return models.Observation{
		PainLevel:        9,
		Temperature:      103.2,
		MedicationsTaken: false,
		Symptoms:         []string{"Chest pain", "bleeding", "nausea"},
	}
}

func TestCalculateRisk_NoRulesTriggered(t *testing.T) {
	result := CalculateRisk(quietObservation(), nil, nil)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, models.RiskLevelNormal, result.Level)
	assert.NotNil(t, result.Reasons)
	assert.Empty(t, result.Reasons)
}

func TestCalculateRisk_ScenarioA_HighPainOnly(t *testing.T) {
	current := models.Observation{PainLevel: 8, Temperature: 98.6, MedicationsTaken: true, Symptoms: []string{}}

	result := CalculateRisk(current, nil, nil)

	assert.Equal(t, 15, result.Score)
	assert.Equal(t, models.RiskLevelNormal, result.Level)
	assert.Equal(t, []string{"High Pain Level (>= 7)"}, result.Reasons)
}

func TestCalculateRisk_ScenarioB_Critical(t *testing.T) {
	current := models.Observation{
		PainLevel:        5,
		Temperature:      101.0,
		MedicationsTaken: false,
		Symptoms:         []string{"fever", "chest pain", "nausea"},
	}
	previous := &models.Observation{PainLevel: 3}

	result := CalculateRisk(current, previous, nil)

	assert.Equal(t, 85, result.Score)
	assert.Equal(t, models.RiskLevelCritical, result.Level)
	assert.Equal(t, []string{
		"Pain increased vs yesterday",
		"Fever detected (>= 100.4)",
		"Missed Medication",
		"Severe Symptoms detected",
		"Multiple Symptoms reported",
	}, result.Reasons)
}

func TestCalculateRisk_ScenarioC_MixedCaseSubstring(t *testing.T) {
	current := quietObservation()
	current.Symptoms = []string{"Mild Chest Pain"}

	result := CalculateRisk(current, nil, nil)

	assert.Equal(t, 30, result.Score)
	assert.Equal(t, []string{"Severe Symptoms detected"}, result.Reasons)
}

func TestCalculateRisk_ScenarioD_OnlyFeverEnabled(t *testing.T) {
	cfg := &models.RiskConfig{EnabledRules: []models.RuleID{models.RuleFever}}

	result := CalculateRisk(worstObservation(), &models.Observation{PainLevel: 1}, cfg)

	assert.Equal(t, 25, result.Score)
	assert.Equal(t, models.RiskLevelNormal, result.Level)
	assert.Equal(t, []string{"Fever detected (>= 100.4)"}, result.Reasons)
}

func TestCalculateRisk_EmptyEnabledRulesDisablesAll(t *testing.T) {
	cfg := &models.RiskConfig{EnabledRules: []models.RuleID{}}

	result := CalculateRisk(worstObservation(), &models.Observation{PainLevel: 1}, cfg)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, models.RiskLevelNormal, result.Level)
	assert.Empty(t, result.Reasons)
}

func TestCalculateRisk_ClampedAt100(t *testing.T) {
	// 15 + 10 + 25 + 10 + 30 + 10 = 100；加大漏服惩罚后超过 100
	penalty := 40
	cfg := &models.RiskConfig{MedicationPenalty: &penalty}

	result := CalculateRisk(worstObservation(), &models.Observation{PainLevel: 1}, cfg)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, models.RiskLevelCritical, result.Level)
	assert.Len(t, result.Reasons, 6)
}

func TestCalculateRisk_AllRulesAtDefaults(t *testing.T) {
	result := CalculateRisk(worstObservation(), &models.Observation{PainLevel: 1}, nil)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, []string{
		"High Pain Level (>= 7)",
		"Pain increased vs yesterday",
		"Fever detected (>= 100.4)",
		"Missed Medication",
		"Severe Symptoms detected",
		"Multiple Symptoms reported",
	}, result.Reasons)
}

func TestCalculateRisk_NilConfigEqualsExplicitDefaults(t *testing.T) {
	defaults := models.DefaultRiskConfig()
	observations := []models.Observation{
		quietObservation(),
		worstObservation(),
		{PainLevel: 7, Temperature: 100.4, MedicationsTaken: true, Symptoms: []string{"a", "b", "c"}},
		{PainLevel: 6, Temperature: 100.3, MedicationsTaken: false},
	}
	previous := []*models.Observation{nil, {PainLevel: 5}}

	for i, obs := range observations {
		for _, prev := range previous {
			t.Run(fmt.Sprintf("obs-%d-prev-%v", i, prev != nil), func(t *testing.T) {
				assert.Equal(t, CalculateRisk(obs, prev, &defaults), CalculateRisk(obs, prev, nil))
				assert.Equal(t, CalculateRisk(obs, prev, &models.RiskConfig{}), CalculateRisk(obs, prev, nil))
			})
		}
	}
}

func TestCalculateRisk_PartialConfigFallsBackPerField(t *testing.T) {
	fever := 101.5
	cfg := &models.RiskConfig{FeverThreshold: &fever}

	current := models.Observation{PainLevel: 7, Temperature: 101.0, MedicationsTaken: false}
	result := CalculateRisk(current, nil, cfg)

	// 发热阈值提高后 101.0 不再触发；疼痛阈值与漏服惩罚仍为默认
	assert.Equal(t, 25, result.Score)
	assert.Equal(t, []string{"High Pain Level (>= 7)", "Missed Medication"}, result.Reasons)

	current.Temperature = 101.5
	result = CalculateRisk(current, nil, cfg)
	assert.Equal(t, 50, result.Score)
	assert.Contains(t, result.Reasons, "Fever detected (>= 101.5)")
}

func TestCalculateRisk_CustomThresholdsInReasons(t *testing.T) {
	fever := 101.0
	pain := 5
	cfg := &models.RiskConfig{FeverThreshold: &fever, PainThreshold: &pain}

	result := CalculateRisk(models.Observation{PainLevel: 5, Temperature: 101, MedicationsTaken: true}, nil, cfg)

	assert.Equal(t, []string{"High Pain Level (>= 5)", "Fever detected (>= 101)"}, result.Reasons)
	assert.Equal(t, 40, result.Score)
	assert.Equal(t, models.RiskLevelWarning, result.Level)
}

func TestCalculateRisk_PainTrend(t *testing.T) {
	current := quietObservation()
	current.PainLevel = 4

	tests := []struct {
		name     string
		previous *models.Observation
		want     int
	}{
		{"first check-in", nil, 0},
		{"pain increased", &models.Observation{PainLevel: 3}, 10},
		{"pain unchanged", &models.Observation{PainLevel: 4}, 0},
		{"pain decreased", &models.Observation{PainLevel: 6}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateRisk(current, tt.previous, nil).Score)
		})
	}
}

func TestCalculateRisk_ThresholdsAreInclusive(t *testing.T) {
	obs := quietObservation()
	obs.PainLevel = 7
	obs.Temperature = 100.4

	result := CalculateRisk(obs, nil, nil)

	assert.Equal(t, 40, result.Score)
	assert.Equal(t, []string{"High Pain Level (>= 7)", "Fever detected (>= 100.4)"}, result.Reasons)
}

func TestCalculateRisk_MultipleSymptomsCount(t *testing.T) {
	obs := quietObservation()
	obs.Symptoms = []string{"nausea", "headache"}
	assert.Equal(t, 0, CalculateRisk(obs, nil, nil).Score)

	obs.Symptoms = append(obs.Symptoms, "fatigue")
	assert.Equal(t, 10, CalculateRisk(obs, nil, nil).Score)
}

func TestCalculateRisk_MinimalInputDoesNotPanic(t *testing.T) {
	// 零值观测：疼痛 0、体温 0、未服药、无症状
	var obs models.Observation

	require.NotPanics(t, func() {
		result := CalculateRisk(obs, nil, nil)
		assert.Equal(t, 10, result.Score)
		assert.Equal(t, []string{"Missed Medication"}, result.Reasons)
	})

	obs.MedicationsTaken = true
	result := CalculateRisk(obs, &models.Observation{}, &models.RiskConfig{})
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, models.RiskLevelNormal, result.Level)
}

func TestCalculateRisk_OutOfRangeInputsAreNotValidated(t *testing.T) {
	obs := quietObservation()
	obs.PainLevel = 42

	result := CalculateRisk(obs, nil, nil)
	assert.Equal(t, 15, result.Score)
}

func TestCalculateRisk_UnknownRuleIDsIgnored(t *testing.T) {
	cfg := &models.RiskConfig{EnabledRules: []models.RuleID{"NOT_A_RULE", models.RuleMedication}}

	result := CalculateRisk(worstObservation(), nil, cfg)
	assert.Equal(t, 10, result.Score)
	assert.Equal(t, []string{"Missed Medication"}, result.Reasons)
}

func TestCalculateRisk_Monotonic(t *testing.T) {
	base := quietObservation()
	baseScore := CalculateRisk(base, nil, nil).Score

	mutations := map[string]func(o *models.Observation){
		"pain above threshold": func(o *models.Observation) { o.PainLevel = 9 },
		"fever":                func(o *models.Observation) { o.Temperature = 102 },
		"missed medication":    func(o *models.Observation) { o.MedicationsTaken = false },
		"severe symptom":       func(o *models.Observation) { o.Symptoms = []string{"bleeding"} },
		"many symptoms":        func(o *models.Observation) { o.Symptoms = []string{"a", "b", "c", "d"} },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			obs := quietObservation()
			mutate(&obs)
			assert.GreaterOrEqual(t, CalculateRisk(obs, nil, nil).Score, baseScore)
		})
	}
}

func TestCalculateRisk_ScoreAlwaysWithinBounds(t *testing.T) {
	penalty := 500
	cfgs := []*models.RiskConfig{nil, {MedicationPenalty: &penalty}, {EnabledRules: []models.RuleID{}}}
	for pain := 0; pain <= 12; pain++ {
		for _, temp := range []float64{95, 100.4, 104} {
			for _, taken := range []bool{true, false} {
				for _, cfg := range cfgs {
					obs := models.Observation{PainLevel: pain, Temperature: temp, MedicationsTaken: taken, Symptoms: []string{"bleeding", "x", "y"}}
					score := CalculateRisk(obs, &models.Observation{PainLevel: 5}, cfg).Score
					assert.GreaterOrEqual(t, score, 0)
					assert.LessOrEqual(t, score, 100)
				}
			}
		}
	}
}

func TestLevelForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  models.RiskLevel
	}{
		{0, models.RiskLevelNormal},
		{30, models.RiskLevelNormal},
		{31, models.RiskLevelWarning},
		{60, models.RiskLevelWarning},
		{61, models.RiskLevelCritical},
		{100, models.RiskLevelCritical},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("score-%d", tt.score), func(t *testing.T) {
			assert.Equal(t, tt.want, LevelForScore(tt.score))
		})
	}
}

func TestCalculateRisk_BoundaryScoresThroughRules(t *testing.T) {
	// 30: 严重症状 → NORMAL；31: 严重症状 + 漏服(1) → WARNING
	obs := quietObservation()
	obs.Symptoms = []string{"breathlessness"}
	assert.Equal(t, models.RiskLevelNormal, CalculateRisk(obs, nil, nil).Level)

	penalty := 1
	obs.MedicationsTaken = false
	result := CalculateRisk(obs, nil, &models.RiskConfig{MedicationPenalty: &penalty})
	assert.Equal(t, 31, result.Score)
	assert.Equal(t, models.RiskLevelWarning, result.Level)

	// 60: 症状 30 + 发热 25 + 漏服 5 → WARNING；61 → CRITICAL
	obs.Temperature = 101
	penalty = 5
	result = CalculateRisk(obs, nil, &models.RiskConfig{MedicationPenalty: &penalty})
	assert.Equal(t, 60, result.Score)
	assert.Equal(t, models.RiskLevelWarning, result.Level)

	penalty = 6
	result = CalculateRisk(obs, nil, &models.RiskConfig{MedicationPenalty: &penalty})
	assert.Equal(t, 61, result.Score)
	assert.Equal(t, models.RiskLevelCritical, result.Level)
}

func TestCalculateRisk_ConcurrentCallsShareNoState(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var cfg *models.RiskConfig
			if i%2 == 0 {
				cfg = &models.RiskConfig{EnabledRules: []models.RuleID{}}
			}
			result := CalculateRisk(worstObservation(), nil, cfg)
			if cfg != nil {
				assert.Equal(t, 0, result.Score)
			} else {
				assert.Equal(t, 90, result.Score)
			}
		}(i)
	}
	wg.Wait()

	// 默认配置不会被调用方修改
	d := models.DefaultRiskConfig()
	d.EnabledRules[0] = "MUTATED"
	assert.Equal(t, models.RulePainLevel, models.DefaultRiskConfig().EnabledRules[0])
}

func TestEffectiveRiskConfig(t *testing.T) {
	eff := EffectiveRiskConfig(nil)
	require.NotNil(t, eff.FeverThreshold)
	assert.Equal(t, 100.4, *eff.FeverThreshold)
	assert.Equal(t, 7, *eff.PainThreshold)
	assert.Equal(t, 10, *eff.MedicationPenalty)
	assert.Equal(t, models.AllRuleIDs(), eff.EnabledRules)

	pain := 6
	eff = EffectiveRiskConfig(&models.RiskConfig{PainThreshold: &pain, EnabledRules: []models.RuleID{models.RuleSymptomsMultiple, models.RuleFever}})
	assert.Equal(t, 6, *eff.PainThreshold)
	// 按规则表顺序输出
	assert.Equal(t, []models.RuleID{models.RuleFever, models.RuleSymptomsMultiple}, eff.EnabledRules)
}
