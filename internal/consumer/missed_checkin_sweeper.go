package consumer

import (
	"context"
	"fmt"
	"time"

	"postcare/internal/config"
	"postcare/internal/evaluator"
	"postcare/internal/metrics"
	"postcare/internal/models"
	"postcare/internal/repository"

	"go.uber.org/zap"
)

// MissedCheckInAlerter 漏打卡报警处理（去重/升级由实现负责）
type MissedCheckInAlerter interface {
	RaiseMissedCheckIn(ctx context.Context, plan *models.TreatmentPlan, level string) error
}

// MissedCheckInSweeper 漏打卡巡检（轮询所有 ACTIVE 治疗计划）
type MissedCheckInSweeper struct {
	config   *config.Config
	plans    repository.TreatmentPlansRepository
	checkIns repository.CheckInsRepository
	alerter  MissedCheckInAlerter
	logger   *zap.Logger
}

// NewMissedCheckInSweeper 创建漏打卡巡检
func NewMissedCheckInSweeper(
	cfg *config.Config,
	plans repository.TreatmentPlansRepository,
	checkIns repository.CheckInsRepository,
	alerter MissedCheckInAlerter,
	logger *zap.Logger,
) *MissedCheckInSweeper {
	return &MissedCheckInSweeper{
		config:   cfg,
		plans:    plans,
		checkIns: checkIns,
		alerter:  alerter,
		logger:   logger,
	}
}

// Start 启动巡检：InitialDelay 后执行一次，之后每 Interval 执行一次
func (s *MissedCheckInSweeper) Start(ctx context.Context) error {
	s.logger.Info("Missed check-in sweeper started",
		zap.Duration("interval", s.config.Sweep.Interval),
		zap.Duration("initial_delay", s.config.Sweep.InitialDelay),
	)

	initial := time.NewTimer(s.config.Sweep.InitialDelay)
	defer initial.Stop()

	select {
	case <-ctx.Done():
		s.logger.Info("Missed check-in sweeper stopped")
		return nil
	case <-initial.C:
		s.runLogged(ctx)
	}

	ticker := time.NewTicker(s.config.Sweep.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Missed check-in sweeper stopped")
			return nil
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *MissedCheckInSweeper) runLogged(ctx context.Context) {
	start := time.Now()
	raised, err := s.RunOnce(ctx, start)
	metrics.RecordSweep(err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("Missed check-in sweep failed", zap.Error(err))
		// 继续执行，不中断
		return
	}
	s.logger.Info("Missed check-in sweep finished",
		zap.Int("alerts_raised", raised),
		zap.Duration("duration", time.Since(start)),
	)
}

// RunOnce 以 now 为当前时间执行一次巡检，返回提交给 alerter 的计划数
// 单个计划出错只记录日志
func (s *MissedCheckInSweeper) RunOnce(ctx context.Context, now time.Time) (int, error) {
	plans, err := s.plans.ListPlans(ctx, repository.PlanFilters{Status: models.PlanStatusActive})
	if err != nil {
		return 0, fmt.Errorf("failed to list active plans: %w", err)
	}

	raised := 0
	for _, plan := range plans {
		select {
		case <-ctx.Done():
			return raised, ctx.Err()
		default:
		}

		lastActivity := plan.StartDate
		last, err := s.checkIns.GetLastCheckInTime(ctx, plan.PatientID)
		if err != nil {
			s.logger.Error("Failed to get last check-in time",
				zap.String("plan_id", plan.PlanID),
				zap.String("patient_id", plan.PatientID),
				zap.Error(err),
			)
			continue
		}
		if last != nil {
			lastActivity = *last
		}

		level := evaluator.ClassifyMissedCheckIn(lastActivity, now, plan.CheckInFrequency)
		if level == "" {
			continue
		}

		if err := s.alerter.RaiseMissedCheckIn(ctx, plan, level); err != nil {
			s.logger.Error("Failed to raise missed check-in alert",
				zap.String("plan_id", plan.PlanID),
				zap.String("patient_id", plan.PatientID),
				zap.String("level", level),
				zap.Error(err),
			)
			continue
		}
		raised++
	}
	return raised, nil
}
