package repository

import (
	"context"
	"time"

	"postcare/internal/models"
)

// CheckInsRepository 每日打卡Repository接口
// 查询"可能不存在"的记录时返回 (nil, nil)
type CheckInsRepository interface {
	// 创建打卡；唯一索引冲突返回 ErrDuplicateCheckIn
	CreateCheckIn(ctx context.Context, checkIn *models.CheckIn) error

	// [start, end] 内的打卡（用于"今天是否已打卡"）
	FindCheckInInRange(ctx context.Context, patientID string, start, end time.Time) (*models.CheckIn, error)

	// before 之前最近的一次打卡（用于疼痛趋势）
	FindPreviousCheckIn(ctx context.Context, patientID string, before time.Time) (*models.CheckIn, error)

	// since 之后最早的一次打卡（用于疼痛改善里程碑）
	FindFirstCheckInSince(ctx context.Context, patientID string, since time.Time) (*models.CheckIn, error)

	// 最近 limit 条打卡，按时间倒序
	ListRecentCheckIns(ctx context.Context, patientID string, limit int) ([]*models.CheckIn, error)

	// 患者全部打卡，按时间倒序
	ListCheckInsByPatient(ctx context.Context, patientID string) ([]*models.CheckIn, error)

	// 每位患者最近一次打卡（医生看板）
	ListLatestCheckInPerPatient(ctx context.Context) ([]*models.PatientStatus, error)

	// 最近一次打卡时间；没有打卡返回 nil
	GetLastCheckInTime(ctx context.Context, patientID string) (*time.Time, error)
}
