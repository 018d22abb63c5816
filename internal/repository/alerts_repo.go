package repository

import (
	"context"

	"postcare/internal/models"
)

// AlertsRepository 报警Repository接口
type AlertsRepository interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error

	// 不存在返回 (nil, nil)
	GetAlert(ctx context.Context, alertID string) (*models.Alert, error)

	// 患者某类型最近一条 ACTIVE 报警（用于去重/升级）；不存在返回 (nil, nil)
	FindActiveAlert(ctx context.Context, patientID, alertType string) (*models.Alert, error)

	// 将患者某类型全部 ACTIVE 报警置为 RESOLVED，返回处理条数
	ResolveActiveAlerts(ctx context.Context, patientID, alertType string) (int64, error)

	// 更新状态；markRead 为 true 时同时置 is_read
	UpdateAlertStatus(ctx context.Context, alertID, status string, markRead bool) error

	// 医生的报警列表（最新在前，附带患者姓名）
	ListAlertsByDoctor(ctx context.Context, doctorID string, filters AlertFilters) ([]*models.Alert, error)
}

// AlertFilters 报警过滤条件
type AlertFilters struct {
	Status string
	Type   string
	Unread *bool
	Limit  int // <=0 不限制
}
