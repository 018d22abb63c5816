package repository

import (
	"context"

	"postcare/internal/models"
)

// UsersRepository 用户Repository接口（只读）
type UsersRepository interface {
	// 不存在返回 (nil, nil)
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// 医生名下（任一状态计划）的患者，按姓名排序、去重
	ListPatientsByDoctor(ctx context.Context, doctorID string) ([]*models.User, error)
}
