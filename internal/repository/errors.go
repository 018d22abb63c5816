package repository

import "errors"

var (
	// ErrNotFound 更新时目标记录不存在
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateCheckIn 同一患者同一天重复打卡（唯一索引冲突）
	ErrDuplicateCheckIn = errors.New("check-in already exists for this date")
)
