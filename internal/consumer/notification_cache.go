package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"postcare/internal/config"
	"postcare/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NotificationCache 医生端未读报警通知（Redis List，每位医生一个键）
// 新通知在表头；列表长度上限 MaxItems，整键 TTL 随每次写入刷新
type NotificationCache struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewNotificationCache 创建通知缓存
func NewNotificationCache(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *NotificationCache {
	return &NotificationCache{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (c *NotificationCache) key(doctorID string) string {
	return c.config.Notification.KeyPrefix + doctorID + ":notifications"
}

// Push 写入一条通知
func (c *NotificationCache) Push(ctx context.Context, evt models.AlertEvent) error {
	if evt.DoctorID == "" {
		return fmt.Errorf("doctor_id is required")
	}

	jsonData, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	key := c.key(evt.DoctorID)
	_, err = c.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, jsonData)
		if c.config.Notification.MaxItems > 0 {
			pipe.LTrim(ctx, key, 0, c.config.Notification.MaxItems-1)
		}
		if c.config.Notification.TTL > 0 {
			pipe.Expire(ctx, key, c.config.Notification.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}

	c.logger.Debug("Pushed doctor notification",
		zap.String("doctor_id", evt.DoctorID),
		zap.String("alert_id", evt.AlertID),
		zap.String("key", key),
	)
	return nil
}

// List 读取最近 limit 条通知（新在前）；limit <= 0 读取全部
func (c *NotificationCache) List(ctx context.Context, doctorID string, limit int64) ([]models.AlertEvent, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = limit - 1
	}

	vals, err := c.redisClient.LRange(ctx, c.key(doctorID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	out := make([]models.AlertEvent, 0, len(vals))
	for _, v := range vals {
		var evt models.AlertEvent
		if err := json.Unmarshal([]byte(v), &evt); err != nil {
			c.logger.Warn("Skipping malformed notification",
				zap.String("doctor_id", doctorID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, evt)
	}
	return out, nil
}

// Count 未读通知数
func (c *NotificationCache) Count(ctx context.Context, doctorID string) (int64, error) {
	n, err := c.redisClient.LLen(ctx, c.key(doctorID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

// Clear 清空通知（医生已读）
func (c *NotificationCache) Clear(ctx context.Context, doctorID string) error {
	if err := c.redisClient.Del(ctx, c.key(doctorID)).Err(); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}
