package publisher

import (
	"context"
	"fmt"

	rediscommon "postcare/common/redis"
	"postcare/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AlertPublisher 把报警事件写入 Redis Stream，由分发消费者异步投递
type AlertPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewAlertPublisher 创建报警事件发布器
func NewAlertPublisher(client *redis.Client, stream string, logger *zap.Logger) *AlertPublisher {
	return &AlertPublisher{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// PublishAlert 发布报警事件，返回 stream 消息 ID
func (p *AlertPublisher) PublishAlert(ctx context.Context, evt models.AlertEvent) (string, error) {
	id, err := rediscommon.PublishJSONToStream(ctx, p.client, p.stream, evt)
	if err != nil {
		return "", fmt.Errorf("failed to publish alert event: %w", err)
	}

	p.logger.Debug("Published alert event",
		zap.String("stream", p.stream),
		zap.String("message_id", id),
		zap.String("alert_id", evt.AlertID),
		zap.String("type", evt.Type),
	)
	return id, nil
}
