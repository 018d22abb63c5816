package publisher

import (
	"context"
	"fmt"
	"time"

	"postcare/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookNotifier 把报警事件 POST 到外部值班/呼叫系统
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookNotifier 创建 Webhook 通知器
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

// webhookPayload 外部系统收到的消息体
type webhookPayload struct {
	Source string            `json:"source"`
	Event  models.AlertEvent `json:"event"`
}

// Notify 发送报警；非 2xx 视为失败
func (n *WebhookNotifier) Notify(ctx context.Context, evt models.AlertEvent) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(webhookPayload{Source: "postcare", Event: evt}).
		Post(n.url)
	if err != nil {
		n.logger.Error("Alert webhook call failed",
			zap.String("alert_id", evt.AlertID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to call alert webhook: %w", err)
	}

	if resp.IsError() {
		n.logger.Error("Alert webhook returned error",
			zap.String("alert_id", evt.AlertID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode())
	}

	n.logger.Debug("Alert webhook delivered",
		zap.String("alert_id", evt.AlertID),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}
