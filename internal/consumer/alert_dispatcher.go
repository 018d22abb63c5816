package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rediscommon "postcare/common/redis"
	"postcare/internal/config"
	"postcare/internal/metrics"
	"postcare/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// MQTTPublisher MQTT 发布接口（common/mqtt.Client 实现）
type MQTTPublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	QoS() byte
}

// WebhookSender 外部 Webhook 接口（publisher.WebhookNotifier 实现）
type WebhookSender interface {
	Notify(ctx context.Context, evt models.AlertEvent) error
}

// AlertDispatcher 报警分发消费者
// 以消费者组读取报警 Stream：写入医生通知缓存，再推送 MQTT 与 Webhook，最后 ACK
type AlertDispatcher struct {
	config      *config.Config
	redisClient *redis.Client
	cache       *NotificationCache
	mqtt        MQTTPublisher // 可为 nil
	webhook     WebhookSender // 可为 nil
	logger      *zap.Logger
}

// NewAlertDispatcher 创建报警分发消费者
func NewAlertDispatcher(
	cfg *config.Config,
	redisClient *redis.Client,
	cache *NotificationCache,
	mqtt MQTTPublisher,
	webhook WebhookSender,
	logger *zap.Logger,
) *AlertDispatcher {
	return &AlertDispatcher{
		config:      cfg,
		redisClient: redisClient,
		cache:       cache,
		mqtt:        mqtt,
		webhook:     webhook,
		logger:      logger,
	}
}

// Start 启动消费循环，ctx 取消时返回
func (d *AlertDispatcher) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, d.redisClient, d.config.Alert.Stream, d.config.Alert.ConsumerGroup); err != nil {
		return err
	}

	d.logger.Info("Alert dispatcher started",
		zap.String("stream", d.config.Alert.Stream),
		zap.String("group", d.config.Alert.ConsumerGroup),
		zap.String("consumer", d.config.Alert.Consumer),
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Alert dispatcher stopped")
			return nil
		default:
		}

		if _, err := d.ProcessBatch(ctx, d.config.Alert.Block); err != nil {
			if ctx.Err() != nil {
				d.logger.Info("Alert dispatcher stopped")
				return nil
			}
			d.logger.Error("Failed to process alert batch", zap.Error(err))
			// 避免 Redis 故障时空转
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessBatch 读取并处理一批消息，返回已 ACK 的数量
// 先重试本消费者未 ACK 的消息，再读取新消息
func (d *AlertDispatcher) ProcessBatch(ctx context.Context, block time.Duration) (int, error) {
	pending, err := rediscommon.ReadPendingFromStream(ctx, d.redisClient,
		d.config.Alert.Stream, d.config.Alert.ConsumerGroup, d.config.Alert.Consumer,
		d.config.Alert.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to read pending alerts: %w", err)
	}
	if len(pending) > 0 {
		d.logger.Info("Retrying pending alert messages", zap.Int("count", len(pending)))
	}

	fresh, err := rediscommon.ReadFromStream(ctx, d.redisClient,
		d.config.Alert.Stream, d.config.Alert.ConsumerGroup, d.config.Alert.Consumer,
		d.config.Alert.BatchSize, block)
	if err != nil {
		return 0, fmt.Errorf("failed to read alert stream: %w", err)
	}
	messages := append(pending, fresh...)

	acked := 0
	for _, msg := range messages {
		if !d.handleMessage(ctx, msg) {
			continue
		}
		if err := rediscommon.AckMessages(ctx, d.redisClient, d.config.Alert.Stream, d.config.Alert.ConsumerGroup, msg.ID); err != nil {
			d.logger.Error("Failed to ack alert message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		acked++
	}
	return acked, nil
}

// handleMessage 返回 true 表示可以 ACK
func (d *AlertDispatcher) handleMessage(ctx context.Context, msg rediscommon.StreamMessage) bool {
	var evt models.AlertEvent
	if err := rediscommon.DecodeJSONMessage(msg, &evt); err != nil {
		// 无法解析的消息直接丢弃
		d.logger.Error("Dropping malformed alert message",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return true
	}

	if evt.DoctorID == "" {
		d.logger.Warn("Alert event has no doctor, skipping delivery",
			zap.String("alert_id", evt.AlertID),
		)
		return true
	}

	if err := d.cache.Push(ctx, evt); err != nil {
		metrics.RecordAlertDispatch("cache", false)
		d.logger.Error("Failed to cache doctor notification",
			zap.String("alert_id", evt.AlertID),
			zap.String("doctor_id", evt.DoctorID),
			zap.Error(err),
		)
		return false
	}
	metrics.RecordAlertDispatch("cache", true)

	if d.mqtt != nil {
		d.publishMQTT(evt)
	}

	if d.webhook != nil {
		err := d.webhook.Notify(ctx, evt)
		metrics.RecordAlertDispatch("webhook", err == nil)
		if err != nil {
			d.logger.Warn("Alert webhook delivery failed",
				zap.String("alert_id", evt.AlertID),
				zap.Error(err),
			)
		}
	}

	return true
}

// DoctorAlertTopic 医生报警推送主题
func DoctorAlertTopic(prefix, doctorID string) string {
	return fmt.Sprintf("%s/doctors/%s/alerts", prefix, doctorID)
}

func (d *AlertDispatcher) publishMQTT(evt models.AlertEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		d.logger.Error("Failed to marshal mqtt alert payload", zap.Error(err))
		return
	}

	topic := DoctorAlertTopic(d.config.Alert.TopicPrefix, evt.DoctorID)
	err = d.mqtt.Publish(topic, d.mqtt.QoS(), false, payload)
	metrics.RecordAlertDispatch("mqtt", err == nil)
	if err != nil {
		d.logger.Warn("Failed to publish alert to mqtt",
			zap.String("topic", topic),
			zap.String("alert_id", evt.AlertID),
			zap.Error(err),
		)
		return
	}

	d.logger.Debug("Published alert to mqtt",
		zap.String("topic", topic),
		zap.String("alert_id", evt.AlertID),
	)
}
