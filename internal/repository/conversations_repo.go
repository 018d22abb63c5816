package repository

import (
	"context"
	"time"

	"postcare/internal/models"
)

// ConversationsRepository 会话与消息Repository接口
type ConversationsRepository interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error

	// 不存在返回 (nil, nil)
	FindConversationByPlan(ctx context.Context, planID string) (*models.Conversation, error)

	CreateMessage(ctx context.Context, msg *models.Message) error

	UpdateLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error

	// 按时间正序；since 非空时只返回其后的消息
	ListMessages(ctx context.Context, conversationID string, since *time.Time, limit int) ([]*models.Message, error)
}
