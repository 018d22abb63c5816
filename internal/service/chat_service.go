package service

import (
	"context"
	"fmt"
	"time"

	"postcare/internal/models"
	"postcare/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversationInitMessage 新建治疗计划时的第一条系统消息
const ConversationInitMessage = "Secure chat initialized for this treatment plan."

// DefaultMessageLimit 消息列表默认条数
const DefaultMessageLimit = 50

// ChatService 治疗计划会话服务（仅系统消息）
type ChatService interface {
	// 会话不存在时只记录日志，返回 nil
	SendSystemMessage(ctx context.Context, planID, content, msgType string) error
	InitConversation(ctx context.Context, planID string, participants []string) (*models.Conversation, error)
	GetMessages(ctx context.Context, req GetMessagesRequest) ([]*models.Message, error)
}

// GetMessagesRequest 查询会话消息
type GetMessagesRequest struct {
	PlanID string
	Since  *time.Time
	Limit  int // <=0 取 DefaultMessageLimit
}

type chatService struct {
	convRepo repository.ConversationsRepository
	now      func() time.Time
	logger   *zap.Logger
}

// NewChatService 创建 ChatService 实例
func NewChatService(convRepo repository.ConversationsRepository, logger *zap.Logger) ChatService {
	return &chatService{
		convRepo: convRepo,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *chatService) SendSystemMessage(ctx context.Context, planID, content, msgType string) error {
	conv, err := s.convRepo.FindConversationByPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to find conversation: %w", err)
	}
	if conv == nil {
		s.logger.Warn("No conversation for plan, system message dropped",
			zap.String("plan_id", planID),
			zap.String("type", msgType),
		)
		return nil
	}

	msg := &models.Message{
		MessageID:      uuid.New().String(),
		ConversationID: conv.ConversationID,
		Type:           msgType,
		Content:        content,
		CreatedAt:      s.now(),
	}
	if err := s.convRepo.CreateMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	if err := s.convRepo.UpdateLastMessage(ctx, conv.ConversationID, msg.MessageID, msg.CreatedAt); err != nil {
		return fmt.Errorf("failed to update last message: %w", err)
	}

	s.logger.Debug("System message sent",
		zap.String("plan_id", planID),
		zap.String("conversation_id", conv.ConversationID),
		zap.String("type", msgType),
	)
	return nil
}

func (s *chatService) InitConversation(ctx context.Context, planID string, participants []string) (*models.Conversation, error) {
	now := s.now()
	conv := &models.Conversation{
		ConversationID: uuid.New().String(),
		PlanID:         planID,
		Participants:   participants,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.convRepo.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	if err := s.SendSystemMessage(ctx, planID, ConversationInitMessage, models.MessageTypeSystem); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *chatService) GetMessages(ctx context.Context, req GetMessagesRequest) ([]*models.Message, error) {
	conv, err := s.convRepo.FindConversationByPlan(ctx, req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	if conv == nil {
		return []*models.Message{}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	msgs, err := s.convRepo.ListMessages(ctx, conv.ConversationID, req.Since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}
