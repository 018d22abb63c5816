package models

import (
	"time"
)

// 消息类型
const (
	MessageTypeUser      = "USER"
	MessageTypeSystem    = "SYSTEM"
	MessageTypeAlert     = "ALERT"
	MessageTypeMilestone = "MILESTONE"
)

// Conversation 会话（一个治疗计划对应一个会话）
type Conversation struct {
	ConversationID string     `json:"conversation_id" db:"conversation_id"`
	PlanID         string     `json:"plan_id" db:"plan_id"`
	Participants   []string   `json:"participants" db:"participants"` // JSONB
	IsActive       bool       `json:"is_active" db:"is_active"`
	LastMessageID  *string    `json:"last_message_id,omitempty" db:"last_message_id"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty" db:"last_message_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Message 会话消息；系统消息 SenderID 为空
type Message struct {
	MessageID      string    `json:"message_id" db:"message_id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	SenderID       *string   `json:"sender_id,omitempty" db:"sender_id"`
	Type           string    `json:"type" db:"type"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
