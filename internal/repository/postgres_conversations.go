package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postcare/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresConversationsRepository 会话与消息Repository实现
type PostgresConversationsRepository struct {
	db *sql.DB
}

// NewPostgresConversationsRepository 创建会话Repository
func NewPostgresConversationsRepository(db *sql.DB) *PostgresConversationsRepository {
	return &PostgresConversationsRepository{db: db}
}

var _ ConversationsRepository = (*PostgresConversationsRepository)(nil)

// CreateConversation 创建会话
func (r *PostgresConversationsRepository) CreateConversation(ctx context.Context, c *models.Conversation) error {
	if c.PlanID == "" {
		return fmt.Errorf("plan_id is required")
	}
	if c.ConversationID == "" {
		c.ConversationID = uuid.New().String()
	}
	if c.Participants == nil {
		c.Participants = []string{}
	}

	query := `
		INSERT INTO conversations (conversation_id, plan_id, participants, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.ConversationID, c.PlanID, pq.Array(c.Participants), c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// FindConversationByPlan 根据治疗计划查找会话
func (r *PostgresConversationsRepository) FindConversationByPlan(ctx context.Context, planID string) (*models.Conversation, error) {
	query := `
		SELECT conversation_id, plan_id, participants, is_active,
		       last_message_id, last_message_at, created_at, updated_at
		FROM conversations
		WHERE plan_id = $1
	`
	var c models.Conversation
	var participants pq.StringArray
	var lastID sql.NullString
	var lastAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, planID).Scan(
		&c.ConversationID,
		&c.PlanID,
		&participants,
		&c.IsActive,
		&lastID,
		&lastAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	c.Participants = []string(participants)
	if lastID.Valid {
		c.LastMessageID = &lastID.String
	}
	if lastAt.Valid {
		c.LastMessageAt = &lastAt.Time
	}
	return &c, nil
}

// CreateMessage 创建消息
func (r *PostgresConversationsRepository) CreateMessage(ctx context.Context, m *models.Message) error {
	if m.ConversationID == "" {
		return fmt.Errorf("conversation_id is required")
	}
	if m.MessageID == "" {
		m.MessageID = uuid.New().String()
	}
	if m.Type == "" {
		m.Type = models.MessageTypeUser
	}

	query := `
		INSERT INTO messages (message_id, conversation_id, sender_id, type, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		m.MessageID, m.ConversationID, m.SenderID, m.Type, m.Content,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// UpdateLastMessage 更新会话最后一条消息
func (r *PostgresConversationsRepository) UpdateLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	query := `
		UPDATE conversations
		SET last_message_id = $2, last_message_at = $3, updated_at = NOW()
		WHERE conversation_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, conversationID, messageID, at)
	if err != nil {
		return fmt.Errorf("failed to update last message: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	return nil
}

// ListMessages 会话消息（正序）
func (r *PostgresConversationsRepository) ListMessages(ctx context.Context, conversationID string, since *time.Time, limit int) ([]*models.Message, error) {
	query := `
		SELECT message_id, conversation_id, sender_id, type, content, created_at
		FROM messages
		WHERE conversation_id = $1`
	args := []interface{}{conversationID}
	if since != nil {
		query += ` AND created_at > $2`
		args = append(args, *since)
	}
	query += fmt.Sprintf(` ORDER BY created_at ASC, message_id ASC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	out := []*models.Message{}
	for rows.Next() {
		var m models.Message
		var sender sql.NullString
		if err := rows.Scan(&m.MessageID, &m.ConversationID, &sender, &m.Type, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if sender.Valid {
			m.SenderID = &sender.String
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return out, nil
}
