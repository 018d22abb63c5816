package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"postcare/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockConversationsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresConversationsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresConversationsRepository(db)
}

func TestCreateConversation(t *testing.T) {
	db, mock, repo := setupMockConversationsDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO conversations`).
		WithArgs(sqlmock.AnyArg(), "plan-1", sqlmock.AnyArg(), true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	c := &models.Conversation{PlanID: "plan-1", Participants: []string{"d1", "p1"}, IsActive: true}
	require.NoError(t, repo.CreateConversation(context.Background(), c))
	assert.NotEmpty(t, c.ConversationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindConversationByPlan(t *testing.T) {
	db, mock, repo := setupMockConversationsDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM conversations`).
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"conversation_id", "plan_id", "participants", "is_active",
			"last_message_id", "last_message_at", "created_at", "updated_at",
		}).AddRow("conv-1", "plan-1", "{d1,p1}", true, nil, nil, now, now))

	c, err := repo.FindConversationByPlan(context.Background(), "plan-1")

	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, []string{"d1", "p1"}, c.Participants)
	assert.Nil(t, c.LastMessageID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindConversationByPlan_NotFound(t *testing.T) {
	db, mock, repo := setupMockConversationsDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM conversations`).WillReturnError(sql.ErrNoRows)

	c, err := repo.FindConversationByPlan(context.Background(), "plan-x")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCreateMessage_SystemMessage(t *testing.T) {
	db, mock, repo := setupMockConversationsDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(sqlmock.AnyArg(), "conv-1", nil, "MILESTONE", "🔥 Milestone Unlocked: 7 Day Medication Streak!").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	m := &models.Message{
		ConversationID: "conv-1",
		Type:           models.MessageTypeMilestone,
		Content:        "🔥 Milestone Unlocked: 7 Day Medication Streak!",
	}
	require.NoError(t, repo.CreateMessage(context.Background(), m))
	assert.NotEmpty(t, m.MessageID)
	assert.Equal(t, now, m.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLastMessage(t *testing.T) {
	db, mock, repo := setupMockConversationsDB(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(`UPDATE conversations`).
		WithArgs("conv-1", "msg-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastMessage(context.Background(), "conv-1", "msg-1", at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListMessages_Since(t *testing.T) {
	db, mock, repo := setupMockConversationsDB(t)
	defer db.Close()

	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`created_at > \$2 ORDER BY created_at ASC, message_id ASC LIMIT \$3`).
		WithArgs("conv-1", since, 50).
		WillReturnRows(sqlmock.NewRows([]string{"message_id", "conversation_id", "sender_id", "type", "content", "created_at"}).
			AddRow("m1", "conv-1", nil, "SYSTEM", "Secure chat initialized for this treatment plan.", since.Add(time.Minute)).
			AddRow("m2", "conv-1", "d1", "USER", "hello", since.Add(2*time.Minute)))

	list, err := repo.ListMessages(context.Background(), "conv-1", &since, 50)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Nil(t, list[0].SenderID)
	require.NotNil(t, list[1].SenderID)
	assert.Equal(t, "d1", *list[1].SenderID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListMessages_NoSince(t *testing.T) {
	db, mock, repo := setupMockConversationsDB(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE conversation_id = \$1 ORDER BY created_at ASC, message_id ASC LIMIT \$2`).
		WithArgs("conv-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"message_id", "conversation_id", "sender_id", "type", "content", "created_at"}))

	list, err := repo.ListMessages(context.Background(), "conv-1", nil, 10)

	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}
