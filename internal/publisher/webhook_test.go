package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"postcare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWebhookNotifier_Notify(t *testing.T) {
	var received webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 2*time.Second, zap.NewNop())
	err := n.Notify(context.Background(), models.AlertEvent{
		AlertID: "a1",
		Type:    models.AlertTypeMissedCheckIn,
		Level:   models.AlertLevelCritical,
	})

	require.NoError(t, err)
	assert.Equal(t, "postcare", received.Source)
	assert.Equal(t, "a1", received.Event.AlertID)
	assert.Equal(t, models.AlertLevelCritical, received.Event.Level)
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 2*time.Second, zap.NewNop())
	err := n.Notify(context.Background(), models.AlertEvent{AlertID: "a1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
