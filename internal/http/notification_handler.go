package httpapi

import (
	"context"
	"net/http"

	"postcare/internal/models"

	"go.uber.org/zap"
)

// NotificationFeed 医生通知缓存（Redis）
type NotificationFeed interface {
	List(ctx context.Context, doctorID string, limit int64) ([]models.AlertEvent, error)
	Count(ctx context.Context, doctorID string) (int64, error)
	Clear(ctx context.Context, doctorID string) error
}

// NotificationHandler 医生通知 Handler
type NotificationHandler struct {
	feed   NotificationFeed
	logger *zap.Logger
}

// NewNotificationHandler 创建医生通知 Handler
func NewNotificationHandler(feed NotificationFeed, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		feed:   feed,
		logger: logger,
	}
}

// NotificationsResponse 通知列表
type NotificationsResponse struct {
	Total int64               `json:"total"`
	Items []models.AlertEvent `json:"items"`
}

// ServeHTTP 实现 http.Handler 接口
func (h *NotificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListNotifications(w, r)
	case http.MethodDelete:
		h.ClearNotifications(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ListNotifications 读取通知（limit 默认 20）
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := requireRole(w, r, models.RoleDoctor)
	if !ok {
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 20)
	items, err := h.feed.List(r.Context(), id.UserID, int64(limit))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	total, err := h.feed.Count(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(NotificationsResponse{Total: total, Items: items}))
}

// ClearNotifications 清空通知
func (h *NotificationHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := requireRole(w, r, models.RoleDoctor)
	if !ok {
		return
	}

	if err := h.feed.Clear(r.Context(), id.UserID); err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
