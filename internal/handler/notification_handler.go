package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// PollWindow is how far back a poll looks when the client sends no
	// `since` value.
	PollWindow = 24 * time.Hour

	// PollLimit caps the recent entries returned by a poll.
	PollLimit = 10

	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NotificationStore is the persistence surface the notification
// handler needs.
type NotificationStore interface {
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	GetSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]model.Notification, error)
	GetPage(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.Notification, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type NotificationHandler struct {
	store NotificationStore
}

func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

type NotificationResponse struct {
	ID        string  `json:"id"`
	Message   string  `json:"message"`
	ProjectID *string `json:"project_id,omitempty"`
	TaskID    *string `json:"task_id,omitempty"`
	BoardID   *string `json:"board_id,omitempty"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}

type PollResponse struct {
	UnreadCount         int64                  `json:"unread_count"`
	RecentNotifications []NotificationResponse `json:"recent_notifications"`
	LastChecked         string                 `json:"last_checked"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int64                  `json:"total"`
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
	Pages         int                    `json:"pages"`
}

func notificationResponse(n *model.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
	if n.ProjectID != nil {
		id := n.ProjectID.String()
		resp.ProjectID = &id
	}
	if n.TaskID != nil {
		id := n.TaskID.String()
		resp.TaskID = &id
	}
	if n.BoardID != nil {
		id := n.BoardID.String()
		resp.BoardID = &id
	}
	return resp
}

// Poll is the cheap delta endpoint. unread_count covers every unread
// entry regardless of age; recent_notifications covers entries created
// after `since` regardless of read state. The two are independent axes
// and must not be conflated. last_checked is meant to be echoed back as
// the next poll's `since`.
func (h *NotificationHandler) Poll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	since := time.Now().Add(-PollWindow)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since timestamp, expected RFC3339"})
			return
		}
		since = parsed
	}

	unread, err := h.store.CountUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}

	recent, err := h.store.GetSince(c.Request.Context(), userID, since, PollLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	response := PollResponse{
		UnreadCount:         unread,
		RecentNotifications: make([]NotificationResponse, len(recent)),
		LastChecked:         time.Now().Format(time.RFC3339),
	}
	for i := range recent {
		response.RecentNotifications[i] = notificationResponse(&recent[i])
	}
	c.JSON(http.StatusOK, response)
}

// GetAll is the full paginated ledger, newest first. A page beyond the
// last returns an empty slice, not an error.
func (h *NotificationHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
			return
		}
		page = parsed
	}

	limit := DefaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	total, err := h.store.Count(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}

	notifications, err := h.store.GetPage(c.Request.Context(), userID, (page-1)*limit, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	response := NotificationListResponse{
		Notifications: make([]NotificationResponse, len(notifications)),
		Total:         total,
		Page:          page,
		Limit:         limit,
		Pages:         int(math.Ceil(float64(total) / float64(limit))),
	}
	for i := range notifications {
		response.Notifications[i] = notificationResponse(&notifications[i])
	}
	c.JSON(http.StatusOK, response)
}

// MarkRead flags one notification as read. Idempotent: marking twice
// succeeds both times. 404 covers both "no such notification" and
// "someone else's notification".
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	notificationID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.store.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notification read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllRead flags every unread notification for the caller. Idempotent.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.store.MarkAllRead(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notifications read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
