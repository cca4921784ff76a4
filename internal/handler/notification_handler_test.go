package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskflow/internal/handler"
	"taskflow/internal/middleware"
	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationStore) GetSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, userID, since, limit)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockNotificationStore) GetPage(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockNotificationStore) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationStore) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

func (m *MockNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func setupNotificationTest(userID uuid.UUID) (*gin.Engine, *MockNotificationStore) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
	})

	mockStore := new(MockNotificationStore)
	h := handler.NewNotificationHandler(mockStore)

	r.GET("/notifications", h.GetAll)
	r.GET("/notifications/poll", h.Poll)
	r.PATCH("/notifications/:id/read", h.MarkRead)
	r.PATCH("/notifications/read-all", h.MarkAllRead)

	return r, mockStore
}

func makeNotifications(userID uuid.UUID, n int) []model.Notification {
	notifications := make([]model.Notification, n)
	for i := range notifications {
		notifications[i] = model.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Message:   "something happened",
			CreatedAt: time.Now().Add(-time.Duration(i) * time.Minute),
		}
	}
	return notifications
}

// Unread count and recency are independent axes: 12 unread overall,
// only 3 recent entries returned.
func TestPoll_DefaultWindow(t *testing.T) {
	userID := uuid.New()
	router, mockStore := setupNotificationTest(userID)

	mockStore.On("CountUnread", mock.Anything, userID).Return(int64(12), nil)
	mockStore.On("GetSince", mock.Anything, userID, mock.MatchedBy(func(since time.Time) bool {
		// default window is roughly now - 24h
		return time.Since(since) > 23*time.Hour && time.Since(since) < 25*time.Hour
	}), handler.PollLimit).Return(makeNotifications(userID, 3), nil)

	req, _ := http.NewRequest("GET", "/notifications/poll", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.PollResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, int64(12), response.UnreadCount)
	assert.Len(t, response.RecentNotifications, 3)

	lastChecked, err := time.Parse(time.RFC3339, response.LastChecked)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now(), lastChecked, time.Minute)

	mockStore.AssertExpectations(t)
}

func TestPoll_ExplicitSince(t *testing.T) {
	userID := uuid.New()
	router, mockStore := setupNotificationTest(userID)

	since := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mockStore.On("CountUnread", mock.Anything, userID).Return(int64(0), nil)
	mockStore.On("GetSince", mock.Anything, userID, since, handler.PollLimit).
		Return([]model.Notification{}, nil)

	req, _ := http.NewRequest("GET", "/notifications/poll?since="+since.Format(time.RFC3339), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	mockStore.AssertExpectations(t)
}

func TestPoll_InvalidSince(t *testing.T) {
	userID := uuid.New()
	router, _ := setupNotificationTest(userID)

	req, _ := http.NewRequest("GET", "/notifications/poll?since=yesterday", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetAll_PaginationArithmetic(t *testing.T) {
	userID := uuid.New()
	router, mockStore := setupNotificationTest(userID)

	mockStore.On("Count", mock.Anything, userID).Return(int64(45), nil)
	mockStore.On("GetPage", mock.Anything, userID, 40, 20).
		Return(makeNotifications(userID, 5), nil)

	req, _ := http.NewRequest("GET", "/notifications?page=3&limit=20", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.NotificationListResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, int64(45), response.Total)
	assert.Equal(t, 3, response.Pages)
	assert.Len(t, response.Notifications, 5)

	mockStore.AssertExpectations(t)
}

// A page beyond the last is an empty list, not an error.
func TestGetAll_PageBeyondRange(t *testing.T) {
	userID := uuid.New()
	router, mockStore := setupNotificationTest(userID)

	mockStore.On("Count", mock.Anything, userID).Return(int64(45), nil)
	mockStore.On("GetPage", mock.Anything, userID, 180, 20).
		Return([]model.Notification{}, nil)

	req, _ := http.NewRequest("GET", "/notifications?page=10&limit=20", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.NotificationListResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Empty(t, response.Notifications)
	assert.Equal(t, 3, response.Pages)

	mockStore.AssertExpectations(t)
}

func TestGetAll_InvalidPage(t *testing.T) {
	userID := uuid.New()
	router, _ := setupNotificationTest(userID)

	req, _ := http.NewRequest("GET", "/notifications?page=0", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetAll_LimitClamped(t *testing.T) {
	userID := uuid.New()
	router, mockStore := setupNotificationTest(userID)

	mockStore.On("Count", mock.Anything, userID).Return(int64(0), nil)
	mockStore.On("GetPage", mock.Anything, userID, 0, handler.MaxPageLimit).
		Return([]model.Notification{}, nil)

	req, _ := http.NewRequest("GET", "/notifications?limit=5000", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	mockStore.AssertExpectations(t)
}

// Marking twice succeeds both times with the same observable outcome.
func TestMarkRead_Idempotent(t *testing.T) {
	userID := uuid.New()
	router, mockStore := setupNotificationTest(userID)

	notificationID := uuid.New()
	mockStore.On("MarkRead", mock.Anything, userID, notificationID).Return(nil).Twice()

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("PATCH", "/notifications/"+notificationID.String()+"/read", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusOK, resp.Code)
	}

	mockStore.AssertExpectations(t)
}

func TestMarkRead_NotFound(t *testing.T) {
	userID := uuid.New()
	router, mockStore := setupNotificationTest(userID)

	notificationID := uuid.New()
	mockStore.On("MarkRead", mock.Anything, userID, notificationID).
		Return(repository.ErrNotificationNotFound)

	req, _ := http.NewRequest("PATCH", "/notifications/"+notificationID.String()+"/read", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	mockStore.AssertExpectations(t)
}

func TestMarkAllRead(t *testing.T) {
	userID := uuid.New()
	router, mockStore := setupNotificationTest(userID)

	mockStore.On("MarkAllRead", mock.Anything, userID).Return(nil)

	req, _ := http.NewRequest("PATCH", "/notifications/read-all", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	mockStore.AssertExpectations(t)
}
