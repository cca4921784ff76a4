package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskflow/internal/handler"
	"taskflow/internal/middleware"
	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockMembershipStore struct {
	mock.Mock
}

func (m *MockMembershipStore) Add(ctx context.Context, membership *model.ProjectMembership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipStore) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	args := m.Called(ctx, projectID, userID)
	return args.Error(0)
}

func (m *MockMembershipStore) GetRole(ctx context.Context, projectID, userID uuid.UUID) (model.Role, bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Get(0).(model.Role), args.Bool(1), args.Error(2)
}

func (m *MockMembershipStore) GetMembers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMembership, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]model.ProjectMembership), args.Error(1)
}

func (m *MockMembershipStore) GetMemberIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockBoardStore struct {
	mock.Mock
}

func (m *MockBoardStore) GetByProject(ctx context.Context, projectID uuid.UUID) ([]model.Board, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]model.Board), args.Error(1)
}

func (m *MockBoardStore) CreateWithTask(ctx context.Context, board *model.Board, taskID uuid.UUID) error {
	args := m.Called(ctx, board, taskID)
	return args.Error(0)
}

func (m *MockBoardStore) EnsureDefaults(ctx context.Context, projectID uuid.UUID) ([]model.Board, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]model.Board), args.Error(1)
}

func (m *MockBoardStore) Update(ctx context.Context, board *model.Board, taskIDs []uuid.UUID) error {
	args := m.Called(ctx, board, taskIDs)
	return args.Error(0)
}

func (m *MockBoardStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	args := m.Called(ctx, id)
	board := args.Get(0)
	if board == nil {
		return nil, args.Error(1)
	}
	return board.(*model.Board), args.Error(1)
}

func setupBoardTest(userID uuid.UUID) (*gin.Engine, *MockBoardStore, *MockMembershipStore) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
	})

	mockBoards := new(MockBoardStore)
	mockMemberships := new(MockMembershipStore)
	h := handler.NewBoardHandler(mockBoards, mockMemberships)

	r.GET("/projects/:id/boards", h.GetAll)
	r.POST("/projects/:id/boards", h.Create)
	r.POST("/projects/:id/boards/defaults", h.EnsureDefaults)
	r.PUT("/projects/:id/boards/:board_id", h.Update)

	return r, mockBoards, mockMemberships
}

func updateBoardBody(t *testing.T) *bytes.Buffer {
	body, err := json.Marshal(handler.UpdateBoardRequest{
		Name:    "In Progress",
		Status:  "IN_PROGRESS",
		TaskIDs: []string{uuid.New().String()},
	})
	assert.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestBoardUpdate_ViewerForbidden(t *testing.T) {
	userID := uuid.New()
	router, _, mockMemberships := setupBoardTest(userID)

	projectID := uuid.New()
	mockMemberships.On("GetRole", mock.Anything, projectID, userID).
		Return(model.RoleViewer, true, nil)

	req, _ := http.NewRequest("PUT", "/projects/"+projectID.String()+"/boards/"+uuid.New().String(), updateBoardBody(t))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	mockMemberships.AssertExpectations(t)
}

func TestBoardUpdate_MemberSucceeds(t *testing.T) {
	userID := uuid.New()
	router, mockBoards, mockMemberships := setupBoardTest(userID)

	projectID := uuid.New()
	boardID := uuid.New()

	mockMemberships.On("GetRole", mock.Anything, projectID, userID).
		Return(model.RoleMember, true, nil)
	mockBoards.On("Update", mock.Anything, mock.AnythingOfType("*model.Board"), mock.Anything).
		Return(nil)
	mockBoards.On("GetByID", mock.Anything, boardID).
		Return(&model.Board{ID: boardID, ProjectID: projectID, Name: "In Progress", Status: model.StatusInProgress}, nil)

	req, _ := http.NewRequest("PUT", "/projects/"+projectID.String()+"/boards/"+boardID.String(), updateBoardBody(t))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.BoardResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, boardID.String(), response.ID)
	assert.Equal(t, "IN_PROGRESS", response.Status)

	mockBoards.AssertExpectations(t)
	mockMemberships.AssertExpectations(t)
}

// A non-member must see exactly what a request against a nonexistent
// project produces: the same 404, with no hint the project exists.
func TestBoardGetAll_NonMemberIndistinguishableFromMissing(t *testing.T) {
	userID := uuid.New()
	router, _, mockMemberships := setupBoardTest(userID)

	existingProject := uuid.New()
	missingProject := uuid.New()

	mockMemberships.On("GetRole", mock.Anything, existingProject, userID).
		Return(model.Role(""), false, nil)
	mockMemberships.On("GetRole", mock.Anything, missingProject, userID).
		Return(model.Role(""), false, nil)

	var bodies []string
	for _, projectID := range []uuid.UUID{existingProject, missingProject} {
		req, _ := http.NewRequest("GET", "/projects/"+projectID.String()+"/boards", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusNotFound, resp.Code)
		bodies = append(bodies, resp.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])

	mockMemberships.AssertExpectations(t)
}

func TestBoardGetAll_EmptyProjectIsNotAnError(t *testing.T) {
	userID := uuid.New()
	router, mockBoards, mockMemberships := setupBoardTest(userID)

	projectID := uuid.New()
	mockMemberships.On("GetRole", mock.Anything, projectID, userID).
		Return(model.RoleViewer, true, nil)
	mockBoards.On("GetByProject", mock.Anything, projectID).
		Return([]model.Board{}, nil)

	req, _ := http.NewRequest("GET", "/projects/"+projectID.String()+"/boards", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, "[]", resp.Body.String())

	mockBoards.AssertExpectations(t)
}

func TestBoardCreate_MemberForbidden(t *testing.T) {
	userID := uuid.New()
	router, _, mockMemberships := setupBoardTest(userID)

	projectID := uuid.New()
	mockMemberships.On("GetRole", mock.Anything, projectID, userID).
		Return(model.RoleMember, true, nil)

	body, _ := json.Marshal(handler.CreateBoardRequest{
		Name:   "Blocked",
		Status: "TODO",
		TaskID: uuid.New().String(),
	})
	req, _ := http.NewRequest("POST", "/projects/"+projectID.String()+"/boards", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	mockMemberships.AssertExpectations(t)
}

func TestBoardCreate_DuplicateStatusConflicts(t *testing.T) {
	userID := uuid.New()
	router, mockBoards, mockMemberships := setupBoardTest(userID)

	projectID := uuid.New()
	mockMemberships.On("GetRole", mock.Anything, projectID, userID).
		Return(model.RoleAdmin, true, nil)
	mockBoards.On("CreateWithTask", mock.Anything, mock.AnythingOfType("*model.Board"), mock.Anything).
		Return(repository.ErrDuplicateBoardStatus)

	body, _ := json.Marshal(handler.CreateBoardRequest{
		Name:   "Second To Do",
		Status: "TODO",
		TaskID: uuid.New().String(),
	})
	req, _ := http.NewRequest("POST", "/projects/"+projectID.String()+"/boards", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusConflict, resp.Code)
	mockBoards.AssertExpectations(t)
}

func TestBoardCreate_UnknownStatus(t *testing.T) {
	userID := uuid.New()
	router, _, mockMemberships := setupBoardTest(userID)

	projectID := uuid.New()
	mockMemberships.On("GetRole", mock.Anything, projectID, userID).
		Return(model.RoleAdmin, true, nil)

	body, _ := json.Marshal(handler.CreateBoardRequest{
		Name:   "Archive",
		Status: "ARCHIVED",
		TaskID: uuid.New().String(),
	})
	req, _ := http.NewRequest("POST", "/projects/"+projectID.String()+"/boards", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestEnsureDefaults_ReturnsBoards(t *testing.T) {
	userID := uuid.New()
	router, mockBoards, mockMemberships := setupBoardTest(userID)

	projectID := uuid.New()
	mockMemberships.On("GetRole", mock.Anything, projectID, userID).
		Return(model.RoleMember, true, nil)
	mockBoards.On("EnsureDefaults", mock.Anything, projectID).
		Return([]model.Board{
			{ID: uuid.New(), ProjectID: projectID, Name: "To Do", Status: model.StatusTodo},
			{ID: uuid.New(), ProjectID: projectID, Name: "In Progress", Status: model.StatusInProgress},
			{ID: uuid.New(), ProjectID: projectID, Name: "Done", Status: model.StatusDone},
		}, nil)

	req, _ := http.NewRequest("POST", "/projects/"+projectID.String()+"/boards/defaults", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var response []handler.BoardResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Len(t, response, 3)

	mockBoards.AssertExpectations(t)
	mockMemberships.AssertExpectations(t)
}
