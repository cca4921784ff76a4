package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BoardStore is the persistence surface the board handler needs.
type BoardStore interface {
	GetByProject(ctx context.Context, projectID uuid.UUID) ([]model.Board, error)
	CreateWithTask(ctx context.Context, board *model.Board, taskID uuid.UUID) error
	EnsureDefaults(ctx context.Context, projectID uuid.UUID) ([]model.Board, error)
	Update(ctx context.Context, board *model.Board, taskIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error)
}

type BoardHandler struct {
	boardStore      BoardStore
	membershipStore MembershipStore
}

func NewBoardHandler(boardStore BoardStore, membershipStore MembershipStore) *BoardHandler {
	return &BoardHandler{
		boardStore:      boardStore,
		membershipStore: membershipStore,
	}
}

type CreateBoardRequest struct {
	Name        string `json:"name" binding:"required"`
	Status      string `json:"status" binding:"required"`
	Description string `json:"description"`
	TaskID      string `json:"task_id" binding:"required,uuid"`
}

type UpdateBoardRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Status      string   `json:"status" binding:"required"`
	TaskIDs     []string `json:"task_ids"`
}

type BoardResponse struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

func boardResponse(board *model.Board) BoardResponse {
	return BoardResponse{
		ID:          board.ID.String(),
		ProjectID:   board.ProjectID.String(),
		Name:        board.Name,
		Status:      string(board.Status),
		Description: board.Description,
		CreatedAt:   board.CreatedAt.Format(time.RFC3339),
	}
}

// GetAll lists the project's boards in creation order. Any member may
// look; an empty project yields an empty list, not a 404.
func (h *BoardHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if _, ok := resolveRole(c, h.membershipStore, projectID, userID); !ok {
		return
	}

	boards, err := h.boardStore.GetByProject(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve boards"})
		return
	}

	response := make([]BoardResponse, len(boards))
	for i := range boards {
		response[i] = boardResponse(&boards[i])
	}
	c.JSON(http.StatusOK, response)
}

// Create explicitly creates a board and attaches the initiating task.
// The one-board-per-status rule applies here too: a duplicate status in
// the project is rejected with 409 rather than silently doubled.
func (h *BoardHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	role, ok := resolveRole(c, h.membershipStore, projectID, userID)
	if !ok {
		return
	}
	if !role.Can(model.ActionCreateBoard) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to create boards"})
		return
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	status := model.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
		return
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task_id format"})
		return
	}

	board := &model.Board{
		ProjectID:   projectID,
		Name:        req.Name,
		Status:      status,
		Description: req.Description,
	}
	if err := h.boardStore.CreateWithTask(c.Request.Context(), board, taskID); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateBoardStatus):
			c.JSON(http.StatusConflict, gin.H{"error": "A board with this status already exists in the project"})
		case errors.Is(err, repository.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found in this project"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		}
		return
	}

	c.JSON(http.StatusCreated, boardResponse(board))
}

// EnsureDefaults provisions a board for every status that is missing
// one. Safe to call concurrently; both callers converge on the same
// boards. Any member may trigger it.
func (h *BoardHandler) EnsureDefaults(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if _, ok := resolveRole(c, h.membershipStore, projectID, userID); !ok {
		return
	}

	boards, err := h.boardStore.EnsureDefaults(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision default boards"})
		return
	}

	response := make([]BoardResponse, len(boards))
	for i := range boards {
		response[i] = boardResponse(&boards[i])
	}
	c.JSON(http.StatusOK, response)
}

// Update replaces the board's fields and its task set wholesale: the
// submitted task_ids are the complete desired membership.
func (h *BoardHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	boardID, ok := parseUUIDParam(c, "board_id")
	if !ok {
		return
	}

	role, ok := resolveRole(c, h.membershipStore, projectID, userID)
	if !ok {
		return
	}
	if !role.Can(model.ActionUpdateBoard) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to update this board"})
		return
	}

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	status := model.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
		return
	}

	taskIDs := make([]uuid.UUID, 0, len(req.TaskIDs))
	for _, raw := range req.TaskIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id in task_ids"})
			return
		}
		taskIDs = append(taskIDs, id)
	}

	board := &model.Board{
		ID:          boardID,
		ProjectID:   projectID,
		Name:        req.Name,
		Status:      status,
		Description: req.Description,
	}
	if err := h.boardStore.Update(c.Request.Context(), board, taskIDs); err != nil {
		switch {
		case errors.Is(err, repository.ErrBoardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		case errors.Is(err, repository.ErrDuplicateBoardStatus):
			c.JSON(http.StatusConflict, gin.H{"error": "A board with this status already exists in the project"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
		}
		return
	}

	updated, err := h.boardStore.GetByID(c.Request.Context(), boardID)
	if err != nil || updated == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload board"})
		return
	}
	c.JSON(http.StatusOK, boardResponse(updated))
}
