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
	"go.uber.org/zap"
)

// TaskStore is the persistence surface the task handler needs.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	GetByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	ApplyStatusChange(ctx context.Context, taskID uuid.UUID, status model.Status) (*model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TaskHandler struct {
	taskStore       TaskStore
	membershipStore MembershipStore
	notifier        Notifier
	logger          *zap.Logger
}

func NewTaskHandler(taskStore TaskStore, membershipStore MembershipStore, notifier Notifier, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskStore:       taskStore,
		membershipStore: membershipStore,
		notifier:        notifier,
		logger:          logger,
	}
}

type CreateTaskRequest struct {
	Title   string     `json:"title" binding:"required"`
	Status  string     `json:"status"`
	DueDate *time.Time `json:"due_date"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TaskResponse struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project_id"`
	BoardID   *string `json:"board_id,omitempty"`
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	DueDate   *string `json:"due_date,omitempty"`
	UpdatedAt string  `json:"updated_at"`
}

func taskResponse(task *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:        task.ID.String(),
		ProjectID: task.ProjectID.String(),
		Title:     task.Title,
		Status:    string(task.Status),
		UpdatedAt: task.UpdatedAt.Format(time.RFC3339),
	}
	if task.BoardID != nil {
		boardID := task.BoardID.String()
		resp.BoardID = &boardID
	}
	if task.DueDate != nil {
		due := task.DueDate.Format(time.RFC3339)
		resp.DueDate = &due
	}
	return resp
}

// Create adds a task to the project. Status defaults to TODO; the task
// lands on the matching board when one exists.
func (h *TaskHandler) Create(c *gin.Context) {
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
	if !role.Can(model.ActionUpdateBoard) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to create tasks"})
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	status := model.StatusTodo
	if req.Status != "" {
		status = model.Status(req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
			return
		}
	}

	task := &model.Task{
		ProjectID: projectID,
		Title:     req.Title,
		Status:    status,
		DueDate:   req.DueDate,
	}
	if err := h.taskStore.Create(c.Request.Context(), task); err != nil {
		h.logger.Error("failed to create task",
			zap.String("user_id", userID.String()),
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, taskResponse(task))
}

// GetByProject lists the project's tasks. Any member may look.
func (h *TaskHandler) GetByProject(c *gin.Context) {
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

	tasks, err := h.taskStore.GetByProject(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, len(tasks))
	for i := range tasks {
		response[i] = taskResponse(&tasks[i])
	}
	c.JSON(http.StatusOK, response)
}

// GetByID returns one task. Non-members get the same 404 as a missing
// task.
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskStore.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	_, found, err := h.membershipStore.GetRole(c.Request.Context(), task.ProjectID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check project access"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusOK, taskResponse(task))
}

// UpdateStatus moves a task to a new status. The status write and the
// board re-homing are a single transaction; when the target board does
// not exist yet the change is rejected with 409 and nothing is written.
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	status := model.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
		return
	}

	task, err := h.taskStore.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	role, found, err := h.membershipStore.GetRole(c.Request.Context(), task.ProjectID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check project access"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if !role.Can(model.ActionUpdateBoard) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to move tasks"})
		return
	}

	updated, err := h.taskStore.ApplyStatusChange(c.Request.Context(), taskID, status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		case errors.Is(err, repository.ErrBoardNotProvisioned):
			c.JSON(http.StatusConflict, gin.H{"error": "No board exists for this status yet. Provision default boards first."})
		default:
			h.logger.Error("failed to apply status change",
				zap.String("user_id", userID.String()),
				zap.String("task_id", taskID.String()),
				zap.String("status", string(status)),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task status"})
		}
		return
	}

	h.notifyStatusChange(c, updated, userID)

	c.JSON(http.StatusOK, taskResponse(updated))
}

// Delete removes a task. Non-members get the same 404 as a missing
// task.
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskStore.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	role, found, err := h.membershipStore.GetRole(c.Request.Context(), task.ProjectID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check project access"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if !role.Can(model.ActionUpdateBoard) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to delete tasks"})
		return
	}

	if err := h.taskStore.Delete(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// notifyStatusChange records a ledger entry for every other project
// member. Best effort: notification failures are logged, never
// surfaced.
func (h *TaskHandler) notifyStatusChange(c *gin.Context, task *model.Task, actorID uuid.UUID) {
	memberIDs, err := h.membershipStore.GetMemberIDs(c.Request.Context(), task.ProjectID)
	if err != nil {
		h.logger.Warn("failed to list members for notification",
			zap.String("project_id", task.ProjectID.String()),
			zap.Error(err))
		return
	}

	message := "Task \"" + task.Title + "\" moved to " + task.Status.Label()
	for _, memberID := range memberIDs {
		if memberID == actorID {
			continue
		}
		notification := &model.Notification{
			UserID:    memberID,
			ProjectID: &task.ProjectID,
			TaskID:    &task.ID,
			BoardID:   task.BoardID,
			Message:   message,
		}
		if err := h.notifier.Create(c.Request.Context(), notification); err != nil {
			h.logger.Warn("failed to record status-change notification",
				zap.String("task_id", task.ID.String()),
				zap.String("user_id", memberID.String()),
				zap.Error(err))
		}
	}
}
