package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProjectStore is the persistence surface the project handler needs.
type ProjectStore interface {
	Create(ctx context.Context, project *model.Project, creatorID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	GetForUser(ctx context.Context, userID uuid.UUID) ([]model.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserLookup finds users by email when adding members.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type ProjectHandler struct {
	projectStore    ProjectStore
	membershipStore MembershipStore
	userStore       UserLookup
	notifier        Notifier
	logger          *zap.Logger
}

func NewProjectHandler(
	projectStore ProjectStore,
	membershipStore MembershipStore,
	userStore UserLookup,
	notifier Notifier,
	logger *zap.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projectStore:    projectStore,
		membershipStore: membershipStore,
		userStore:       userStore,
		notifier:        notifier,
		logger:          logger,
	}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type ProjectResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=ADMIN MEMBER VIEWER"`
}

type MemberResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func projectResponse(project *model.Project) ProjectResponse {
	return ProjectResponse{
		ID:          project.ID.String(),
		Name:        project.Name,
		Description: project.Description,
		CreatedAt:   project.CreatedAt.Format(time.RFC3339),
	}
}

// Create creates a project; the caller becomes its first ADMIN member.
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project := &model.Project{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.projectStore.Create(c.Request.Context(), project, userID); err != nil {
		h.logger.Error("failed to create project",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, projectResponse(project))
}

// GetAll lists the caller's projects.
func (h *ProjectHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.projectStore.GetForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, len(projects))
	for i := range projects {
		response[i] = projectResponse(&projects[i])
	}
	c.JSON(http.StatusOK, response)
}

// Delete removes a project and everything under it. ADMIN only.
func (h *ProjectHandler) Delete(c *gin.Context) {
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
	if !role.Can(model.ActionDeleteProject) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only project admins can delete a project"})
		return
	}

	if err := h.projectStore.Delete(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		h.logger.Error("failed to delete project",
			zap.String("user_id", userID.String()),
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

// AddMember adds a user to the project by email. Any current member may
// do this; the policy table keeps the asymmetry with RemoveMember
// explicit.
func (h *ProjectHandler) AddMember(c *gin.Context) {
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
	if !role.Can(model.ActionAddMember) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to add members"})
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	target, err := h.userStore.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	membership := &model.ProjectMembership{
		ProjectID: projectID,
		UserID:    target.ID,
		Role:      model.Role(req.Role),
	}
	if err := h.membershipStore.Add(c.Request.Context(), membership); err != nil {
		if errors.Is(err, repository.ErrDuplicateMembership) {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this project"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	h.notifyAdded(c, projectID, target.ID)

	c.JSON(http.StatusCreated, MemberResponse{
		UserID: target.ID.String(),
		Email:  target.Email,
		Name:   target.Name,
		Role:   req.Role,
	})
}

// notifyAdded records a ledger entry for the new member. Best effort:
// a failed notification never fails the membership write.
func (h *ProjectHandler) notifyAdded(c *gin.Context, projectID, targetID uuid.UUID) {
	project, err := h.projectStore.GetByID(c.Request.Context(), projectID)
	if err != nil || project == nil {
		return
	}
	notification := &model.Notification{
		UserID:    targetID,
		ProjectID: &projectID,
		Message:   "You were added to the project \"" + project.Name + "\"",
	}
	if err := h.notifier.Create(c.Request.Context(), notification); err != nil {
		h.logger.Warn("failed to record member-added notification",
			zap.String("project_id", projectID.String()),
			zap.String("user_id", targetID.String()),
			zap.Error(err))
	}
}

// RemoveMember removes a member. ADMIN only.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseUUIDParam(c, "user_id")
	if !ok {
		return
	}

	role, ok := resolveRole(c, h.membershipStore, projectID, userID)
	if !ok {
		return
	}
	if !role.Can(model.ActionRemoveMember) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only project admins can remove members"})
		return
	}

	if err := h.membershipStore.Remove(c.Request.Context(), projectID, targetID); err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// GetMembers lists the project's members. Any member may look.
func (h *ProjectHandler) GetMembers(c *gin.Context) {
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

	memberships, err := h.membershipStore.GetMembers(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	response := make([]MemberResponse, len(memberships))
	for i, m := range memberships {
		response[i] = MemberResponse{
			UserID: m.UserID.String(),
			Email:  m.User.Email,
			Name:   m.User.Name,
			Role:   string(m.Role),
		}
	}
	c.JSON(http.StatusOK, response)
}
