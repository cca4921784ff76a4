package handler

import (
	"context"
	"net/http"

	"taskflow/internal/middleware"
	"taskflow/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MembershipStore resolves and mutates project memberships.
type MembershipStore interface {
	Add(ctx context.Context, membership *model.ProjectMembership) error
	Remove(ctx context.Context, projectID, userID uuid.UUID) error
	GetRole(ctx context.Context, projectID, userID uuid.UUID) (model.Role, bool, error)
	GetMembers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMembership, error)
	GetMemberIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error)
}

// Notifier appends entries to a user's notification ledger.
type Notifier interface {
	Create(ctx context.Context, notification *model.Notification) error
}

// currentUserID pulls the authenticated user's id out of the gin
// context (set by the auth middleware). Writes the error response
// itself when the id is missing or malformed.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}

	userID, ok := value.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return userID, true
}

// resolveRole answers every non-member with the same 404 a missing
// project would produce, so a non-member cannot learn whether the
// project exists.
func resolveRole(c *gin.Context, store MembershipStore, projectID, userID uuid.UUID) (model.Role, bool) {
	role, found, err := store.GetRole(c.Request.Context(), projectID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check project access"})
		return "", false
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return "", false
	}
	return role, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return uuid.Nil, false
	}
	return id, true
}
