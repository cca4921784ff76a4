package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Add creates a membership. The unique index on (project_id, user_id)
// rejects duplicates.
func (r *MembershipRepository) Add(ctx context.Context, membership *model.ProjectMembership) error {
	err := r.db.WithContext(ctx).Create(membership).Error
	if isUniqueViolation(err) {
		return ErrDuplicateMembership
	}
	return err
}

// Remove deletes the membership for (project, user).
func (r *MembershipRepository) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectMembership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// GetRole resolves the caller's role in a project. The second return
// value is false when the user is not a member; callers must treat that
// the same as the project not existing.
func (r *MembershipRepository) GetRole(ctx context.Context, projectID, userID uuid.UUID) (model.Role, bool, error) {
	var membership model.ProjectMembership
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return membership.Role, true, nil
}

// GetMembers returns the project's memberships with user records preloaded.
func (r *MembershipRepository) GetMembers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMembership, error) {
	var memberships []model.ProjectMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&memberships).Error
	return memberships, err
}

// GetMemberIDs returns the user ids of every member of the project.
func (r *MembershipRepository) GetMemberIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.ProjectMembership{}).
		Where("project_id = ?", projectID).
		Pluck("user_id", &ids).Error
	return ids, err
}
