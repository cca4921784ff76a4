package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflow/internal/model"
)

var (
	ErrTaskNotFound = errors.New("task not found")

	// ErrBoardNotProvisioned is returned when a status change has no
	// target board to re-home the task into. The status write is
	// deferred entirely in that case.
	ErrBoardNotProvisioned = errors.New("no board exists for this status yet")
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task. When the project already has a board for the
// task's status the task is homed there immediately; otherwise it is
// left unhomed until default boards are provisioned.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var board model.Board
		err := tx.Where("project_id = ? AND status = ?", task.ProjectID, task.Status).
			Order("created_at ASC").
			First(&board).Error
		if err == nil {
			task.BoardID = &board.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(task).Error
	})
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// GetByProject retrieves all tasks in a project, oldest first.
func (r *TaskRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// ApplyStatusChange moves a task to a new status. The status write and
// the board re-homing happen in one transaction: either both land or
// neither does. When the project has no board for the new status the
// whole change is deferred and ErrBoardNotProvisioned is returned —
// the task is never left with an updated status and a stale board.
func (r *TaskRepository) ApplyStatusChange(ctx context.Context, taskID uuid.UUID, status model.Status) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, "id = ?", taskID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		var board model.Board
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("project_id = ? AND status = ?", task.ProjectID, status).
			Order("created_at ASC").
			First(&board).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBoardNotProvisioned
			}
			return err
		}

		task.Status = status
		task.BoardID = &board.ID
		return tx.Save(&task).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
