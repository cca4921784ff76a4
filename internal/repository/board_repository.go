package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflow/internal/model"
)

type BoardRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewBoardRepository(db *gorm.DB, logger *zap.Logger) *BoardRepository {
	return &BoardRepository{db: db, logger: logger}
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	var board model.Board
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &board, nil
}

// GetByProject returns the project's boards in creation order.
func (r *BoardRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&boards).Error
	return boards, err
}

// CreateWithTask persists a new board and attaches the initiating task
// to it in the same transaction. The attached task's status is synced
// to the board's so the two never disagree.
func (r *BoardRepository) CreateWithTask(ctx context.Context, board *model.Board, taskID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(board).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateBoardStatus
			}
			return err
		}
		result := tx.Model(&model.Task{}).
			Where("id = ? AND project_id = ?", taskID, board.ProjectID).
			Updates(map[string]interface{}{"board_id": board.ID, "status": board.Status})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
}

// CreateOrFetch inserts a board for (project, status). When a
// concurrent caller won the race the unique index rejects the insert
// and the winner's row is fetched instead, so both callers converge on
// the same board.
func (r *BoardRepository) CreateOrFetch(ctx context.Context, board *model.Board) (*model.Board, error) {
	err := r.db.WithContext(ctx).Create(board).Error
	if err == nil {
		return board, nil
	}
	if !isUniqueViolation(err) {
		return nil, err
	}
	var existing model.Board
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", board.ProjectID, board.Status).
		First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// EnsureDefaults provisions a board for every status that has none in
// the project. Per-status failures are logged and skipped; whatever
// could be provisioned is still returned.
func (r *BoardRepository) EnsureDefaults(ctx context.Context, projectID uuid.UUID) ([]model.Board, error) {
	existing, err := r.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	have := make(map[model.Status]bool, len(existing))
	for _, board := range existing {
		have[board.Status] = true
	}

	boards := existing
	for _, status := range model.AllStatuses() {
		if have[status] {
			continue
		}
		board := &model.Board{
			ProjectID:   projectID,
			Name:        status.Label(),
			Status:      status,
			Description: fmt.Sprintf("Default board for tasks in the %s state", status.Label()),
		}
		created, err := r.CreateOrFetch(ctx, board)
		if err != nil {
			r.logger.Error("failed to provision default board",
				zap.String("project_id", projectID.String()),
				zap.String("status", string(status)),
				zap.Error(err))
			continue
		}
		boards = append(boards, *created)
	}
	return boards, nil
}

// Update replaces the board's name, description and status, and
// replaces its task set wholesale: tasks missing from taskIDs are
// detached, tasks present are attached with their status synced to the
// board's. The board row is locked for the duration so a concurrent
// task status change cannot interleave with the replacement.
func (r *BoardRepository) Update(ctx context.Context, board *model.Board, taskIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Board
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND project_id = ?", board.ID, board.ProjectID).
			First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBoardNotFound
			}
			return err
		}

		err = tx.Model(&model.Board{}).
			Where("id = ?", board.ID).
			Updates(map[string]interface{}{
				"name":        board.Name,
				"description": board.Description,
				"status":      board.Status,
			}).Error
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateBoardStatus
			}
			return err
		}

		detach := tx.Model(&model.Task{}).Where("board_id = ?", board.ID)
		if len(taskIDs) > 0 {
			detach = detach.Where("id NOT IN ?", taskIDs)
		}
		if err := detach.Update("board_id", nil).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			err := tx.Model(&model.Task{}).
				Where("id IN ? AND project_id = ?", taskIDs, board.ProjectID).
				Updates(map[string]interface{}{"board_id": board.ID, "status": board.Status}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// isUniqueViolation matches both gorm's translated error and the raw
// postgres unique_violation code.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
