package repository

import (
	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
)

// GormBoardRepository is a GORM implementation of BoardRepository
type GormBoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &GormBoardRepository{db: db}
}

// Create creates a new board
func (r *GormBoardRepository) Create(board *models.Board) error {
	return r.db.Create(board).Error
}

// FindByID finds a board by ID with optional preloading
func (r *GormBoardRepository) FindByID(id uint64, preload ...string) (*models.Board, error) {
	var board models.Board
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&board, id).Error; err != nil {
		return nil, err
	}

	return &board, nil
}

// FindWithColumns loads a board with its columns and tasks in display order.
// Archived columns are included; callers filter them out of default views.
func (r *GormBoardRepository) FindWithColumns(id uint64) (*models.Board, error) {
	var board models.Board
	err := r.db.
		Preload("Columns", func(db *gorm.DB) *gorm.DB {
			return db.Order("columns.position ASC")
		}).
		Preload("Columns.Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("tasks.position ASC")
		}).
		Preload("Members").
		First(&board, id).Error
	if err != nil {
		return nil, err
	}

	return &board, nil
}

// Update updates a board
func (r *GormBoardRepository) Update(board *models.Board) error {
	return r.db.Save(board).Error
}

// Delete deletes a board and all related data
func (r *GormBoardRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint64
		if err := tx.Model(&models.Task{}).Where("board_id = ?", id).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ? OR target_task_id IN ?", taskIDs, taskIDs).
				Delete(&models.TaskDependency{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ?", taskIDs).
				Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("board_id = ?", id).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("board_id = ?", id).Delete(&models.Column{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Delete(&models.BoardMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Board{}, id).Error
	})
}

// ListByUserID lists all boards a user is a member of
func (r *GormBoardRepository) ListByUserID(userID uint64) ([]models.Board, error) {
	var boards []models.Board
	err := r.db.
		Joins("JOIN board_members ON board_members.board_id = boards.id").
		Where("board_members.user_id = ?", userID).
		Order("boards.created_at DESC").
		Find(&boards).Error
	if err != nil {
		return nil, err
	}
	return boards, nil
}

// AddMember adds a member to a board
func (r *GormBoardRepository) AddMember(member *models.BoardMember) error {
	return r.db.Create(member).Error
}

// RemoveMember removes a member from a board
func (r *GormBoardRepository) RemoveMember(boardID, userID uint64) error {
	return r.db.Where("board_id = ? AND user_id = ?", boardID, userID).
		Delete(&models.BoardMember{}).Error
}

// FindMember finds a specific board member
func (r *GormBoardRepository) FindMember(boardID, userID uint64) (*models.BoardMember, error) {
	var member models.BoardMember
	if err := r.db.Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByInviteCode finds a board by invite code
func (r *GormBoardRepository) FindByInviteCode(code string) (*models.Board, error) {
	var board models.Board
	if err := r.db.Where("invite_code = ?", code).First(&board).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// CreateColumn creates a new column
func (r *GormBoardRepository) CreateColumn(column *models.Column) error {
	return r.db.Create(column).Error
}

// FindColumn finds a column belonging to a board
func (r *GormBoardRepository) FindColumn(boardID, columnID uint64) (*models.Column, error) {
	var column models.Column
	if err := r.db.Where("board_id = ?", boardID).
		First(&column, columnID).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// UpdateColumn updates a column
func (r *GormBoardRepository) UpdateColumn(column *models.Column) error {
	return r.db.Save(column).Error
}

// MaxColumnPosition returns the highest column position on a board, archived
// columns included so their positions stay reserved, or -1 with no columns.
func (r *GormBoardRepository) MaxColumnPosition(boardID uint64) (int, error) {
	var result struct {
		MaxPosition *int
	}
	err := r.db.Model(&models.Column{}).
		Select("MAX(position) AS max_position").
		Where("board_id = ?", boardID).
		Scan(&result).Error
	if err != nil {
		return 0, err
	}
	if result.MaxPosition == nil {
		return -1, nil
	}
	return *result.MaxPosition, nil
}
