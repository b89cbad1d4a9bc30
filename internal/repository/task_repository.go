package repository

import (
	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// UpdateMetadata persists a task's metadata fields through an explicit column
// list, so a stale in-memory copy can never write back placement fields.
func (r *GormTaskRepository) UpdateMetadata(task *models.Task) error {
	return r.db.Model(task).
		Select("title", "description", "priority", "due_date", "assignee_id").
		Updates(task).Error
}

// Delete deletes a task, its comments, and every dependency edge that
// references it in either direction (cascade policy).
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ? OR target_task_id = ?", id, id).
			Delete(&models.TaskDependency{}).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// ListByColumn lists a column's tasks ordered by position
func (r *GormTaskRepository) ListByColumn(columnID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.Where("column_id = ?", columnID).
		Order("position ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Reorder applies a set of task placements as a single atomic update. A reader
// never observes a task missing from both columns or present in both.
func (r *GormTaskRepository) Reorder(placements []TaskPlacement) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range placements {
			err := tx.Model(&models.Task{}).
				Where("id = ?", p.TaskID).
				Updates(map[string]interface{}{
					"column_id": p.ColumnID,
					"position":  p.Position,
					"status":    p.Status,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ListDependencies lists a task's outgoing dependency edges with targets preloaded
func (r *GormTaskRepository) ListDependencies(taskID uint64) ([]models.TaskDependency, error) {
	var deps []models.TaskDependency
	err := r.db.Where("task_id = ?", taskID).
		Preload("Target").
		Order("created_at ASC").
		Find(&deps).Error
	if err != nil {
		return nil, err
	}
	return deps, nil
}

// FindDependency finds the edge for an ordered (task, target) pair
func (r *GormTaskRepository) FindDependency(taskID, targetTaskID uint64) (*models.TaskDependency, error) {
	var dep models.TaskDependency
	if err := r.db.Where("task_id = ? AND target_task_id = ?", taskID, targetTaskID).
		First(&dep).Error; err != nil {
		return nil, err
	}
	return &dep, nil
}

// ListBlockEdges lists all blocks/blocked-by edges between tasks of a board
func (r *GormTaskRepository) ListBlockEdges(boardID uint64) ([]models.TaskDependency, error) {
	var deps []models.TaskDependency
	err := r.db.
		Joins("JOIN tasks ON tasks.id = task_dependencies.task_id").
		Where("tasks.board_id = ?", boardID).
		Where("task_dependencies.type IN ?", []models.DependencyType{
			models.DependencyBlocks,
			models.DependencyBlockedBy,
		}).
		Find(&deps).Error
	if err != nil {
		return nil, err
	}
	return deps, nil
}

// CreateDependencyPair writes the forward edge and its mirrored reverse edge
// atomically; neither is retained if either write fails.
func (r *GormTaskRepository) CreateDependencyPair(forward, reverse *models.TaskDependency) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(forward).Error; err != nil {
			return err
		}
		return tx.Create(reverse).Error
	})
}

// DeleteDependencyPair removes the edges for both orderings of a pair atomically
func (r *GormTaskRepository) DeleteDependencyPair(taskID, targetTaskID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ? AND target_task_id = ?", taskID, targetTaskID).
			Delete(&models.TaskDependency{}).Error; err != nil {
			return err
		}
		return tx.Where("task_id = ? AND target_task_id = ?", targetTaskID, taskID).
			Delete(&models.TaskDependency{}).Error
	})
}

// CreateComment creates a comment on a task
func (r *GormTaskRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// ListComments lists a page of a task's comments ordered by creation time
func (r *GormTaskRepository) ListComments(taskID uint64, params utils.PaginationParams) ([]models.Comment, int64, error) {
	var total int64
	if err := r.db.Model(&models.Comment{}).
		Where("task_id = ?", taskID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := r.db.Where("task_id = ?", taskID).
		Preload("Author").
		Order("created_at ASC").
		Order("id ASC").
		Scopes(database.Paginate(params)).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}
