package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/events"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTitleEmpty         = errors.New("title cannot be empty")
	ErrAssigneeNotMember  = errors.New("assignee is not a member of the board")
	ErrCommentBodyMissing = errors.New("comment body is required")
	ErrInvalidDueDate     = errors.New("due date must be RFC3339")
)

// parseDueDate parses an RFC3339 due date from a request
func parseDueDate(value string) (*time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, ErrInvalidDueDate
	}
	return &t, nil
}

// TaskService handles task metadata and comments. Column membership and
// ordering are owned by BoardService; updates here never touch ColumnID,
// Position or Status, and they run inside the board's critical section so a
// concurrent move is never overwritten.
type TaskService struct {
	taskRepo  repository.TaskRepository
	boardRepo repository.BoardRepository
	publisher events.Publisher
	locks     *BoardLocker
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, boardRepo repository.BoardRepository, publisher events.Publisher, locks *BoardLocker) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		boardRepo: boardRepo,
		publisher: publisher,
		locks:     locks,
	}
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Assignee", "Dependencies", "Dependencies.Target", "Comments", "Comments.Author")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// UpdateTaskInput represents input for updating a task. Only these fields are
// mutable through the API; everything else is rejected at the handler.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Priority      *models.TaskPriority
	DueDate       *string // RFC3339, empty string clears
	AssigneeID    *uint64
	ClearAssignee bool
}

// UpdateTask applies an allow-listed field update to a task
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	// A task never changes boards, so the ID read above is a stable lock key.
	// The task itself is re-read inside the critical section.
	unlock := s.locks.Lock(task.BoardID)
	defer unlock()

	task, err = s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		if *input.DueDate == "" {
			task.DueDate = nil
		} else {
			due, err := parseDueDate(*input.DueDate)
			if err != nil {
				return nil, err
			}
			task.DueDate = due
		}
	}
	if input.ClearAssignee {
		task.AssigneeID = nil
	} else if input.AssigneeID != nil {
		if _, err := s.boardRepo.FindMember(task.BoardID, *input.AssigneeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssigneeNotMember
			}
			return nil, fmt.Errorf("failed to verify assignee: %w", err)
		}
		task.AssigneeID = input.AssigneeID
	}

	if err := s.taskRepo.UpdateMetadata(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.publisher.Publish(task.BoardID, events.TaskUpdated, task)

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
}

// AddComment adds a comment to a task
func (s *TaskService) AddComment(taskID, authorID uint64, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrCommentBodyMissing
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	comment := &models.Comment{
		TaskID:   taskID,
		AuthorID: authorID,
		Body:     body,
	}
	if err := s.taskRepo.CreateComment(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.publisher.Publish(task.BoardID, events.CommentAdded, comment)

	return comment, nil
}

// ListComments lists a page of a task's comments in creation order
func (s *TaskService) ListComments(taskID uint64, params utils.PaginationParams) ([]models.Comment, int64, error) {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrTaskNotFound
		}
		return nil, 0, fmt.Errorf("failed to find task: %w", err)
	}

	comments, total, err := s.taskRepo.ListComments(taskID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}
