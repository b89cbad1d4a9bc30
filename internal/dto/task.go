package dto

import (
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
)

// DependencyDTO represents one typed edge in API responses
type DependencyDTO struct {
	Type   models.DependencyType `json:"type"`
	Target *TaskDTO              `json:"target,omitempty"`
}

// CommentDTO represents a task comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	Body      string    `json:"body"`
	AuthorID  uint64    `json:"author_id"`
	Author    *UserDTO  `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID           uint64              `json:"id"`
	BoardID      uint64              `json:"board_id"`
	ColumnID     uint64              `json:"column_id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Priority     models.TaskPriority `json:"priority"`
	Status       string              `json:"status"`
	Position     int                 `json:"position"`
	DueDate      *time.Time          `json:"due_date"`
	AssigneeID   *uint64             `json:"assignee_id"`
	CreatorID    uint64              `json:"creator_id"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Creator      *UserDTO            `json:"creator,omitempty"`
	Assignee     *UserDTO            `json:"assignee,omitempty"`
	Dependencies []DependencyDTO     `json:"dependencies,omitempty"`
	Comments     []CommentDTO        `json:"comments,omitempty"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		BoardID:     task.BoardID,
		ColumnID:    task.ColumnID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      task.Status,
		Position:    task.Position,
		DueDate:     task.DueDate,
		AssigneeID:  task.AssigneeID,
		CreatorID:   task.CreatorID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	// Include assignee if preloaded
	if task.Assignee != nil && task.Assignee.ID != 0 {
		assignee := ToUserDTO(*task.Assignee)
		dto.Assignee = &assignee
	}

	if len(task.Dependencies) > 0 {
		dto.Dependencies = ToDependencyDTOs(task.Dependencies)
	}

	if len(task.Comments) > 0 {
		dto.Comments = make([]CommentDTO, len(task.Comments))
		for i, comment := range task.Comments {
			dto.Comments[i] = ToCommentDTO(comment)
		}
	}

	return dto
}

// ToDependencyDTOs converts dependency edges to DTOs, preserving order
func ToDependencyDTOs(deps []models.TaskDependency) []DependencyDTO {
	dtos := make([]DependencyDTO, len(deps))
	for i, dep := range deps {
		dtos[i] = DependencyDTO{Type: dep.Type}
		if dep.Target.ID != 0 {
			target := ToTaskDTO(dep.Target)
			dtos[i].Target = &target
		}
	}
	return dtos
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:        comment.ID,
		Body:      comment.Body,
		AuthorID:  comment.AuthorID,
		CreatedAt: comment.CreatedAt,
	}

	if comment.Author.ID != 0 {
		author := ToUserDTO(comment.Author)
		dto.Author = &author
	}

	return dto
}
