package dto

import (
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// BoardMemberDTO represents a board membership in API responses
type BoardMemberDTO struct {
	UserID uint64           `json:"user_id"`
	Role   models.BoardRole `json:"role"`
}

// ColumnDTO represents a column with its ordered tasks
type ColumnDTO struct {
	ID         uint64    `json:"id"`
	Title      string    `json:"title"`
	Position   int       `json:"position"`
	IsArchived bool      `json:"is_archived"`
	Tasks      []TaskDTO `json:"tasks"`
}

// BoardDTO represents a board in API responses
type BoardDTO struct {
	ID          uint64                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Visibility  models.BoardVisibility `json:"visibility"`
	InviteCode  string                 `json:"invite_code,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	Members     []BoardMemberDTO       `json:"members,omitempty"`
	Columns     []ColumnDTO            `json:"columns"`
}

// BoardListItemDTO represents a board in list responses (minimal data)
type BoardListItemDTO struct {
	ID          uint64                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Visibility  models.BoardVisibility `json:"visibility"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToColumnDTO converts a Column model to ColumnDTO
func ToColumnDTO(column models.Column) ColumnDTO {
	tasks := make([]TaskDTO, len(column.Tasks))
	for i, task := range column.Tasks {
		tasks[i] = ToTaskDTO(task)
	}

	return ColumnDTO{
		ID:         column.ID,
		Title:      column.Title,
		Position:   column.Position,
		IsArchived: column.IsArchived,
		Tasks:      tasks,
	}
}

// ToBoardDTO converts a Board model to BoardDTO. The invite code is only
// included for members allowed to share it.
func ToBoardDTO(board models.Board, includeInviteCode bool) BoardDTO {
	dto := BoardDTO{
		ID:          board.ID,
		Title:       board.Title,
		Description: board.Description,
		Visibility:  board.Visibility,
		CreatedAt:   board.CreatedAt,
		UpdatedAt:   board.UpdatedAt,
		Columns:     make([]ColumnDTO, len(board.Columns)),
	}
	if includeInviteCode {
		dto.InviteCode = board.InviteCode
	}

	for i, column := range board.Columns {
		dto.Columns[i] = ToColumnDTO(column)
	}

	if len(board.Members) > 0 {
		dto.Members = make([]BoardMemberDTO, len(board.Members))
		for i, member := range board.Members {
			dto.Members[i] = BoardMemberDTO{
				UserID: member.UserID,
				Role:   member.Role,
			}
		}
	}

	return dto
}

// ToBoardListItemDTO converts a Board model to BoardListItemDTO
func ToBoardListItemDTO(board models.Board) BoardListItemDTO {
	return BoardListItemDTO{
		ID:          board.ID,
		Title:       board.Title,
		Description: board.Description,
		Visibility:  board.Visibility,
		CreatedAt:   board.CreatedAt,
	}
}
