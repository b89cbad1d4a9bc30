package repository

import (
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

// TaskPlacement describes where a task lives after a reorder: its column, its
// zero-based position in that column, and the denormalized status string.
type TaskPlacement struct {
	TaskID   uint64
	ColumnID uint64
	Position int
	Status   string
}

// BoardRepository defines the interface for board, member and column data access
type BoardRepository interface {
	// Create creates a new board
	Create(board *models.Board) error

	// FindByID finds a board by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Board, error)

	// FindWithColumns loads a board with columns ordered by position and each
	// column's tasks ordered by position
	FindWithColumns(id uint64) (*models.Board, error)

	// Update updates a board
	Update(board *models.Board) error

	// Delete deletes a board and all related data
	Delete(id uint64) error

	// ListByUserID lists all boards a user is a member of
	ListByUserID(userID uint64) ([]models.Board, error)

	// AddMember adds a member to a board
	AddMember(member *models.BoardMember) error

	// RemoveMember removes a member from a board
	RemoveMember(boardID, userID uint64) error

	// FindMember finds a specific board member
	FindMember(boardID, userID uint64) (*models.BoardMember, error)

	// FindByInviteCode finds a board by invite code
	FindByInviteCode(code string) (*models.Board, error)

	// CreateColumn creates a new column
	CreateColumn(column *models.Column) error

	// FindColumn finds a column belonging to a board
	FindColumn(boardID, columnID uint64) (*models.Column, error)

	// UpdateColumn updates a column
	UpdateColumn(column *models.Column) error

	// MaxColumnPosition returns the highest column position on a board,
	// archived columns included, or -1 if the board has no columns
	MaxColumnPosition(boardID uint64) (int, error)
}

// TaskRepository defines the interface for task, dependency and comment data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// UpdateMetadata persists a task's metadata fields. Placement fields
	// (column, position, status) are never written by this method; those go
	// through Reorder.
	UpdateMetadata(task *models.Task) error

	// Delete deletes a task together with its comments and every dependency
	// edge referencing it in either direction
	Delete(id uint64) error

	// ListByColumn lists a column's tasks ordered by position
	ListByColumn(columnID uint64) ([]models.Task, error)

	// Reorder applies a set of task placements as a single atomic update
	Reorder(placements []TaskPlacement) error

	// ListDependencies lists a task's outgoing dependency edges with targets
	// preloaded, ordered by creation time
	ListDependencies(taskID uint64) ([]models.TaskDependency, error)

	// FindDependency finds the edge for an ordered (task, target) pair
	FindDependency(taskID, targetTaskID uint64) (*models.TaskDependency, error)

	// ListBlockEdges lists all blocks/blocked-by edges between tasks of a board
	ListBlockEdges(boardID uint64) ([]models.TaskDependency, error)

	// CreateDependencyPair writes a forward edge and its mirrored reverse edge
	// atomically
	CreateDependencyPair(forward, reverse *models.TaskDependency) error

	// DeleteDependencyPair removes the edges for both orderings of a pair
	// atomically
	DeleteDependencyPair(taskID, targetTaskID uint64) error

	// CreateComment creates a comment on a task
	CreateComment(comment *models.Comment) error

	// ListComments lists a page of a task's comments ordered by creation
	// time, returning the total comment count alongside the page
	ListComments(taskID uint64, params utils.PaginationParams) ([]models.Comment, int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}
