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
	ErrBoardNotFound      = errors.New("board not found")
	ErrColumnNotFound     = errors.New("column not found")
	ErrColumnArchived     = errors.New("column is archived")
	ErrTaskNotFound       = errors.New("task not found")
	ErrIndexOutOfRange    = errors.New("destination index out of range")
	ErrTitleRequired      = errors.New("title is required")
	ErrInvalidVisibility  = errors.New("invalid board visibility")
	ErrInvalidPriority    = errors.New("invalid task priority")
	ErrInvalidInviteCode  = errors.New("invalid invite code")
	ErrAlreadyBoardMember = errors.New("user is already a member of this board")
)

// BoardService owns board lifecycle and the ordering engine: the ordered list
// of columns per board and the ordered list of tasks per column. All mutations
// of a board run inside its critical section.
type BoardService struct {
	boardRepo repository.BoardRepository
	taskRepo  repository.TaskRepository
	publisher events.Publisher
	locks     *BoardLocker
}

// NewBoardService creates a new BoardService
func NewBoardService(boardRepo repository.BoardRepository, taskRepo repository.TaskRepository, publisher events.Publisher, locks *BoardLocker) *BoardService {
	return &BoardService{
		boardRepo: boardRepo,
		taskRepo:  taskRepo,
		publisher: publisher,
		locks:     locks,
	}
}

// CreateBoardInput represents input for creating a board
type CreateBoardInput struct {
	Title       string
	Description string
	Visibility  models.BoardVisibility
	CreatorID   uint64
}

// CreateBoard creates a board with the creator as its admin member
func (s *BoardService) CreateBoard(input CreateBoardInput) (*models.Board, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	if input.Visibility == "" {
		input.Visibility = models.VisibilityPrivate
	}
	if !input.Visibility.IsValid() {
		return nil, ErrInvalidVisibility
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}

	board := &models.Board{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Visibility:  input.Visibility,
		InviteCode:  inviteCode,
	}

	if err := s.boardRepo.Create(board); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	member := &models.BoardMember{
		BoardID:  board.ID,
		UserID:   input.CreatorID,
		Role:     models.RoleAdmin,
		JoinedAt: time.Now(),
	}
	if err := s.boardRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add creator to board: %w", err)
	}

	s.publisher.Publish(board.ID, events.BoardCreated, board)

	return board, nil
}

// GetBoard returns a board with columns and tasks in display order. Archived
// columns are excluded unless includeArchived is set.
func (s *BoardService) GetBoard(boardID uint64, includeArchived bool) (*models.Board, error) {
	board, err := s.boardRepo.FindWithColumns(boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}

	if !includeArchived {
		visible := make([]models.Column, 0, len(board.Columns))
		for _, col := range board.Columns {
			if !col.IsArchived {
				visible = append(visible, col)
			}
		}
		board.Columns = visible
	}

	return board, nil
}

// ListBoards returns all boards the user is a member of
func (s *BoardService) ListBoards(userID uint64) ([]models.Board, error) {
	boards, err := s.boardRepo.ListByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// UpdateBoardInput represents input for updating board title/description
type UpdateBoardInput struct {
	Title       *string
	Description *string
}

// UpdateBoard updates a board's title and description
func (s *BoardService) UpdateBoard(boardID uint64, input UpdateBoardInput) (*models.Board, error) {
	unlock := s.locks.Lock(boardID)
	defer unlock()

	board, err := s.boardRepo.FindByID(boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleRequired
		}
		board.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		board.Description = *input.Description
	}

	if err := s.boardRepo.Update(board); err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}

	s.publisher.Publish(board.ID, events.BoardUpdated, board)

	return board, nil
}

// UpdateSettings updates a board's settings (currently its visibility)
func (s *BoardService) UpdateSettings(boardID uint64, visibility models.BoardVisibility) (*models.Board, error) {
	if !visibility.IsValid() {
		return nil, ErrInvalidVisibility
	}

	unlock := s.locks.Lock(boardID)
	defer unlock()

	board, err := s.boardRepo.FindByID(boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}

	board.Visibility = visibility

	if err := s.boardRepo.Update(board); err != nil {
		return nil, fmt.Errorf("failed to update board settings: %w", err)
	}

	s.publisher.Publish(board.ID, events.SettingsUpdated, board)

	return board, nil
}

// DeleteBoard deletes a board and everything on it
func (s *BoardService) DeleteBoard(boardID uint64) error {
	unlock := s.locks.Lock(boardID)
	defer unlock()

	if _, err := s.boardRepo.FindByID(boardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBoardNotFound
		}
		return fmt.Errorf("failed to find board: %w", err)
	}

	if err := s.boardRepo.Delete(boardID); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}

	s.publisher.Publish(boardID, events.BoardDeleted, map[string]uint64{"board_id": boardID})

	return nil
}

// JoinBoard adds the user to the board matching the invite code as an editor
func (s *BoardService) JoinBoard(inviteCode string, userID uint64) (*models.Board, error) {
	board, err := s.boardRepo.FindByInviteCode(inviteCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}

	if _, err := s.boardRepo.FindMember(board.ID, userID); err == nil {
		return nil, ErrAlreadyBoardMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	member := &models.BoardMember{
		BoardID:  board.ID,
		UserID:   userID,
		Role:     models.RoleEditor,
		JoinedAt: time.Now(),
	}
	if err := s.boardRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return board, nil
}

// AddColumnInput represents input for adding a column
type AddColumnInput struct {
	Title string
}

// AddColumn appends a new column to the board. Its position is one past the
// highest existing position, archived columns included, so that un-archiving
// can never collide with a reused position.
func (s *BoardService) AddColumn(boardID uint64, input AddColumnInput) (*models.Board, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	unlock := s.locks.Lock(boardID)
	defer unlock()

	if _, err := s.boardRepo.FindByID(boardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}

	maxPos, err := s.boardRepo.MaxColumnPosition(boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to determine column position: %w", err)
	}

	column := &models.Column{
		BoardID:  boardID,
		Title:    strings.TrimSpace(input.Title),
		Position: maxPos + 1,
	}
	if err := s.boardRepo.CreateColumn(column); err != nil {
		return nil, fmt.Errorf("failed to create column: %w", err)
	}

	s.publisher.Publish(boardID, events.ColumnAdded, column)

	return s.boardRepo.FindWithColumns(boardID)
}

// ArchiveColumn marks a column archived. Its tasks are kept but drop out of
// default board views; its position stays reserved.
func (s *BoardService) ArchiveColumn(boardID, columnID uint64) error {
	unlock := s.locks.Lock(boardID)
	defer unlock()

	column, err := s.boardRepo.FindColumn(boardID, columnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrColumnNotFound
		}
		return fmt.Errorf("failed to find column: %w", err)
	}

	if column.IsArchived {
		return nil
	}

	column.IsArchived = true
	if err := s.boardRepo.UpdateColumn(column); err != nil {
		return fmt.Errorf("failed to archive column: %w", err)
	}

	s.publisher.Publish(boardID, events.ColumnArchived, column)

	return nil
}

// AddTaskInput represents input for adding a task to a column
type AddTaskInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	DueDate     *time.Time
	CreatorID   uint64
}

// AddTask appends a task to the end of a column's task list
func (s *BoardService) AddTask(boardID, columnID uint64, input AddTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	unlock := s.locks.Lock(boardID)
	defer unlock()

	column, err := s.boardRepo.FindColumn(boardID, columnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, fmt.Errorf("failed to find column: %w", err)
	}
	if column.IsArchived {
		return nil, ErrColumnArchived
	}

	tasks, err := s.taskRepo.ListByColumn(column.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load column tasks: %w", err)
	}

	task := &models.Task{
		BoardID:     boardID,
		ColumnID:    column.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Priority:    input.Priority,
		Status:      column.Title,
		Position:    len(tasks),
		DueDate:     input.DueDate,
		CreatorID:   input.CreatorID,
	}
	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.publisher.Publish(boardID, events.TaskAdded, task)

	return s.taskRepo.FindByID(task.ID, "Creator")
}

// MoveTaskInput represents input for moving a task
type MoveTaskInput struct {
	TaskID         uint64
	SourceColumnID uint64
	DestColumnID   uint64
	DestIndex      int
}

// TaskMovedPayload is broadcast on the board channel after a successful move
type TaskMovedPayload struct {
	BoardID        uint64 `json:"board_id"`
	TaskID         uint64 `json:"task_id"`
	SourceColumnID uint64 `json:"source_column_id"`
	DestColumnID   uint64 `json:"dest_column_id"`
	DestIndex      int    `json:"dest_index"`
}

// MoveTask removes the task from its source column and inserts it at
// DestIndex in the destination column, shifting later tasks right. Both
// columns are resequenced and persisted atomically, and the full board is
// returned so the caller can resynchronize its local state. A same-column
// same-index move short-circuits without writing or emitting an event.
func (s *BoardService) MoveTask(boardID uint64, input MoveTaskInput) (*models.Board, error) {
	unlock := s.locks.Lock(boardID)
	defer unlock()

	source, err := s.boardRepo.FindColumn(boardID, input.SourceColumnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, fmt.Errorf("failed to find source column: %w", err)
	}

	dest := source
	if input.DestColumnID != input.SourceColumnID {
		dest, err = s.boardRepo.FindColumn(boardID, input.DestColumnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrColumnNotFound
			}
			return nil, fmt.Errorf("failed to find destination column: %w", err)
		}
	}
	if dest.IsArchived {
		return nil, ErrColumnArchived
	}

	sourceTasks, err := s.taskRepo.ListByColumn(source.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source tasks: %w", err)
	}

	taskIndex := -1
	for i, t := range sourceTasks {
		if t.ID == input.TaskID {
			taskIndex = i
			break
		}
	}
	if taskIndex == -1 {
		return nil, ErrTaskNotFound
	}

	if source.ID == dest.ID {
		if input.DestIndex == taskIndex {
			// No-op move: nothing to write, nothing to broadcast
			return s.boardRepo.FindWithColumns(boardID)
		}
		if input.DestIndex < 0 || input.DestIndex > len(sourceTasks)-1 {
			return nil, ErrIndexOutOfRange
		}

		moved := sourceTasks[taskIndex]
		remaining := append([]models.Task{}, sourceTasks[:taskIndex]...)
		remaining = append(remaining, sourceTasks[taskIndex+1:]...)

		reordered := append([]models.Task{}, remaining[:input.DestIndex]...)
		reordered = append(reordered, moved)
		reordered = append(reordered, remaining[input.DestIndex:]...)

		placements := placementsFor(reordered, source.ID, source.Title)
		if err := s.taskRepo.Reorder(placements); err != nil {
			return nil, fmt.Errorf("failed to reorder tasks: %w", err)
		}
	} else {
		destTasks, err := s.taskRepo.ListByColumn(dest.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load destination tasks: %w", err)
		}
		if input.DestIndex < 0 || input.DestIndex > len(destTasks) {
			return nil, ErrIndexOutOfRange
		}

		moved := sourceTasks[taskIndex]
		remaining := append([]models.Task{}, sourceTasks[:taskIndex]...)
		remaining = append(remaining, sourceTasks[taskIndex+1:]...)

		inserted := append([]models.Task{}, destTasks[:input.DestIndex]...)
		inserted = append(inserted, moved)
		inserted = append(inserted, destTasks[input.DestIndex:]...)

		placements := placementsFor(remaining, source.ID, source.Title)
		placements = append(placements, placementsFor(inserted, dest.ID, dest.Title)...)
		if err := s.taskRepo.Reorder(placements); err != nil {
			return nil, fmt.Errorf("failed to reorder tasks: %w", err)
		}
	}

	// The event goes out only once the caller is guaranteed a success
	// response; an error on the re-read must not leave subscribers ahead of
	// the caller.
	board, err := s.boardRepo.FindWithColumns(boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload board: %w", err)
	}

	s.publisher.Publish(boardID, events.TaskMoved, TaskMovedPayload{
		BoardID:        boardID,
		TaskID:         input.TaskID,
		SourceColumnID: source.ID,
		DestColumnID:   dest.ID,
		DestIndex:      input.DestIndex,
	})

	return board, nil
}

// DeleteTask removes a task, cascades its dependency edges, and closes the
// gap it leaves in its column's ordering.
func (s *BoardService) DeleteTask(boardID, taskID uint64) error {
	unlock := s.locks.Lock(boardID)
	defer unlock()

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}
	if task.BoardID != boardID {
		return ErrTaskNotFound
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	column, err := s.boardRepo.FindColumn(boardID, task.ColumnID)
	if err != nil {
		return fmt.Errorf("failed to find column: %w", err)
	}

	tasks, err := s.taskRepo.ListByColumn(column.ID)
	if err != nil {
		return fmt.Errorf("failed to load column tasks: %w", err)
	}
	if err := s.taskRepo.Reorder(placementsFor(tasks, column.ID, column.Title)); err != nil {
		return fmt.Errorf("failed to resequence column: %w", err)
	}

	s.publisher.Publish(boardID, events.TaskDeleted, map[string]uint64{
		"board_id": boardID,
		"task_id":  taskID,
	})

	return nil
}

// placementsFor assigns gapless zero-based positions to tasks in list order
func placementsFor(tasks []models.Task, columnID uint64, status string) []repository.TaskPlacement {
	placements := make([]repository.TaskPlacement, len(tasks))
	for i, t := range tasks {
		placements[i] = repository.TaskPlacement{
			TaskID:   t.ID,
			ColumnID: columnID,
			Position: i,
			Status:   status,
		}
	}
	return placements
}
