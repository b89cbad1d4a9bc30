package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/middleware"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

// BoardHandler coordinates board and column HTTP handlers.
type BoardHandler struct {
	boardService *services.BoardService
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(boardService *services.BoardService) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
	}
}

// ListBoards returns all boards the current user belongs to
func (h *BoardHandler) ListBoards(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	boards, err := h.boardService.ListBoards(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list boards")
		return
	}

	items := make([]dto.BoardListItemDTO, len(boards))
	for i, board := range boards {
		items[i] = dto.ToBoardListItemDTO(board)
	}

	c.JSON(http.StatusOK, gin.H{"boards": items})
}

// CreateBoard creates a new board owned by the current user
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateBoardRequest struct {
		Title       string                 `json:"title" binding:"required"`
		Description string                 `json:"description"`
		Visibility  models.BoardVisibility `json:"visibility"`
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, err := h.boardService.CreateBoard(services.CreateBoardInput{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		CreatorID:   userID,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToBoardDTO(*board, true))
}

// GetBoard returns a board with its columns and tasks in display order
func (h *BoardHandler) GetBoard(c *gin.Context) {
	board, ok := middleware.GetBoard(c)
	if !ok {
		apierrors.InternalError(c, "Board not found in context")
		return
	}

	includeArchived := c.Query("include_archived") == "true"

	full, err := h.boardService.GetBoard(board.ID, includeArchived)
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDTO(*full, true))
}

// UpdateBoard updates a board's title and description
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	board, ok := middleware.GetBoard(c)
	if !ok {
		apierrors.InternalError(c, "Board not found in context")
		return
	}

	type UpdateBoardRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.boardService.UpdateBoard(board.ID, services.UpdateBoardInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDTO(*updated, true))
}

// UpdateSettings updates a board's settings
func (h *BoardHandler) UpdateSettings(c *gin.Context) {
	board, ok := middleware.GetBoard(c)
	if !ok {
		apierrors.InternalError(c, "Board not found in context")
		return
	}

	type UpdateSettingsRequest struct {
		Visibility models.BoardVisibility `json:"visibility" binding:"required"`
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.boardService.UpdateSettings(board.ID, req.Visibility)
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDTO(*updated, true))
}

// DeleteBoard deletes a board and everything on it
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	board, ok := middleware.GetBoard(c)
	if !ok {
		apierrors.InternalError(c, "Board not found in context")
		return
	}

	if err := h.boardService.DeleteBoard(board.ID); err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Board deleted successfully",
	})
}

// JoinBoard adds the current user to a board via invite code
func (h *BoardHandler) JoinBoard(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type JoinBoardRequest struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}

	var req JoinBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, err := h.boardService.JoinBoard(req.InviteCode, userID)
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDTO(*board, false))
}

// AddColumn appends a new column to the board
func (h *BoardHandler) AddColumn(c *gin.Context) {
	board, ok := middleware.GetBoard(c)
	if !ok {
		apierrors.InternalError(c, "Board not found in context")
		return
	}

	type AddColumnRequest struct {
		Title string `json:"title" binding:"required"`
	}

	var req AddColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.boardService.AddColumn(board.ID, services.AddColumnInput{
		Title: req.Title,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToBoardDTO(*updated, false))
}

// ArchiveColumn marks a column as archived
func (h *BoardHandler) ArchiveColumn(c *gin.Context) {
	board, ok := middleware.GetBoard(c)
	if !ok {
		apierrors.InternalError(c, "Board not found in context")
		return
	}

	columnID, ok := parseIDParam(c, "column_id")
	if !ok {
		return
	}

	if err := h.boardService.ArchiveColumn(board.ID, columnID); err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Column archived successfully",
	})
}

// respondBoardError maps board service errors to HTTP responses
func respondBoardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBoardNotFound):
		apierrors.NotFound(c, "Board not found")
	case errors.Is(err, services.ErrColumnNotFound):
		apierrors.NotFound(c, "Column not found")
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrColumnArchived):
		apierrors.Conflict(c, "Column is archived")
	case errors.Is(err, services.ErrIndexOutOfRange):
		apierrors.RespondWithError(c, http.StatusBadRequest,
			apierrors.NewAPIError(apierrors.ErrCodeOutOfRange, "Destination index out of range"))
	case errors.Is(err, services.ErrTitleRequired), errors.Is(err, services.ErrTitleEmpty):
		apierrors.BadRequest(c, "Title is required")
	case errors.Is(err, services.ErrInvalidVisibility):
		apierrors.BadRequest(c, "Invalid board visibility")
	case errors.Is(err, services.ErrInvalidPriority):
		apierrors.BadRequest(c, "Invalid task priority")
	case errors.Is(err, services.ErrInvalidInviteCode):
		apierrors.NotFound(c, "Invalid invite code")
	case errors.Is(err, services.ErrAlreadyBoardMember):
		apierrors.Conflict(c, "You are already a member of this board")
	default:
		apierrors.InternalError(c, "")
	}
}
