package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/models"
)

// RequireBoardAccess checks that the user is a member of the board named by
// the :id route parameter and stores the board and membership in the context.
func RequireBoardAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		boardIDStr := c.Param("id")
		boardID, err := strconv.ParseUint(boardIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid board ID",
			})
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		var board models.Board
		if err := database.GetDB().First(&board, boardID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Board not found",
			})
			c.Abort()
			return
		}

		var member models.BoardMember
		err = database.GetDB().Where("board_id = ? AND user_id = ?", boardID, userID).First(&member).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking board existence
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Board not found",
			})
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyBoard, board)
		c.Set(constants.ContextKeyBoardMember, member)
		c.Next()
	}
}

// RequireBoardRole checks that the membership stored by RequireBoardAccess
// grants at least the given role.
func RequireBoardRole(required models.BoardRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		memberInterface, exists := c.Get(constants.ContextKeyBoardMember)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Board access required",
			})
			c.Abort()
			return
		}

		member, ok := memberInterface.(models.BoardMember)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Invalid membership data",
			})
			c.Abort()
			return
		}

		if !member.Role.AtLeast(required) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient board role",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetBoard retrieves the board stored by RequireBoardAccess
func GetBoard(c *gin.Context) (models.Board, bool) {
	boardInterface, exists := c.Get(constants.ContextKeyBoard)
	if !exists {
		return models.Board{}, false
	}
	board, ok := boardInterface.(models.Board)
	return board, ok
}
