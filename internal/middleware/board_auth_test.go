package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMiddlewareDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.BoardMember{},
		&models.Column{},
		&models.Task{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func runBoardAccess(userID uint64, boardID string, extra ...gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/boards/"+boardID, nil)
	c.Params = gin.Params{{Key: "id", Value: boardID}}
	c.Set(constants.ContextKeyUserID, userID)

	handlers := append([]gin.HandlerFunc{RequireBoardAccess()}, extra...)
	for _, h := range handlers {
		h(c)
		if c.IsAborted() {
			break
		}
	}
	return w
}

func TestRequireBoardAccess_MemberPasses(t *testing.T) {
	db := setupMiddlewareDB(t)

	user := models.User{Username: "alice", PasswordHash: "x"}
	db.Create(&user)
	board := models.Board{Title: "Project", Visibility: models.VisibilityPrivate, InviteCode: "CODE"}
	db.Create(&board)
	db.Create(&models.BoardMember{BoardID: board.ID, UserID: user.ID, Role: models.RoleViewer})

	w := runBoardAccess(user.ID, "1")
	require.NotEqual(t, http.StatusNotFound, w.Code)
	require.NotEqual(t, http.StatusForbidden, w.Code)
}

func TestRequireBoardAccess_NonMemberGets404(t *testing.T) {
	db := setupMiddlewareDB(t)

	user := models.User{Username: "mallory", PasswordHash: "x"}
	db.Create(&user)
	board := models.Board{Title: "Secret", Visibility: models.VisibilityPrivate, InviteCode: "CODE"}
	db.Create(&board)

	// Non-members see the same 404 as a missing board
	w := runBoardAccess(user.ID, "1")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = runBoardAccess(user.ID, "999")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequireBoardAccess_InvalidID(t *testing.T) {
	setupMiddlewareDB(t)

	w := runBoardAccess(1, "not-a-number")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireBoardRole_ViewerCannotEdit(t *testing.T) {
	db := setupMiddlewareDB(t)

	user := models.User{Username: "viewer", PasswordHash: "x"}
	db.Create(&user)
	board := models.Board{Title: "Project", Visibility: models.VisibilityPrivate, InviteCode: "CODE"}
	db.Create(&board)
	db.Create(&models.BoardMember{BoardID: board.ID, UserID: user.ID, Role: models.RoleViewer})

	w := runBoardAccess(user.ID, "1", RequireBoardRole(models.RoleEditor))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireBoardRole_AdminSatisfiesEditor(t *testing.T) {
	db := setupMiddlewareDB(t)

	user := models.User{Username: "admin", PasswordHash: "x"}
	db.Create(&user)
	board := models.Board{Title: "Project", Visibility: models.VisibilityPrivate, InviteCode: "CODE"}
	db.Create(&board)
	db.Create(&models.BoardMember{BoardID: board.ID, UserID: user.ID, Role: models.RoleAdmin})

	w := runBoardAccess(user.ID, "1", RequireBoardRole(models.RoleEditor))
	require.NotEqual(t, http.StatusForbidden, w.Code)
}

func TestRequireTaskAccess_NonMemberGets404(t *testing.T) {
	db := setupMiddlewareDB(t)

	owner := models.User{Username: "owner", PasswordHash: "x"}
	db.Create(&owner)
	outsider := models.User{Username: "outsider", PasswordHash: "x"}
	db.Create(&outsider)

	board := models.Board{Title: "Project", Visibility: models.VisibilityPrivate, InviteCode: "CODE"}
	db.Create(&board)
	db.Create(&models.BoardMember{BoardID: board.ID, UserID: owner.ID, Role: models.RoleAdmin})
	column := models.Column{BoardID: board.ID, Title: "Todo", Position: 0}
	db.Create(&column)
	task := models.Task{BoardID: board.ID, ColumnID: column.ID, Title: "A", CreatorID: owner.ID}
	db.Create(&task)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/tasks/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set(constants.ContextKeyUserID, outsider.ID)

	RequireTaskAccess()(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
