package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingPublisher captures published events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	boardID   uint64
	eventType string
}

func (p *recordingPublisher) Publish(boardID uint64, eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{boardID: boardID, eventType: eventType})
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}

// BoardServiceTestSuite defines the test suite for the ordering engine
type BoardServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	publisher *recordingPublisher
	service   *BoardService
	taskRepo  repository.TaskRepository
}

// SetupTest runs before each test
func (suite *BoardServiceTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.BoardMember{},
		&models.Column{},
		&models.Task{},
		&models.TaskDependency{},
		&models.Comment{},
	)
	suite.Require().NoError(err)

	suite.publisher = &recordingPublisher{}
	suite.taskRepo = repository.NewTaskRepository(suite.db)
	suite.service = NewBoardService(
		repository.NewBoardRepository(suite.db),
		suite.taskRepo,
		suite.publisher,
		NewBoardLocker(),
	)
}

// TearDownTest runs after each test
func (suite *BoardServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper functions to create test data

func (suite *BoardServiceTestSuite) createTestUser(username string) *models.User {
	user := &models.User{
		Username:     username,
		PasswordHash: "hashedpassword",
	}
	suite.db.Create(user)
	return user
}

func (suite *BoardServiceTestSuite) createTestBoard(title string) *models.Board {
	board := &models.Board{
		Title:      title,
		Visibility: models.VisibilityPrivate,
		InviteCode: title + "_CODE",
	}
	suite.db.Create(board)
	return board
}

func (suite *BoardServiceTestSuite) createTestColumn(boardID uint64, title string, position int) *models.Column {
	column := &models.Column{
		BoardID:  boardID,
		Title:    title,
		Position: position,
	}
	suite.db.Create(column)
	return column
}

func (suite *BoardServiceTestSuite) createTestTask(boardID, columnID uint64, title string, position int, creatorID uint64) *models.Task {
	task := &models.Task{
		BoardID:   boardID,
		ColumnID:  columnID,
		Title:     title,
		Position:  position,
		CreatorID: creatorID,
	}
	suite.db.Create(task)
	return task
}

// columnTaskTitles returns the titles of a column's tasks in stored order
func (suite *BoardServiceTestSuite) columnTaskTitles(columnID uint64) []string {
	tasks, err := suite.taskRepo.ListByColumn(columnID)
	suite.Require().NoError(err)
	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = t.Title
	}
	return titles
}

// assertGaplessPositions verifies a column's positions are 0..n-1
func (suite *BoardServiceTestSuite) assertGaplessPositions(columnID uint64) {
	tasks, err := suite.taskRepo.ListByColumn(columnID)
	suite.Require().NoError(err)
	for i, t := range tasks {
		assert.Equal(suite.T(), i, t.Position, "task %q has position %d, want %d", t.Title, t.Position, i)
	}
}

func (suite *BoardServiceTestSuite) TestAddColumn_AssignsSequentialPositions() {
	board := suite.createTestBoard("Project")

	updated, err := suite.service.AddColumn(board.ID, AddColumnInput{Title: "Todo"})
	suite.Require().NoError(err)
	suite.Require().Len(updated.Columns, 1)
	assert.Equal(suite.T(), 0, updated.Columns[0].Position)

	updated, err = suite.service.AddColumn(board.ID, AddColumnInput{Title: "Doing"})
	suite.Require().NoError(err)
	suite.Require().Len(updated.Columns, 2)
	assert.Equal(suite.T(), 1, updated.Columns[1].Position)
}

func (suite *BoardServiceTestSuite) TestAddColumn_ArchivedPositionStaysReserved() {
	board := suite.createTestBoard("Project")
	suite.createTestColumn(board.ID, "Todo", 0)
	archived := suite.createTestColumn(board.ID, "Old", 1)

	suite.Require().NoError(suite.service.ArchiveColumn(board.ID, archived.ID))

	updated, err := suite.service.AddColumn(board.ID, AddColumnInput{Title: "Doing"})
	suite.Require().NoError(err)

	// Position 1 belongs to the archived column; the new one gets 2
	suite.Require().Len(updated.Columns, 3)
	assert.Equal(suite.T(), 2, updated.Columns[2].Position)
}

func (suite *BoardServiceTestSuite) TestAddColumn_EmptyTitle() {
	board := suite.createTestBoard("Project")

	_, err := suite.service.AddColumn(board.ID, AddColumnInput{Title: "  "})
	assert.ErrorIs(suite.T(), err, ErrTitleRequired)
}

func (suite *BoardServiceTestSuite) TestAddColumn_BoardNotFound() {
	_, err := suite.service.AddColumn(9999, AddColumnInput{Title: "Todo"})
	assert.ErrorIs(suite.T(), err, ErrBoardNotFound)
}

func (suite *BoardServiceTestSuite) TestConcurrentAddColumn_UniquePositions() {
	board := suite.createTestBoard("Project")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.service.AddColumn(board.ID, AddColumnInput{Title: "Column"})
			assert.NoError(suite.T(), err)
		}()
	}
	wg.Wait()

	var columns []models.Column
	suite.db.Where("board_id = ?", board.ID).Find(&columns)
	suite.Require().Len(columns, 8)

	seen := make(map[int]bool)
	for _, col := range columns {
		assert.False(suite.T(), seen[col.Position], "position %d assigned twice", col.Position)
		seen[col.Position] = true
	}
}

// Scenario: add a task to an empty column, then move it to another column
func (suite *BoardServiceTestSuite) TestAddAndMoveTask_AcrossColumns() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("Project")
	todo := suite.createTestColumn(board.ID, "Todo", 0)
	doing := suite.createTestColumn(board.ID, "Doing", 1)
	suite.createTestColumn(board.ID, "Done", 2)

	task, err := suite.service.AddTask(board.ID, todo.ID, AddTaskInput{
		Title:     "Write spec",
		CreatorID: user.ID,
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 0, task.Position)
	assert.Equal(suite.T(), "Todo", task.Status)
	assert.Equal(suite.T(), []string{"Write spec"}, suite.columnTaskTitles(todo.ID))

	_, err = suite.service.MoveTask(board.ID, MoveTaskInput{
		TaskID:         task.ID,
		SourceColumnID: todo.ID,
		DestColumnID:   doing.ID,
		DestIndex:      0,
	})
	suite.Require().NoError(err)

	assert.Empty(suite.T(), suite.columnTaskTitles(todo.ID))
	assert.Equal(suite.T(), []string{"Write spec"}, suite.columnTaskTitles(doing.ID))

	moved, err := suite.taskRepo.FindByID(task.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), doing.ID, moved.ColumnID)
	assert.Equal(suite.T(), "Doing", moved.Status)
}

func (suite *BoardServiceTestSuite) TestAddTask_EmptyTitle() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("Project")
	todo := suite.createTestColumn(board.ID, "Todo", 0)

	_, err := suite.service.AddTask(board.ID, todo.ID, AddTaskInput{
		Title:     "",
		CreatorID: user.ID,
	})
	assert.ErrorIs(suite.T(), err, ErrTitleRequired)
}

func (suite *BoardServiceTestSuite) TestAddTask_ArchivedColumn() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("Project")
	col := suite.createTestColumn(board.ID, "Old", 0)
	suite.Require().NoError(suite.service.ArchiveColumn(board.ID, col.ID))

	_, err := suite.service.AddTask(board.ID, col.ID, AddTaskInput{
		Title:     "Too late",
		CreatorID: user.ID,
	})
	assert.ErrorIs(suite.T(), err, ErrColumnArchived)
}

// Scenario: reposition within a column ([A B C], move C to index 0 -> [C A B])
func (suite *BoardServiceTestSuite) TestMoveTask_WithinColumn() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("Project")
	doing := suite.createTestColumn(board.ID, "Doing", 0)
	suite.createTestTask(board.ID, doing.ID, "A", 0, user.ID)
	suite.createTestTask(board.ID, doing.ID, "B", 1, user.ID)
	c := suite.createTestTask(board.ID, doing.ID, "C", 2, user.ID)

	_, err := suite.service.MoveTask(board.ID, MoveTaskInput{
		TaskID:         c.ID,
		SourceColumnID: doing.ID,
		DestColumnID:   doing.ID,
		DestIndex:      0,
	})
	suite.Require().NoError(err)

	assert.Equal(suite.T(), []string{"C", "A", "B"}, suite.columnTaskTitles(doing.ID))
	suite.assertGaplessPositions(doing.ID)
	assert.Equal(suite.T(), 1, suite.publisher.count("task-moved"))
}

// failingReloadBoardRepo delegates to a real repository but fails the
// post-move board reload on demand
type failingReloadBoardRepo struct {
	repository.BoardRepository
	failReload bool
}

func (r *failingReloadBoardRepo) FindWithColumns(id uint64) (*models.Board, error) {
	if r.failReload {
		return nil, errors.New("connection lost")
	}
	return r.BoardRepository.FindWithColumns(id)
}

func (suite *BoardServiceTestSuite) TestMoveTask_NoEventWhenReloadFails() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("Project")
	todo := suite.createTestColumn(board.ID, "Todo", 0)
	doing := suite.createTestColumn(board.ID, "Doing", 1)
	task := suite.createTestTask(board.ID, todo.ID, "A", 0, user.ID)

	repo := &failingReloadBoardRepo{BoardRepository: repository.NewBoardRepository(suite.db)}
	service := NewBoardService(repo, suite.taskRepo, suite.publisher, NewBoardLocker())

	// The caller gets an error, so subscribers must not hear about the move
	repo.failReload = true
	_, err := service.MoveTask(board.ID, MoveTaskInput{
		TaskID:         task.ID,
		SourceColumnID: todo.ID,
		DestColumnID:   doing.ID,
		DestIndex:      0,
	})
	suite.Require().Error(err)
	assert.Equal(suite.T(), 0, suite.publisher.count("task-moved"))
}

func (suite *BoardServiceTestSuite) TestMoveTask_SamePositionIsNoOp() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("Project")
	doing := suite.createTestColumn(board.ID, "Doing", 0)
	suite.createTestTask(board.ID, doing.ID, "A", 0, user.ID)
	b := suite.createTestTask(board.ID, doing.ID, "B", 1, user.ID)

	before := suite.columnTaskTitles(doing.ID)
	eventsBefore := suite.publisher.count("task-moved")

	_, err := suite.service.MoveTask(board.ID, MoveTaskInput{
		TaskID:         b.ID,
		SourceColumnID: doing.ID,
		DestColumnID:   doing.ID,
		DestIndex:      1,
	})
	suite.Require().NoError(err)

	assert.Equal(suite.T(), before, suite.columnTaskTitles(doing.ID))
	assert.Equal(suite.T(), eventsBefore, suite.publisher.count("task-moved"), "no-op move must not broadcast")
}

func (suite *BoardServiceTestSuite) TestMoveTask_IndexOutOfRange_NoMutation() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("Project")
	todo := suite.createTestColumn(board.ID, "Todo", 0)
	doing := suite.createTestColumn(board.ID, "Doing", 1)
	a := suite.createTestTask(board.ID, todo.ID, "A", 0, user.ID)
	suite.createTestTask(board.ID, doing.ID, "B", 0, user.ID)

	todoBefore := suite.columnTaskTitles(todo.ID)
	doingBefore := suite.columnTaskTitles(doing.ID)

	_, err := suite.service.MoveTask(board.ID, MoveTaskInput{
		TaskID:         a.ID,
		SourceColumnID: todo.ID,
		DestColumnID:   doing.ID,
		DestIndex:      5,
	})
	assert.ErrorIs(suite.T(), err, ErrIndexOutOfRange)

	// Snapshot comparison: both columns are exactly as they were
	assert.Equal(suite.T(), todoBefore, suite.columnTaskTitles(todo.ID))
	assert.Equal(suite.T(), doingBefore, suite.columnTaskTitles(doing.ID))
}

func (suite *BoardServiceTestSuite) TestMoveTask_TaskNotInSourceColumn() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("Project")
	todo := suite.createTestColumn(board.ID, "Todo", 0)
	doing := suite.createTestColumn(board.ID, "Doing", 1)
	stranger := suite.createTestTask(board.ID, doing.ID, "B", 0, user.ID)

	_, err := suite.service.MoveTask(board.ID, MoveTaskInput{
		TaskID:         stranger.ID,
		SourceColumnID: todo.ID,
		DestColumnID:   todo.ID,
		DestIndex:      0,
	})
	assert.ErrorIs(suite.T(), err, ErrTaskNotFound)
}

func (suite *BoardServiceTestSuite) TestMoveTask_IntoArchivedColumn() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("Project")
	todo := suite.createTestColumn(board.ID, "Todo", 0)
	old := suite.createTestColumn(board.ID, "Old", 1)
	a := suite.createTestTask(board.ID, todo.ID, "A", 0, user.ID)
	suite.Require().NoError(suite.service.ArchiveColumn(board.ID, old.ID))

	_, err := suite.service.MoveTask(board.ID, MoveTaskInput{
		TaskID:         a.ID,
		SourceColumnID: todo.ID,
		DestColumnID:   old.ID,
		DestIndex:      0,
	})
	assert.ErrorIs(suite.T(), err, ErrColumnArchived)
}

// Two concurrent moves into the same column must both land, each exactly once
func (suite *BoardServiceTestSuite) TestMoveTask_ConcurrentIntoSameColumn() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("Project")
	colX := suite.createTestColumn(board.ID, "X", 0)
	colY := suite.createTestColumn(board.ID, "Y", 1)
	doing := suite.createTestColumn(board.ID, "Doing", 2)
	x := suite.createTestTask(board.ID, colX.ID, "X1", 0, user.ID)
	y := suite.createTestTask(board.ID, colY.ID, "Y1", 0, user.ID)
	suite.createTestTask(board.ID, doing.ID, "D1", 0, user.ID)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := suite.service.MoveTask(board.ID, MoveTaskInput{
			TaskID:         x.ID,
			SourceColumnID: colX.ID,
			DestColumnID:   doing.ID,
			DestIndex:      0,
		})
		assert.NoError(suite.T(), err)
	}()
	go func() {
		defer wg.Done()
		_, err := suite.service.MoveTask(board.ID, MoveTaskInput{
			TaskID:         y.ID,
			SourceColumnID: colY.ID,
			DestColumnID:   doing.ID,
			DestIndex:      0,
		})
		assert.NoError(suite.T(), err)
	}()
	wg.Wait()

	titles := suite.columnTaskTitles(doing.ID)
	suite.Require().Len(titles, 3)

	counts := make(map[string]int)
	for _, title := range titles {
		counts[title]++
	}
	assert.Equal(suite.T(), 1, counts["X1"])
	assert.Equal(suite.T(), 1, counts["Y1"])
	assert.Equal(suite.T(), 1, counts["D1"])

	suite.assertGaplessPositions(doing.ID)
	assert.Empty(suite.T(), suite.columnTaskTitles(colX.ID))
	assert.Empty(suite.T(), suite.columnTaskTitles(colY.ID))
}

func (suite *BoardServiceTestSuite) TestDeleteTask_ClosesOrderingGap() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("Project")
	doing := suite.createTestColumn(board.ID, "Doing", 0)
	suite.createTestTask(board.ID, doing.ID, "A", 0, user.ID)
	b := suite.createTestTask(board.ID, doing.ID, "B", 1, user.ID)
	suite.createTestTask(board.ID, doing.ID, "C", 2, user.ID)

	suite.Require().NoError(suite.service.DeleteTask(board.ID, b.ID))

	assert.Equal(suite.T(), []string{"A", "C"}, suite.columnTaskTitles(doing.ID))
	suite.assertGaplessPositions(doing.ID)
}

func (suite *BoardServiceTestSuite) TestArchiveColumn_ExcludedFromDefaultView() {
	board := suite.createTestBoard("Project")
	suite.createTestColumn(board.ID, "Todo", 0)
	old := suite.createTestColumn(board.ID, "Old", 1)

	suite.Require().NoError(suite.service.ArchiveColumn(board.ID, old.ID))

	visible, err := suite.service.GetBoard(board.ID, false)
	suite.Require().NoError(err)
	suite.Require().Len(visible.Columns, 1)
	assert.Equal(suite.T(), "Todo", visible.Columns[0].Title)

	all, err := suite.service.GetBoard(board.ID, true)
	suite.Require().NoError(err)
	assert.Len(suite.T(), all.Columns, 2)
}

func (suite *BoardServiceTestSuite) TestCreateBoard_CreatorBecomesAdmin() {
	user := suite.createTestUser("alice")

	board, err := suite.service.CreateBoard(CreateBoardInput{
		Title:     "Project",
		CreatorID: user.ID,
	})
	suite.Require().NoError(err)

	var member models.BoardMember
	err = suite.db.Where("board_id = ? AND user_id = ?", board.ID, user.ID).First(&member).Error
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.RoleAdmin, member.Role)
	assert.NotEmpty(suite.T(), board.InviteCode)
}

func TestBoardServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BoardServiceTestSuite))
}
