// Package reconcile implements the client side of the board move protocol: a
// drag gesture is applied to the local copy of the board immediately, the
// authoritative move request is issued concurrently, and the local copy is
// then either overwritten with the server's response or rolled back.
package reconcile

import (
	"errors"

	"github.com/yukikurage/kanban-board-api/internal/models"
)

var (
	ErrColumnNotInView = errors.New("column not present in board view")
	ErrTaskNotInView   = errors.New("task not present in source column")
	ErrIndexOutOfRange = errors.New("destination index out of range")
	ErrNothingPending  = errors.New("no optimistic move to roll back")
)

// BoardView is an in-memory copy of a board held by a client. At most one
// optimistic move is pending at a time; a second ApplyMove before Reconcile
// or Rollback keeps the snapshot of the oldest pending state so a rollback
// always restores the last server-confirmed view.
type BoardView struct {
	board    models.Board
	snapshot *models.Board
}

// NewBoardView creates a view seeded from authoritative board state.
func NewBoardView(board models.Board) *BoardView {
	return &BoardView{board: cloneBoard(board)}
}

// Board returns a copy of the current local state.
func (v *BoardView) Board() models.Board {
	return cloneBoard(v.board)
}

// Pending reports whether an optimistic move awaits reconciliation.
func (v *BoardView) Pending() bool {
	return v.snapshot != nil
}

// ApplyMove performs the optimistic splice locally. The pre-move state is
// snapshotted for rollback.
func (v *BoardView) ApplyMove(taskID, sourceColumnID, destColumnID uint64, destIndex int) error {
	sourceIdx := v.columnIndex(sourceColumnID)
	destIdx := v.columnIndex(destColumnID)
	if sourceIdx < 0 || destIdx < 0 {
		return ErrColumnNotInView
	}

	source := &v.board.Columns[sourceIdx]
	taskIdx := -1
	for i, t := range source.Tasks {
		if t.ID == taskID {
			taskIdx = i
			break
		}
	}
	if taskIdx < 0 {
		return ErrTaskNotInView
	}

	task := source.Tasks[taskIdx]

	if sourceColumnID == destColumnID {
		if destIndex == taskIdx {
			return nil
		}
		if destIndex < 0 || destIndex > len(source.Tasks)-1 {
			return ErrIndexOutOfRange
		}
	} else {
		if destIndex < 0 || destIndex > len(v.board.Columns[destIdx].Tasks) {
			return ErrIndexOutOfRange
		}
	}

	if v.snapshot == nil {
		snap := cloneBoard(v.board)
		v.snapshot = &snap
	}

	source.Tasks = append(source.Tasks[:taskIdx], source.Tasks[taskIdx+1:]...)

	dest := &v.board.Columns[destIdx]
	task.ColumnID = dest.ID
	task.Status = dest.Title
	dest.Tasks = append(dest.Tasks, models.Task{})
	copy(dest.Tasks[destIndex+1:], dest.Tasks[destIndex:])
	dest.Tasks[destIndex] = task

	resequence(source)
	resequence(dest)

	return nil
}

// Reconcile overwrites local state with the server's authoritative board.
// The server response wins even when it differs from the optimistic guess.
func (v *BoardView) Reconcile(authoritative models.Board) {
	v.board = cloneBoard(authoritative)
	v.snapshot = nil
}

// Rollback discards the optimistic move and restores the last confirmed
// state. The caller is expected to re-fetch authoritative state afterwards.
func (v *BoardView) Rollback() error {
	if v.snapshot == nil {
		return ErrNothingPending
	}
	v.board = *v.snapshot
	v.snapshot = nil
	return nil
}

func (v *BoardView) columnIndex(columnID uint64) int {
	for i, col := range v.board.Columns {
		if col.ID == columnID {
			return i
		}
	}
	return -1
}

func resequence(col *models.Column) {
	for i := range col.Tasks {
		col.Tasks[i].Position = i
	}
}

func cloneBoard(board models.Board) models.Board {
	clone := board
	clone.Columns = make([]models.Column, len(board.Columns))
	for i, col := range board.Columns {
		colClone := col
		colClone.Tasks = append([]models.Task(nil), col.Tasks...)
		clone.Columns[i] = colClone
	}
	clone.Members = append([]models.BoardMember(nil), board.Members...)
	return clone
}
