package services

import "sync"

// BoardLocker serializes read-modify-write sequences per board. Every mutation
// of a board's columns, task order, or dependency graph runs inside the
// board's critical section, so list splices and cycle checks always see a
// consistent base state.
type BoardLocker struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// NewBoardLocker creates a new BoardLocker
func NewBoardLocker() *BoardLocker {
	return &BoardLocker{
		locks: make(map[uint64]*sync.Mutex),
	}
}

// Lock acquires the board's mutex and returns the matching unlock function.
func (l *BoardLocker) Lock(boardID uint64) func() {
	l.mu.Lock()
	m, ok := l.locks[boardID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[boardID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
