package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/kanban-board-api/internal/events"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidDependencyType = errors.New("invalid dependency type")
	ErrSelfDependency        = errors.New("a task cannot depend on itself")
	ErrCrossBoardDependency  = errors.New("tasks belong to different boards")
	ErrDependencyExists      = errors.New("a dependency between these tasks already exists")
	ErrDependencyNotFound    = errors.New("dependency not found")
	ErrCircularDependency    = errors.New("adding this dependency would create a circular dependency")
)

// DependencyService maintains the typed dependency edges between tasks. Every
// edge has a mirrored counterpart on the target task (blocks <-> blocked-by,
// relates-to <-> relates-to) and the blocks subgraph of each board is kept
// acyclic. At most one edge exists per ordered pair of tasks; re-adding is a
// conflict, not a no-op.
type DependencyService struct {
	taskRepo  repository.TaskRepository
	publisher events.Publisher
	locks     *BoardLocker
}

// NewDependencyService creates a new DependencyService
func NewDependencyService(taskRepo repository.TaskRepository, publisher events.Publisher, locks *BoardLocker) *DependencyService {
	return &DependencyService{
		taskRepo:  taskRepo,
		publisher: publisher,
		locks:     locks,
	}
}

// DependencyAddedPayload is broadcast on the board channel after an edge is added
type DependencyAddedPayload struct {
	BoardID      uint64                `json:"board_id"`
	TaskID       uint64                `json:"task_id"`
	TargetTaskID uint64                `json:"target_task_id"`
	Type         models.DependencyType `json:"type"`
}

// AddDependency creates a typed edge from source to target plus the mirrored
// reverse edge, rejecting self-edges, duplicate pairs, and any blocks edge
// that would close a cycle. On rejection neither task is mutated.
func (s *DependencyService) AddDependency(sourceID, targetID uint64, depType models.DependencyType) (*models.Task, error) {
	if !depType.IsValid() {
		return nil, ErrInvalidDependencyType
	}
	if sourceID == targetID {
		return nil, ErrSelfDependency
	}

	source, err := s.taskRepo.FindByID(sourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find source task: %w", err)
	}

	// The board lock makes every check below race-free against concurrent
	// mutations on the same board. Task deletion cascades under this lock,
	// so both tasks are validated inside the critical section; the read above
	// only learns the lock key.
	unlock := s.locks.Lock(source.BoardID)
	defer unlock()

	source, err = s.taskRepo.FindByID(sourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find source task: %w", err)
	}

	target, err := s.taskRepo.FindByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find target task: %w", err)
	}

	if source.BoardID != target.BoardID {
		return nil, ErrCrossBoardDependency
	}

	if _, err := s.taskRepo.FindDependency(sourceID, targetID); err == nil {
		return nil, ErrDependencyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing dependency: %w", err)
	}

	if depType == models.DependencyBlocks || depType == models.DependencyBlockedBy {
		cyclic, err := s.wouldCreateCycle(source.BoardID, sourceID, targetID, depType)
		if err != nil {
			return nil, err
		}
		if cyclic {
			return nil, ErrCircularDependency
		}
	}

	forward := &models.TaskDependency{
		TaskID:       sourceID,
		TargetTaskID: targetID,
		Type:         depType,
	}
	reverse := &models.TaskDependency{
		TaskID:       targetID,
		TargetTaskID: sourceID,
		Type:         depType.Mirror(),
	}
	if err := s.taskRepo.CreateDependencyPair(forward, reverse); err != nil {
		return nil, fmt.Errorf("failed to create dependency: %w", err)
	}

	s.publisher.Publish(source.BoardID, events.DependencyAdded, DependencyAddedPayload{
		BoardID:      source.BoardID,
		TaskID:       sourceID,
		TargetTaskID: targetID,
		Type:         depType,
	})

	return s.taskRepo.FindByID(sourceID, "Dependencies", "Dependencies.Target")
}

// RemoveDependency removes the edge from source to target together with its
// mirrored reverse edge.
func (s *DependencyService) RemoveDependency(sourceID, targetID uint64) (*models.Task, error) {
	source, err := s.taskRepo.FindByID(sourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find source task: %w", err)
	}

	unlock := s.locks.Lock(source.BoardID)
	defer unlock()

	if _, err := s.taskRepo.FindDependency(sourceID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDependencyNotFound
		}
		return nil, fmt.Errorf("failed to find dependency: %w", err)
	}

	if err := s.taskRepo.DeleteDependencyPair(sourceID, targetID); err != nil {
		return nil, fmt.Errorf("failed to remove dependency: %w", err)
	}

	s.publisher.Publish(source.BoardID, events.DependencyRemoved, map[string]uint64{
		"board_id":       source.BoardID,
		"task_id":        sourceID,
		"target_task_id": targetID,
	})

	return s.taskRepo.FindByID(sourceID, "Dependencies", "Dependencies.Target")
}

// ListDependencies returns a task's outgoing edges with target tasks populated
func (s *DependencyService) ListDependencies(taskID uint64) ([]models.TaskDependency, error) {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	deps, err := s.taskRepo.ListDependencies(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies: %w", err)
	}
	return deps, nil
}

// wouldCreateCycle reports whether adding the edge would close a cycle in the
// board's blocks subgraph. The new edge is normalized to "blocker blocks
// blocked"; the walk starts at the blocked task, follows blocks edges, and
// rejects if it reaches the blocker. The traversal is an iterative DFS with
// an explicit stack and visited set, so it terminates on any graph, including
// a malformed pre-existing cycle.
func (s *DependencyService) wouldCreateCycle(boardID, sourceID, targetID uint64, depType models.DependencyType) (bool, error) {
	blocker, blocked := sourceID, targetID
	if depType == models.DependencyBlockedBy {
		blocker, blocked = targetID, sourceID
	}

	edges, err := s.taskRepo.ListBlockEdges(boardID)
	if err != nil {
		return false, fmt.Errorf("failed to load dependency graph: %w", err)
	}

	// Adjacency in blocks direction; blocked-by rows are the stored mirrors of
	// blocks rows, so normalizing them is enough to see every edge even if a
	// mirror went missing.
	adjacent := make(map[uint64][]uint64)
	for _, e := range edges {
		switch e.Type {
		case models.DependencyBlocks:
			adjacent[e.TaskID] = append(adjacent[e.TaskID], e.TargetTaskID)
		case models.DependencyBlockedBy:
			adjacent[e.TargetTaskID] = append(adjacent[e.TargetTaskID], e.TaskID)
		}
	}

	visited := make(map[uint64]bool)
	stack := []uint64{blocked}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node == blocker {
			return true, nil
		}
		if visited[node] {
			continue
		}
		visited[node] = true

		stack = append(stack, adjacent[node]...)
	}

	return false, nil
}
